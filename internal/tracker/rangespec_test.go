package tracker

import "testing"

func TestParseIDRange(t *testing.T) {
	tests := []struct {
		input   string
		a, b    int64
		wantErr bool
	}{
		{"5", 5, 5, false},
		{"3-6", 3, 6, false},
		{"123-456", 123, 456, false},
		{"5-5", 0, 0, true},
		{"6-3", 0, 0, true},
		{"a-b", 0, 0, true},
		{"3-", 0, 0, true},
		{"-3", 0, 0, true},
		{"x", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		a, b, err := ParseIDRange(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseIDRange(%q) = (%d, %d), want error", tt.input, a, b)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseIDRange(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if a != tt.a || b != tt.b {
			t.Errorf("ParseIDRange(%q) = (%d, %d), want (%d, %d)", tt.input, a, b, tt.a, tt.b)
		}
	}
}
