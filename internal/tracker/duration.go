package tracker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// compoundPattern matches durations like "1h30m15s"; every unit is optional
// but the order is fixed.
var compoundPattern = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// ParseDuration converts duration text to whole seconds. Accepted forms,
// tried in order: a plain integer ("3600"), a colon form ("01:00:00"),
// and a compound form ("1h30m15s"). Negative and fractional values are
// rejected in every form.
func ParseDuration(s string) (int64, error) {
	if s == "" {
		return 0, Errorf(KindValidation, "Duration is invalid")
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		if secs < 0 {
			return 0, Errorf(KindValidation, "Duration is invalid")
		}
		return secs, nil
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return 0, Errorf(KindValidation, "Duration is invalid")
		}
		var total int64
		for _, p := range parts {
			v, err := strconv.ParseInt(p, 10, 64)
			if err != nil || v < 0 {
				return 0, Errorf(KindValidation, "Duration is invalid")
			}
			total = total*60 + v
		}
		return total, nil
	}

	m := compoundPattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, Errorf(KindValidation, "Duration is invalid")
	}
	var total int64
	units := []int64{3600, 60, 1}
	for i, u := range units {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, Errorf(KindValidation, "Duration is invalid")
		}
		total += v * u
	}
	return total, nil
}

// FormatHHMMSS renders seconds as HH:MM:SS for replies
func FormatHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
