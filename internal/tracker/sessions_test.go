package tracker

import (
	"testing"
	"time"
)

func TestSessionRegistryBegin(t *testing.T) {
	r := NewSessionRegistry()
	first := ManualSession{GameName: "Doom", Platform: "pc", StartedAt: time.Now()}

	if !r.Begin("u1", first) {
		t.Fatal("first Begin should succeed")
	}
	if r.Begin("u1", ManualSession{GameName: "Quake"}) {
		t.Fatal("second Begin for same user should fail")
	}
	if got, _ := r.Get("u1"); got.GameName != "Doom" {
		t.Errorf("running session = %q, want the first one kept", got.GameName)
	}
	if !r.Begin("u2", ManualSession{GameName: "Quake"}) {
		t.Error("Begin for a different user should succeed")
	}
	if r.Active() != 2 {
		t.Errorf("Active() = %d, want 2", r.Active())
	}
}

func TestSessionRegistryEnd(t *testing.T) {
	r := NewSessionRegistry()
	if _, ok := r.End("u1"); ok {
		t.Fatal("End without a session should report false")
	}

	r.Begin("u1", ManualSession{GameName: "Doom"})
	s, ok := r.End("u1")
	if !ok || s.GameName != "Doom" {
		t.Fatalf("End = (%+v, %v), want the started session", s, ok)
	}
	if _, running := r.Get("u1"); running {
		t.Error("session should be gone after End")
	}
}

func TestSessionRegistryRestore(t *testing.T) {
	r := NewSessionRegistry()
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	old := ManualSession{GameName: "Doom", StartedAt: started}

	r.Begin("u1", old)
	r.End("u1")
	if !r.Restore("u1", old) {
		t.Fatal("Restore into an idle slot should succeed")
	}
	if got, _ := r.Get("u1"); !got.StartedAt.Equal(started) {
		t.Errorf("restored StartedAt = %v, want original %v", got.StartedAt, started)
	}

	r.End("u1")
	r.Begin("u1", ManualSession{GameName: "Quake"})
	if r.Restore("u1", old) {
		t.Fatal("Restore should fail when a new session is running")
	}
	if got, _ := r.Get("u1"); got.GameName != "Quake" {
		t.Errorf("running session = %q, want the new one kept", got.GameName)
	}
}
