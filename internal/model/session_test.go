package model

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to SessionStatus
		want     bool
	}{
		{SessionStatusActive, SessionStatusInactive, true},
		{SessionStatusActive, SessionStatusCompleted, true},
		{SessionStatusActive, SessionStatusExpired, true},
		{SessionStatusInactive, SessionStatusActive, true},
		{SessionStatusInactive, SessionStatusCompleted, true},
		{SessionStatusInactive, SessionStatusExpired, true},
		{SessionStatusCompleted, SessionStatusActive, false},
		{SessionStatusCompleted, SessionStatusExpired, false},
		{SessionStatusExpired, SessionStatusActive, false},
		{SessionStatusExpired, SessionStatusCompleted, false},
		{SessionStatusActive, SessionStatusActive, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if SessionStatusActive.Terminal() || SessionStatusInactive.Terminal() {
		t.Error("ACTIVE and INACTIVE must not be terminal")
	}
	if !SessionStatusCompleted.Terminal() || !SessionStatusExpired.Terminal() {
		t.Error("COMPLETED and EXPIRED must be terminal")
	}
}

func TestEffectiveStatus(t *testing.T) {
	entry := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	end := entry.Add(90 * time.Minute)

	cases := []struct {
		name   string
		status SessionStatus
		now    time.Time
		want   SessionStatus
	}{
		{"active before end", SessionStatusActive, end.Add(-time.Minute), SessionStatusActive},
		{"inactive before end", SessionStatusInactive, end.Add(-time.Minute), SessionStatusInactive},
		{"active exactly at end", SessionStatusActive, end, SessionStatusExpired},
		{"active past end", SessionStatusActive, end.Add(time.Second), SessionStatusExpired},
		{"inactive past end", SessionStatusInactive, end.Add(time.Hour), SessionStatusExpired},
		{"completed stays completed past end", SessionStatusCompleted, end.Add(time.Hour), SessionStatusCompleted},
		{"expired stays expired", SessionStatusExpired, end.Add(time.Hour), SessionStatusExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Session{Status: tc.status, EntryTime: entry, EndTime: end}
			if got := s.EffectiveStatus(tc.now); got != tc.want {
				t.Errorf("EffectiveStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	entry := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s := Session{EntryTime: entry, EndTime: entry.Add(time.Hour)}

	if got := s.Remaining(entry.Add(45 * time.Minute)); got != 15*time.Minute {
		t.Errorf("Remaining = %v, want 15m", got)
	}
	if got := s.Remaining(entry.Add(2 * time.Hour)); got != 0 {
		t.Errorf("Remaining past end = %v, want 0", got)
	}
}
