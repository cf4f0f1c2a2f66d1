package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestInWindow(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	windowed := Exam{AccessMode: AccessModeWindowed, WindowStart: &start, WindowEnd: &end}
	always := Exam{AccessMode: AccessModeAlways}

	cases := []struct {
		name string
		exam *Exam
		now  time.Time
		want bool
	}{
		{"before window", &windowed, start.Add(-time.Minute), false},
		{"at window start", &windowed, start, true},
		{"inside window", &windowed, start.Add(time.Hour), true},
		{"at window end", &windowed, end, false},
		{"after window", &windowed, end.Add(time.Minute), false},
		{"always mode ignores clock", &always, time.Time{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.exam.InWindow(tc.now); got != tc.want {
				t.Errorf("InWindow = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("windowed without window is closed", func(t *testing.T) {
		e := Exam{AccessMode: AccessModeWindowed}
		if e.InWindow(start) {
			t.Error("expected a windowed exam without a window to be closed")
		}
	})
}

func TestDocumentKey(t *testing.T) {
	e := Exam{AnswerKey: json.RawMessage(`{"1":"A","2":"C","10":"B"}`)}
	key, err := e.DocumentKey()
	if err != nil {
		t.Fatalf("DocumentKey: %v", err)
	}
	if len(key) != 3 || key["10"] != "B" {
		t.Errorf("unexpected key: %v", key)
	}

	empty := Exam{}
	key, err = empty.DocumentKey()
	if err != nil {
		t.Fatalf("DocumentKey on empty: %v", err)
	}
	if len(key) != 0 {
		t.Errorf("expected empty key, got %v", key)
	}
}

func TestSubmitAnswersRequestInputs(t *testing.T) {
	v := "A"

	single := SubmitAnswersRequest{Slot: "3", Value: &v}
	if got := single.Inputs(); len(got) != 1 || got[0].Slot != "3" {
		t.Errorf("single input = %v", got)
	}

	batch := SubmitAnswersRequest{Answers: []AnswerInput{{Slot: "1", Value: &v}, {Slot: "2", Value: nil}}}
	if got := batch.Inputs(); len(got) != 2 {
		t.Errorf("batch input = %v", got)
	}

	empty := SubmitAnswersRequest{}
	if got := empty.Inputs(); got != nil {
		t.Errorf("empty input = %v, want nil", got)
	}
}
