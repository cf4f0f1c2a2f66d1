package service

import (
	"math"
	"testing"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

func strptr(s string) *string { return &s }

func TestGrade(t *testing.T) {
	key := map[string]string{
		"1": "A", "2": "B", "3": "C", "4": "D", "5": "A",
		"6": "B", "7": "C", "8": "D", "9": "A", "10": "B",
	}

	t.Run("mixed outcomes", func(t *testing.T) {
		// 6 correct, 2 incorrect, 2 unanswered.
		answers := map[string]*string{
			"1": strptr("A"), "2": strptr("B"), "3": strptr("C"),
			"4": strptr("D"), "5": strptr("A"), "6": strptr("B"),
			"7": strptr("X"), "8": strptr("X"),
		}
		res := Grade(10, key, answers)

		if res.Correct != 6 || res.Incorrect != 2 || res.Unanswered != 2 {
			t.Fatalf("counts = %d/%d/%d, want 6/2/2", res.Correct, res.Incorrect, res.Unanswered)
		}
		if res.RawPoints != 16 {
			t.Errorf("RawPoints = %d, want 16", res.RawPoints)
		}
		// 16 / 30 * 100
		if math.Abs(res.Percentage-53.333333) > 0.001 {
			t.Errorf("Percentage = %f, want ~53.33", res.Percentage)
		}
	})

	t.Run("percentage floors at zero", func(t *testing.T) {
		answers := map[string]*string{
			"1": strptr("X"), "2": strptr("X"), "3": strptr("X"),
		}
		res := Grade(10, key, answers)
		if res.RawPoints != -3 {
			t.Errorf("RawPoints = %d, want -3", res.RawPoints)
		}
		if res.Percentage != 0 {
			t.Errorf("Percentage = %f, want 0", res.Percentage)
		}
	})

	t.Run("explicit nil is unanswered, not incorrect", func(t *testing.T) {
		answers := map[string]*string{
			"1": nil,
			"2": strptr("B"),
		}
		res := Grade(10, key, answers)
		if res.Correct != 1 || res.Incorrect != 0 || res.Unanswered != 9 {
			t.Errorf("counts = %d/%d/%d, want 1/0/9", res.Correct, res.Incorrect, res.Unanswered)
		}
		if res.RawPoints != 3 {
			t.Errorf("RawPoints = %d, want 3", res.RawPoints)
		}
	})

	t.Run("all correct", func(t *testing.T) {
		answers := make(map[string]*string, len(key))
		for slot, v := range key {
			answers[slot] = strptr(v)
		}
		res := Grade(10, key, answers)
		if res.RawPoints != 30 || res.Percentage != 100 {
			t.Errorf("raw=%d pct=%f, want 30/100", res.RawPoints, res.Percentage)
		}
	})

	t.Run("empty exam", func(t *testing.T) {
		res := Grade(0, map[string]string{}, map[string]*string{})
		if res.RawPoints != 0 || res.Percentage != 0 {
			t.Errorf("raw=%d pct=%f, want 0/0", res.RawPoints, res.Percentage)
		}
	})

	t.Run("sparse key counts surplus slots unanswered", func(t *testing.T) {
		sparse := map[string]string{"1": "A", "5": "B"}
		answers := map[string]*string{"1": strptr("A")}
		res := Grade(5, sparse, answers)
		if res.Correct != 1 || res.Unanswered != 4 {
			t.Errorf("counts = %d correct / %d unanswered, want 1/4", res.Correct, res.Unanswered)
		}
	})

	t.Run("slots ordered numerically", func(t *testing.T) {
		res := Grade(10, key, nil)
		if len(res.Slots) != 10 {
			t.Fatalf("len(Slots) = %d, want 10", len(res.Slots))
		}
		if res.Slots[1].Slot != "2" || res.Slots[9].Slot != "10" {
			t.Errorf("slot order wrong: %s ... %s", res.Slots[1].Slot, res.Slots[9].Slot)
		}
	})

	t.Run("answer outside key is ignored", func(t *testing.T) {
		answers := map[string]*string{"99": strptr("A")}
		res := Grade(10, key, answers)
		if res.Correct != 0 || res.Incorrect != 0 || res.Unanswered != 10 {
			t.Errorf("counts = %d/%d/%d, want 0/0/10", res.Correct, res.Incorrect, res.Unanswered)
		}
	})
}

func TestAnswerKeyTotals(t *testing.T) {
	t.Run("document mode uses highest slot", func(t *testing.T) {
		exam := &model.Exam{
			ContentMode: model.ContentModeDocument,
			AnswerKey:   []byte(`{"1":"A","2":"B","7":"C"}`),
		}
		svc := NewScoringService(nil, nil, nil)
		key, total, err := svc.AnswerKey(nil, exam)
		if err != nil {
			t.Fatalf("AnswerKey: %v", err)
		}
		if total != 7 || len(key) != 3 {
			t.Errorf("total=%d len=%d, want 7/3", total, len(key))
		}
	})

	t.Run("document mode without key scores zero questions", func(t *testing.T) {
		exam := &model.Exam{ContentMode: model.ContentModeDocument}
		svc := NewScoringService(nil, nil, nil)
		key, total, err := svc.AnswerKey(nil, exam)
		if err != nil {
			t.Fatalf("AnswerKey: %v", err)
		}
		if total != 0 || len(key) != 0 {
			t.Errorf("total=%d len=%d, want 0/0", total, len(key))
		}

		res := Grade(total, key, map[string]*string{"1": strptr("A")})
		if res.Percentage != 0 {
			t.Errorf("Percentage = %f, want 0", res.Percentage)
		}
	})
}
