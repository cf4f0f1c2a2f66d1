package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

// pointsPerCorrect and penaltyPerIncorrect encode the 3:1 negative-marking
// rule. Unanswered slots never count negative, and the normalized percentage
// floors at zero. This ratio is a scoring-fairness contract; do not tune it.
const (
	pointsPerCorrect    = 3
	penaltyPerIncorrect = 1
)

// Grade classifies every keyed slot of an exam against the submitted answers
// and computes the weighted percentage. Pure: no I/O, no mutation of inputs.
//
// totalSlots may exceed len(key) (document mode counts up to the highest slot
// number); the surplus counts as unanswered.
func Grade(totalSlots int, key map[string]string, answers map[string]*string) model.ScoreResult {
	res := model.ScoreResult{TotalSlots: totalSlots}

	slots := make([]string, 0, len(key))
	for slot := range key {
		slots = append(slots, slot)
	}
	sortSlots(slots)

	for _, slot := range slots {
		given, ok := answers[slot]
		score := model.SlotScore{Slot: slot, Given: given}
		switch {
		case !ok || given == nil:
			// Never answered, or explicitly cleared. Both are unanswered for
			// scoring purposes.
			score.Outcome = model.SlotUnanswered
			res.Unanswered++
		case *given == key[slot]:
			score.Outcome = model.SlotCorrect
			res.Correct++
		default:
			score.Outcome = model.SlotIncorrect
			res.Incorrect++
		}
		res.Slots = append(res.Slots, score)
	}

	// Slots beyond the key (sparse document keys) are unanswerable and count
	// as unanswered.
	if extra := totalSlots - len(key); extra > 0 {
		res.Unanswered += extra
	}

	res.RawPoints = pointsPerCorrect*res.Correct - penaltyPerIncorrect*res.Incorrect
	if totalSlots > 0 {
		res.Percentage = float64(res.RawPoints) / float64(pointsPerCorrect*totalSlots) * 100
	}
	if res.Percentage < 0 {
		res.Percentage = 0
	}
	return res
}

// sortSlots orders numerically when every slot is a number (document mode),
// lexicographically otherwise.
func sortSlots(slots []string) {
	numeric := true
	for _, s := range slots {
		if _, err := strconv.Atoi(s); err != nil {
			numeric = false
			break
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if numeric {
			a, _ := strconv.Atoi(slots[i])
			b, _ := strconv.Atoi(slots[j])
			return a < b
		}
		return slots[i] < slots[j]
	})
}

// ScoringService resolves an exam's answer key and totals per content mode,
// then delegates to Grade. It never mutates session state.
type ScoringService struct {
	exams     ExamStore
	questions QuestionStore
	answers   AnswerStore
}

// NewScoringService creates a new ScoringService.
func NewScoringService(exams ExamStore, questions QuestionStore, answers AnswerStore) *ScoringService {
	return &ScoringService{exams: exams, questions: questions, answers: answers}
}

// AnswerKey loads the key and total slot count for an exam.
//
// Document mode: total = highest slot number in the key; a missing key is
// tolerated and yields zero-question scoring. Structured mode: total = number
// of questions.
func (s *ScoringService) AnswerKey(ctx context.Context, exam *model.Exam) (map[string]string, int, error) {
	if exam.ContentMode == model.ContentModeStructured {
		key, err := s.questions.AnswerKeyByExam(ctx, exam.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("load question key: %w", err)
		}
		return key, len(key), nil
	}

	key, err := exam.DocumentKey()
	if err != nil {
		return nil, 0, fmt.Errorf("decode answer key: %w", err)
	}
	total := 0
	for slot := range key {
		if n, err := strconv.Atoi(slot); err == nil && n > total {
			total = n
		}
	}
	return key, total, nil
}

// ScoreSession computes the score of one session, in any state: a preview on
// a running session is as valid as the final score on a completed one.
func (s *ScoringService) ScoreSession(ctx context.Context, sess *model.Session) (*model.ScoreResult, error) {
	exam, err := s.exams.GetByID(ctx, sess.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	key, total, err := s.AnswerKey(ctx, exam)
	if err != nil {
		return nil, err
	}

	records, err := s.answers.ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	answers := make(map[string]*string, len(records))
	for _, rec := range records {
		answers[rec.Slot] = rec.Value
	}

	res := Grade(total, key, answers)
	res.SessionID = sess.ID
	res.ExamID = sess.ExamID
	res.StudentID = sess.StudentID
	return &res, nil
}
