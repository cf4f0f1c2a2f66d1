package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lenterailmu/ujian-backend/internal/model"
	"github.com/lenterailmu/ujian-backend/internal/repository"
)

// ReportStore serves the report joins.
type ReportStore interface {
	ListSessionsByExam(ctx context.Context, examID uuid.UUID) ([]repository.SessionWithStudent, error)
}

// AnswerMapStore loads a whole exam's ledger in one pass.
type AnswerMapStore interface {
	MapByExam(ctx context.Context, examID uuid.UUID) (map[uuid.UUID][]model.AnswerRecord, error)
}

// DeviceCounter exposes the audit log's device history for review.
type DeviceCounter interface {
	DistinctDeviceCount(ctx context.Context, sessionID uuid.UUID) (int, error)
}

// ReportEntry is one student's row in the teacher-facing breakdown.
type ReportEntry struct {
	StudentID   int                 `json:"student_id"`
	StudentName string              `json:"student_name"`
	Username    string              `json:"username"`
	SessionID   uuid.UUID           `json:"session_id"`
	Status      model.SessionStatus `json:"status"`
	EntryTime   time.Time           `json:"entry_time"`
	ExitTime    *time.Time          `json:"exit_time,omitempty"`
	DeviceCount int                 `json:"device_count"`
	Score       model.ScoreResult   `json:"score"`
}

// ReportService produces per-student score breakdowns for an exam. Scores
// are derived on read via the scoring engine; nothing here mutates sessions.
type ReportService struct {
	exams   ExamStore
	reports ReportStore
	answers AnswerMapStore
	audit   DeviceCounter
	scoring *ScoringService

	now func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(exams ExamStore, reports ReportStore, answers AnswerMapStore, audit DeviceCounter, scoring *ScoringService) *ReportService {
	return &ReportService{
		exams:   exams,
		reports: reports,
		answers: answers,
		audit:   audit,
		scoring: scoring,
		now:     time.Now,
	}
}

// ExamReport returns the score breakdown for every session of an exam.
func (s *ReportService) ExamReport(ctx context.Context, examID uuid.UUID) ([]ReportEntry, error) {
	now := s.now()

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	key, total, err := s.scoring.AnswerKey(ctx, exam)
	if err != nil {
		return nil, err
	}

	rows, err := s.reports.ListSessionsByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	ledger, err := s.answers.MapByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	entries := make([]ReportEntry, 0, len(rows))
	for _, row := range rows {
		answers := make(map[string]*string)
		for _, rec := range ledger[row.Session.ID] {
			answers[rec.Slot] = rec.Value
		}

		score := Grade(total, key, answers)
		score.SessionID = row.Session.ID
		score.ExamID = examID
		score.StudentID = row.Session.StudentID
		score.Slots = nil // Aggregate only in the listing.

		devices, err := s.audit.DistinctDeviceCount(ctx, row.Session.ID)
		if err != nil {
			// The audit log is best effort on the write side too; a read
			// failure downgrades the column rather than the whole report.
			devices = 0
		}

		entries = append(entries, ReportEntry{
			StudentID:   row.Session.StudentID,
			StudentName: row.StudentName,
			Username:    row.Username,
			SessionID:   row.Session.ID,
			Status:      row.Session.EffectiveStatus(now),
			EntryTime:   row.Session.EntryTime,
			ExitTime:    row.Session.ExitTime,
			DeviceCount: devices,
			Score:       score,
		})
	}
	return entries, nil
}
