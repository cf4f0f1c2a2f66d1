package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

// Domain errors. Handlers map these onto the API error taxonomy; nothing
// below this layer should surface as a generic server error.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrNotInWindow      = errors.New("exam is outside its access window")
	ErrTimeUp           = errors.New("session time is up")
	ErrDeviceConflict   = errors.New("session is active on another device")
	ErrAlreadyCompleted = errors.New("exam was already completed")
	ErrSessionCompleted = errors.New("session is completed, answers are frozen")
	ErrSessionExpired   = errors.New("session is expired")
	ErrAccessDenied     = errors.New("student may not enter this exam")
	ErrInvalidSlot      = errors.New("slot does not belong to this exam")
)

// Store interfaces implemented by the pgx repositories. The state machine is
// written against these so its transition logic is testable without Postgres.

// ExamStore resolves exam definitions.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListVisibleToStudent(ctx context.Context, studentID int) ([]model.Exam, error)
}

// SessionStore owns session rows. Creation conflicts surface as pgx.ErrNoRows
// (insert-on-conflict-do-nothing found no row to return); guarded transitions
// report whether they won via their bool result.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Session, error)
	FindActiveByDevice(ctx context.Context, studentID int, deviceID string) (*model.Session, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.Session, error)
	CreateActive(ctx context.Context, s *model.Session) error
	Reactivate(ctx context.Context, id uuid.UUID, deviceID, networkAddr, clientInfo string) (bool, error)
	Touch(ctx context.Context, id uuid.UUID, deviceID, networkAddr, clientInfo string) (bool, error)
	Pause(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkExpired(ctx context.Context, id uuid.UUID) error
}

// AnswerStore is the answer ledger.
type AnswerStore interface {
	UpsertBatch(ctx context.Context, sessionID uuid.UUID, answers []model.AnswerInput) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error)
}

// QuestionStore resolves structured-mode slots.
type QuestionStore interface {
	AnswerKeyByExam(ctx context.Context, examID uuid.UUID) (map[string]string, error)
}

// AccessChecker gates session creation. Advisory at this boundary: the state
// machine re-validates the time window itself.
type AccessChecker interface {
	CanEnter(ctx context.Context, studentID int, exam *model.Exam) (bool, error)
}

// AuditQueue accepts audit entries for asynchronous persistence. Pushes are
// best effort: a failed push must never roll back the transition it records.
type AuditQueue interface {
	Push(ctx context.Context, e *model.SessionAuditEntry) error
}

// SessionService owns the session lifecycle: Enter, Pause, SubmitAnswers,
// Finish, and lazy expiry. All invariants are enforced at the store level
// (unique constraints, guarded updates) because concurrent requests for the
// same session may be handled by different process instances.
type SessionService struct {
	exams     ExamStore
	sessions  SessionStore
	answers   AnswerStore
	questions QuestionStore
	access    AccessChecker
	audit     AuditQueue
	log       zerolog.Logger

	now func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	exams ExamStore,
	sessions SessionStore,
	answers AnswerStore,
	questions QuestionStore,
	access AccessChecker,
	audit AuditQueue,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		exams:     exams,
		sessions:  sessions,
		answers:   answers,
		questions: questions,
		access:    access,
		audit:     audit,
		log:       log.With().Str("component", "session_service").Logger(),
		now:       time.Now,
	}
}

// Enter creates or resumes the student's session for an exam.
//
// The whole sequence is atomic per (exam, student): creation races resolve
// through the unique constraint plus refetch, transition races through
// guarded updates plus one retry. Losing every race means another device won;
// the loser is rejected rather than merged.
func (s *SessionService) Enter(ctx context.Context, examID uuid.UUID, studentID int, deviceID, networkAddr, clientInfo string) (*model.Session, error) {
	now := s.now()

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	if !exam.InWindow(now) {
		return nil, ErrNotInWindow
	}

	allowed, err := s.access.CanEnter(ctx, studentID, exam)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}
	if !allowed {
		return nil, ErrAccessDenied
	}

	for attempt := 0; attempt < 2; attempt++ {
		sess, retry, err := s.tryEnter(ctx, exam, studentID, deviceID, networkAddr, clientInfo, now)
		if retry {
			continue
		}
		return sess, err
	}
	// Two lost races in a row means another device is actively fighting for
	// this session; reject rather than loop.
	return nil, ErrDeviceConflict
}

func (s *SessionService) tryEnter(ctx context.Context, exam *model.Exam, studentID int, deviceID, networkAddr, clientInfo string, now time.Time) (*model.Session, bool, error) {
	sess, err := s.sessions.GetByExamAndStudent(ctx, exam.ID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		ns := &model.Session{
			ExamID:      exam.ID,
			StudentID:   studentID,
			Status:      model.SessionStatusActive,
			EntryTime:   now,
			EndTime:     now.Add(exam.Duration()),
			DeviceID:    deviceID,
			NetworkAddr: networkAddr,
			ClientInfo:  clientInfo,
		}
		err := s.sessions.CreateActive(ctx, ns)
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent first entry: another request inserted the row
			// between our read and our insert. Re-run against its row.
			return nil, true, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("create session: %w", err)
		}
		s.recordAudit(ctx, ns, model.AuditActionLogin, now)
		return ns, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get session: %w", err)
	}

	switch sess.EffectiveStatus(now) {
	case model.SessionStatusCompleted:
		// A completed exam may never be re-entered; the handler turns this
		// into a redirect-to-results signal.
		return nil, false, ErrAlreadyCompleted

	case model.SessionStatusExpired:
		s.formalizeExpiry(ctx, sess.ID)
		return nil, false, ErrTimeUp

	case model.SessionStatusActive:
		if sess.DeviceID != deviceID {
			// One active device at a time. Hard stop: there is no transfer
			// flow, the other device must exit first.
			return nil, false, ErrDeviceConflict
		}
		ok, err := s.sessions.Touch(ctx, sess.ID, deviceID, networkAddr, clientInfo)
		if err != nil {
			return nil, false, fmt.Errorf("touch session: %w", err)
		}
		if !ok {
			return nil, true, nil
		}
		sess.NetworkAddr = networkAddr
		sess.ClientInfo = clientInfo
		s.recordAudit(ctx, sess, model.AuditActionLogin, now)
		return sess, false, nil

	default: // INACTIVE, not yet overdue
		ok, err := s.sessions.Reactivate(ctx, sess.ID, deviceID, networkAddr, clientInfo)
		if err != nil {
			return nil, false, fmt.Errorf("reactivate session: %w", err)
		}
		if !ok {
			return nil, true, nil
		}
		sess.Status = model.SessionStatusActive
		sess.DeviceID = deviceID
		sess.NetworkAddr = networkAddr
		sess.ClientInfo = clientInfo
		s.recordAudit(ctx, sess, model.AuditActionLogin, now)
		return sess, false, nil
	}
}

// Exit gracefully pauses the caller's own ACTIVE session on the given device.
func (s *SessionService) Exit(ctx context.Context, studentID int, deviceID string) (*model.Session, error) {
	now := s.now()

	sess, err := s.sessions.FindActiveByDevice(ctx, studentID, deviceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find active session: %w", err)
	}

	ok, err := s.sessions.Pause(ctx, sess.ID, now)
	if err != nil {
		return nil, fmt.Errorf("pause session: %w", err)
	}
	if !ok {
		// Lost a race with finish or expiry; the session is no longer ours
		// to pause.
		return nil, ErrNotFound
	}

	sess.Status = model.SessionStatusInactive
	sess.ExitTime = &now
	s.recordAudit(ctx, sess, model.AuditActionLogout, now)
	return sess, nil
}

// SubmitAnswers applies a batch of answers for the session. Permitted while
// the session is ACTIVE or INACTIVE and before end_time. The batch persists
// all-or-nothing; a rejection never mutates session status (expiry is
// formalized by the next Enter or the sweeper).
func (s *SessionService) SubmitAnswers(ctx context.Context, sessionID uuid.UUID, studentID int, answers []model.AnswerInput) error {
	if len(answers) == 0 {
		return nil
	}
	now := s.now()

	sess, err := s.getOwnedSession(ctx, sessionID, studentID)
	if err != nil {
		return err
	}

	if sess.Status == model.SessionStatusCompleted {
		return ErrSessionCompleted
	}
	if !now.Before(sess.EndTime) {
		return ErrTimeUp
	}

	if err := s.validateSlots(ctx, sess.ExamID, answers); err != nil {
		return err
	}

	if err := s.answers.UpsertBatch(ctx, sessionID, answers); err != nil {
		return fmt.Errorf("upsert answers: %w", err)
	}
	return nil
}

// GetAnswers returns the latest value per slot. Readable for completed
// sessions (results review) but not expired ones.
func (s *SessionService) GetAnswers(ctx context.Context, sessionID uuid.UUID, studentID int) (map[string]*string, error) {
	now := s.now()

	sess, err := s.getOwnedSession(ctx, sessionID, studentID)
	if err != nil {
		return nil, err
	}

	if sess.EffectiveStatus(now) == model.SessionStatusExpired {
		s.formalizeExpiry(ctx, sess.ID)
		return nil, ErrSessionExpired
	}

	records, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	out := make(map[string]*string, len(records))
	for _, rec := range records {
		out[rec.Slot] = rec.Value
	}
	return out, nil
}

// Finish completes the session. Finishing an already-completed session is a
// no-op success so duplicate client retries are harmless.
func (s *SessionService) Finish(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.Session, error) {
	now := s.now()

	sess, err := s.getOwnedSession(ctx, sessionID, studentID)
	if err != nil {
		return nil, err
	}

	switch sess.EffectiveStatus(now) {
	case model.SessionStatusCompleted:
		return sess, nil
	case model.SessionStatusExpired:
		s.formalizeExpiry(ctx, sess.ID)
		return nil, ErrTimeUp
	}

	ok, err := s.sessions.Complete(ctx, sess.ID, now)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if !ok {
		// Someone else completed (or expired) it first. Refetch and absorb
		// the duplicate finish.
		fresh, err := s.sessions.GetByID(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("refetch session: %w", err)
		}
		if fresh.Status == model.SessionStatusCompleted {
			return fresh, nil
		}
		return nil, ErrTimeUp
	}

	sess.Status = model.SessionStatusCompleted
	if sess.ExitTime == nil {
		sess.ExitTime = &now
	}
	s.recordAudit(ctx, sess, model.AuditActionLogout, now)
	return sess, nil
}

// FinishByExam resolves the student's session for an exam and finishes it.
func (s *SessionService) FinishByExam(ctx context.Context, examID uuid.UUID, studentID int) (*model.Session, error) {
	sess, err := s.sessions.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s.Finish(ctx, sess.ID, studentID)
}

// GetSession returns the caller's session with its effective (lazily expired)
// status resolved.
func (s *SessionService) GetSession(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.Session, error) {
	sess, err := s.getOwnedSession(ctx, sessionID, studentID)
	if err != nil {
		return nil, err
	}
	if eff := sess.EffectiveStatus(s.now()); eff != sess.Status {
		s.formalizeExpiry(ctx, sess.ID)
		sess.Status = eff
	}
	return sess, nil
}

// GetSessionAnyOwner reads a session without the ownership gate. For internal
// infrastructure (cache repopulation) only; request paths must go through
// GetSession.
func (s *SessionService) GetSessionAnyOwner(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// LobbyStatus classifies an exam as displayed in the student lobby.
type LobbyStatus string

const (
	LobbyStatusUpcoming   LobbyStatus = "UPCOMING"
	LobbyStatusAvailable  LobbyStatus = "AVAILABLE"
	LobbyStatusInProgress LobbyStatus = "IN_PROGRESS"
	LobbyStatusCompleted  LobbyStatus = "COMPLETED"
	LobbyStatusExpired    LobbyStatus = "EXPIRED"
	LobbyStatusClosed     LobbyStatus = "CLOSED"
)

// LobbyExam is an exam overlaid with the student's session state.
type LobbyExam struct {
	model.Exam
	LobbyStatus   LobbyStatus          `json:"lobby_status"`
	SessionID     *uuid.UUID           `json:"session_id,omitempty"`
	SessionStatus *model.SessionStatus `json:"session_status,omitempty"`
}

// GetLobby lists the exams visible to the student with session overlay.
func (s *SessionService) GetLobby(ctx context.Context, studentID int) ([]LobbyExam, error) {
	now := s.now()

	exams, err := s.exams.ListVisibleToStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	sessions, err := s.sessions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	byExam := make(map[uuid.UUID]*model.Session, len(sessions))
	for i := range sessions {
		byExam[sessions[i].ExamID] = &sessions[i]
	}

	lobby := make([]LobbyExam, 0, len(exams))
	for i := range exams {
		exam := exams[i]
		entry := LobbyExam{Exam: exam}

		if sess, ok := byExam[exam.ID]; ok {
			eff := sess.EffectiveStatus(now)
			entry.SessionID = &sess.ID
			entry.SessionStatus = &eff
			switch eff {
			case model.SessionStatusCompleted:
				entry.LobbyStatus = LobbyStatusCompleted
			case model.SessionStatusExpired:
				entry.LobbyStatus = LobbyStatusExpired
			default:
				entry.LobbyStatus = LobbyStatusInProgress
			}
		} else {
			switch {
			case exam.AccessMode == model.AccessModeWindowed && exam.WindowStart != nil && now.Before(*exam.WindowStart):
				entry.LobbyStatus = LobbyStatusUpcoming
			case !exam.InWindow(now):
				entry.LobbyStatus = LobbyStatusClosed
			default:
				entry.LobbyStatus = LobbyStatusAvailable
			}
		}
		lobby = append(lobby, entry)
	}
	return lobby, nil
}

func (s *SessionService) getOwnedSession(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	// SECURITY: a session is only addressable by its own student. Treated as
	// not-found so IDs cannot be probed.
	if sess.StudentID != studentID {
		return nil, ErrNotFound
	}
	return sess, nil
}

// validateSlots rejects slots that cannot belong to the exam: document-mode
// slots must be positive integers, structured-mode slots must be question IDs
// of the exam.
func (s *SessionService) validateSlots(ctx context.Context, examID uuid.UUID, answers []model.AnswerInput) error {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}

	if exam.ContentMode == model.ContentModeDocument {
		for _, a := range answers {
			n, err := strconv.Atoi(a.Slot)
			if err != nil || n < 1 {
				return ErrInvalidSlot
			}
		}
		return nil
	}

	key, err := s.questions.AnswerKeyByExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("load question ids: %w", err)
	}
	for _, a := range answers {
		if _, ok := key[a.Slot]; !ok {
			return ErrInvalidSlot
		}
	}
	return nil
}

// formalizeExpiry marks the row EXPIRED after lazy expiry detected it. The
// effective status was already decided; a storage failure here only delays
// the formal mark, so it is logged and swallowed.
func (s *SessionService) formalizeExpiry(ctx context.Context, id uuid.UUID) {
	if err := s.sessions.MarkExpired(ctx, id); err != nil {
		s.log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to mark session expired")
	}
}

// recordAudit pushes a login/logout entry after the transition committed.
// Audit is observability, not a correctness gate: failures are logged for
// operators and otherwise swallowed.
func (s *SessionService) recordAudit(ctx context.Context, sess *model.Session, action model.AuditAction, at time.Time) {
	entry := &model.SessionAuditEntry{
		SessionID:   sess.ID,
		Action:      action,
		DeviceID:    sess.DeviceID,
		NetworkAddr: sess.NetworkAddr,
		ClientInfo:  sess.ClientInfo,
		RecordedAt:  at,
	}
	if err := s.audit.Push(ctx, entry); err != nil {
		s.log.Error().Err(err).
			Str("session_id", sess.ID.String()).
			Str("action", string(action)).
			Msg("Audit push failed")
	}
}
