package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

// fakeStore is an in-memory stand-in for the pgx repositories. It mirrors
// their contract exactly: pgx.ErrNoRows for missing rows and lost insert
// races, bool results for guarded transitions.
type fakeStore struct {
	exams    map[uuid.UUID]*model.Exam
	sessions map[uuid.UUID]*model.Session
	answers  map[uuid.UUID]map[string]*string
	key      map[string]string
	allow    bool
	audit    []*model.SessionAuditEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exams:    make(map[uuid.UUID]*model.Exam),
		sessions: make(map[uuid.UUID]*model.Session),
		answers:  make(map[uuid.UUID]map[string]*string),
		allow:    true,
	}
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	if e, ok := f.exams[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) ListVisibleToStudent(ctx context.Context, studentID int) ([]model.Exam, error) {
	var out []model.Exam
	for _, e := range f.exams {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeStore) sessionByID(id uuid.UUID) (*model.Session, error) {
	if s, ok := f.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Session, error) {
	for _, s := range f.sessions {
		if s.ExamID == examID && s.StudentID == studentID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) FindActiveByDevice(ctx context.Context, studentID int, deviceID string) (*model.Session, error) {
	for _, s := range f.sessions {
		if s.StudentID == studentID && s.DeviceID == deviceID && s.Status == model.SessionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) ListByStudent(ctx context.Context, studentID int) ([]model.Session, error) {
	var out []model.Session
	for _, s := range f.sessions {
		if s.StudentID == studentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateActive(ctx context.Context, s *model.Session) error {
	for _, existing := range f.sessions {
		if existing.ExamID == s.ExamID && existing.StudentID == s.StudentID {
			return pgx.ErrNoRows
		}
	}
	s.ID = uuid.New()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) Reactivate(ctx context.Context, id uuid.UUID, deviceID, networkAddr, clientInfo string) (bool, error) {
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusInactive {
		return false, nil
	}
	s.Status = model.SessionStatusActive
	s.DeviceID = deviceID
	s.NetworkAddr = networkAddr
	s.ClientInfo = clientInfo
	return true, nil
}

func (f *fakeStore) Touch(ctx context.Context, id uuid.UUID, deviceID, networkAddr, clientInfo string) (bool, error) {
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive || s.DeviceID != deviceID {
		return false, nil
	}
	s.NetworkAddr = networkAddr
	s.ClientInfo = clientInfo
	return true, nil
}

func (f *fakeStore) Pause(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive {
		return false, nil
	}
	s.Status = model.SessionStatusInactive
	s.ExitTime = &at
	return true, nil
}

func (f *fakeStore) Complete(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s, ok := f.sessions[id]
	if !ok || (s.Status != model.SessionStatusActive && s.Status != model.SessionStatusInactive) {
		return false, nil
	}
	s.Status = model.SessionStatusCompleted
	if s.ExitTime == nil {
		s.ExitTime = &at
	}
	return true, nil
}

func (f *fakeStore) MarkExpired(ctx context.Context, id uuid.UUID) error {
	s, ok := f.sessions[id]
	if ok && (s.Status == model.SessionStatusActive || s.Status == model.SessionStatusInactive) {
		s.Status = model.SessionStatusExpired
	}
	return nil
}

func (f *fakeStore) UpsertBatch(ctx context.Context, sessionID uuid.UUID, answers []model.AnswerInput) error {
	m, ok := f.answers[sessionID]
	if !ok {
		m = make(map[string]*string)
		f.answers[sessionID] = m
	}
	for _, a := range answers {
		m[a.Slot] = a.Value
	}
	return nil
}

func (f *fakeStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error) {
	var out []model.AnswerRecord
	for slot, v := range f.answers[sessionID] {
		out = append(out, model.AnswerRecord{SessionID: sessionID, Slot: slot, Value: v})
	}
	return out, nil
}

func (f *fakeStore) AnswerKeyByExam(ctx context.Context, examID uuid.UUID) (map[string]string, error) {
	return f.key, nil
}

func (f *fakeStore) CanEnter(ctx context.Context, studentID int, exam *model.Exam) (bool, error) {
	return f.allow, nil
}

func (f *fakeStore) Push(ctx context.Context, e *model.SessionAuditEntry) error {
	f.audit = append(f.audit, e)
	return nil
}

// sessionStoreAdapter renames GetSession to GetByID for the interface.
type sessionStoreAdapter struct{ *fakeStore }

func (a sessionStoreAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return a.fakeStore.sessionByID(id)
}

var baseTime = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTestService(f *fakeStore) (*SessionService, *time.Time) {
	svc := NewSessionService(f, sessionStoreAdapter{f}, f, f, f, f, zerolog.Nop())
	now := baseTime
	svc.now = func() time.Time { return now }
	return svc, &now
}

func addExam(f *fakeStore, duration int) *model.Exam {
	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           "Matematika Dasar",
		AccessMode:      model.AccessModeAlways,
		DurationMinutes: duration,
		ContentMode:     model.ContentModeDocument,
		AnswerKey:       []byte(`{"1":"A","2":"B","3":"C"}`),
	}
	f.exams[exam.ID] = exam
	return exam
}

func TestEnterCreatesSession(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, _ := newTestService(f)
	ctx := context.Background()

	sess, err := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if sess.Status != model.SessionStatusActive {
		t.Errorf("status = %s, want ACTIVE", sess.Status)
	}
	if want := baseTime.Add(90 * time.Minute); !sess.EndTime.Equal(want) {
		t.Errorf("end time = %v, want %v", sess.EndTime, want)
	}
	if len(f.audit) != 1 || f.audit[0].Action != model.AuditActionLogin {
		t.Errorf("expected one LOGIN audit entry, got %v", f.audit)
	}
}

func TestEnterSameDeviceResumes(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, now := newTestService(f)
	ctx := context.Background()

	first, err := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if err != nil {
		t.Fatalf("first Enter: %v", err)
	}

	*now = baseTime.Add(10 * time.Minute)
	second, err := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.2", "ua2")
	if err != nil {
		t.Fatalf("second Enter: %v", err)
	}
	if second.ID != first.ID {
		t.Error("resume must reuse the existing session")
	}
	if !second.EndTime.Equal(first.EndTime) {
		t.Errorf("end time moved on re-entry: %v -> %v", first.EndTime, second.EndTime)
	}
}

func TestEnterOtherDeviceWhileActive(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, _ := newTestService(f)
	ctx := context.Background()

	if _, err := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua"); err != nil {
		t.Fatalf("Enter: %v", err)
	}

	_, err := svc.Enter(ctx, exam.ID, 7, "device-b", "10.0.0.2", "ua")
	if !errors.Is(err, ErrDeviceConflict) {
		t.Errorf("err = %v, want ErrDeviceConflict", err)
	}
}

func TestExitThenEnterFromNewDevice(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, now := newTestService(f)
	ctx := context.Background()

	first, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")

	*now = baseTime.Add(20 * time.Minute)
	paused, err := svc.Exit(ctx, 7, "device-a")
	if err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if paused.Status != model.SessionStatusInactive || paused.ExitTime == nil {
		t.Errorf("paused = %+v", paused)
	}

	*now = baseTime.Add(30 * time.Minute)
	resumed, err := svc.Enter(ctx, exam.ID, 7, "device-b", "10.0.0.2", "ua")
	if err != nil {
		t.Fatalf("re-Enter: %v", err)
	}
	if resumed.Status != model.SessionStatusActive || resumed.DeviceID != "device-b" {
		t.Errorf("resumed = %+v", resumed)
	}
	if !resumed.EndTime.Equal(first.EndTime) {
		t.Error("end time must not move across pause/resume")
	}

	// LOGIN, LOGOUT, LOGIN.
	if len(f.audit) != 3 || f.audit[1].Action != model.AuditActionLogout {
		t.Errorf("audit trail = %v", f.audit)
	}
}

func TestEnterOutsideWindow(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	start := baseTime.Add(time.Hour)
	end := baseTime.Add(3 * time.Hour)
	exam.AccessMode = model.AccessModeWindowed
	exam.WindowStart = &start
	exam.WindowEnd = &end
	svc, _ := newTestService(f)

	_, err := svc.Enter(context.Background(), exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if !errors.Is(err, ErrNotInWindow) {
		t.Errorf("err = %v, want ErrNotInWindow", err)
	}
}

func TestEnterAccessDenied(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	f.allow = false
	svc, _ := newTestService(f)

	_, err := svc.Enter(context.Background(), exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}
}

func TestSubmitAndReadBack(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, _ := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")

	a := "A"
	if err := svc.SubmitAnswers(ctx, sess.ID, 7, []model.AnswerInput{
		{Slot: "1", Value: &a},
		{Slot: "2", Value: nil},
	}); err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}

	answers, err := svc.GetAnswers(ctx, sess.ID, 7)
	if err != nil {
		t.Fatalf("GetAnswers: %v", err)
	}
	if v, ok := answers["1"]; !ok || v == nil || *v != "A" {
		t.Errorf("slot 1 = %v", v)
	}
	if v, ok := answers["2"]; !ok || v != nil {
		t.Errorf("slot 2 should be an explicit nil, got %v ok=%v", v, ok)
	}
}

func TestSubmitAfterEndTime(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, now := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")

	*now = baseTime.Add(91 * time.Minute)
	a := "A"
	err := svc.SubmitAnswers(ctx, sess.ID, 7, []model.AnswerInput{{Slot: "1", Value: &a}})
	if !errors.Is(err, ErrTimeUp) {
		t.Fatalf("err = %v, want ErrTimeUp", err)
	}
	if len(f.answers[sess.ID]) != 0 {
		t.Error("rejected submit must not persist anything")
	}
	// The rejection itself must not flip the stored status; expiry is
	// formalized lazily by reads.
	if f.sessions[sess.ID].Status != model.SessionStatusActive {
		t.Errorf("stored status = %s, want ACTIVE", f.sessions[sess.ID].Status)
	}
}

func TestSubmitAfterFinish(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, _ := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if _, err := svc.Finish(ctx, sess.ID, 7); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	a := "A"
	err := svc.SubmitAnswers(ctx, sess.ID, 7, []model.AnswerInput{{Slot: "1", Value: &a}})
	if !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("err = %v, want ErrSessionCompleted", err)
	}
}

func TestSubmitInvalidSlot(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, _ := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")

	a := "A"
	for _, slot := range []string{"0", "-3", "abc", ""} {
		err := svc.SubmitAnswers(ctx, sess.ID, 7, []model.AnswerInput{{Slot: slot, Value: &a}})
		if !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("slot %q: err = %v, want ErrInvalidSlot", slot, err)
		}
	}
}

func TestSubmitStructuredSlotValidation(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	exam.ContentMode = model.ContentModeStructured
	qid := uuid.New().String()
	f.key = map[string]string{qid: "B"}
	svc, _ := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")

	a := "B"
	if err := svc.SubmitAnswers(ctx, sess.ID, 7, []model.AnswerInput{{Slot: qid, Value: &a}}); err != nil {
		t.Fatalf("valid question id rejected: %v", err)
	}
	err := svc.SubmitAnswers(ctx, sess.ID, 7, []model.AnswerInput{{Slot: uuid.New().String(), Value: &a}})
	if !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("err = %v, want ErrInvalidSlot", err)
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, now := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")

	*now = baseTime.Add(time.Hour)
	first, err := svc.Finish(ctx, sess.ID, 7)
	if err != nil {
		t.Fatalf("first Finish: %v", err)
	}
	if first.Status != model.SessionStatusCompleted || first.ExitTime == nil {
		t.Fatalf("first = %+v", first)
	}

	*now = baseTime.Add(time.Hour + time.Minute)
	second, err := svc.Finish(ctx, sess.ID, 7)
	if err != nil {
		t.Fatalf("second Finish: %v", err)
	}
	if second.Status != model.SessionStatusCompleted {
		t.Errorf("second status = %s", second.Status)
	}
	if !second.ExitTime.Equal(*first.ExitTime) {
		t.Error("duplicate finish must not move exit_time")
	}
}

func TestFinishAfterExpiry(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, now := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")

	*now = baseTime.Add(2 * time.Hour)
	_, err := svc.Finish(ctx, sess.ID, 7)
	if !errors.Is(err, ErrTimeUp) {
		t.Errorf("err = %v, want ErrTimeUp", err)
	}
	if f.sessions[sess.ID].Status != model.SessionStatusExpired {
		t.Errorf("stored status = %s, want EXPIRED", f.sessions[sess.ID].Status)
	}
}

func TestEnterAfterCompletion(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, _ := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if _, err := svc.Finish(ctx, sess.ID, 7); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	_, err := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestEnterAfterExpiryFormalizes(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, now := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")

	*now = baseTime.Add(3 * time.Hour)
	_, err := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if !errors.Is(err, ErrTimeUp) {
		t.Errorf("err = %v, want ErrTimeUp", err)
	}
	if f.sessions[sess.ID].Status != model.SessionStatusExpired {
		t.Errorf("stored status = %s, want EXPIRED", f.sessions[sess.ID].Status)
	}
}

func TestGetAnswersExpired(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, now := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")

	*now = baseTime.Add(2 * time.Hour)
	_, err := svc.GetAnswers(ctx, sess.ID, 7)
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
}

func TestSessionOwnership(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, _ := newTestService(f)
	ctx := context.Background()

	sess, _ := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")

	if _, err := svc.GetAnswers(ctx, sess.ID, 8); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign GetAnswers err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Finish(ctx, sess.ID, 8); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign Finish err = %v, want ErrNotFound", err)
	}
}

// racingStore loses the create race: CreateActive reports the unique
// constraint hit and, when a winner is staged, plants the winner's row in the
// underlying store the way a concurrent insert between read and insert would.
type racingStore struct {
	sessionStoreAdapter
	winner    *model.Session
	conflicts int
}

func (r *racingStore) CreateActive(ctx context.Context, s *model.Session) error {
	r.conflicts++
	if r.winner != nil {
		cp := *r.winner
		r.fakeStore.sessions[cp.ID] = &cp
		r.winner = nil
	}
	return pgx.ErrNoRows
}

func TestEnterResolvesLostCreateRace(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	winner := &model.Session{
		ID:        uuid.New(),
		ExamID:    exam.ID,
		StudentID: 7,
		Status:    model.SessionStatusActive,
		EntryTime: baseTime,
		EndTime:   baseTime.Add(90 * time.Minute),
		DeviceID:  "device-a",
	}
	rs := &racingStore{sessionStoreAdapter: sessionStoreAdapter{f}, winner: winner}
	svc := NewSessionService(f, rs, f, f, f, f, zerolog.Nop())
	svc.now = func() time.Time { return baseTime }

	// A retried request whose first attempt committed server-side: the
	// insert collides with its own row and must resolve against it.
	sess, err := svc.Enter(context.Background(), exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if sess.ID != winner.ID {
		t.Errorf("session ID = %s, want winner %s", sess.ID, winner.ID)
	}
	if !sess.EndTime.Equal(winner.EndTime) {
		t.Errorf("end time = %v, want winner's %v", sess.EndTime, winner.EndTime)
	}
	if rs.conflicts != 1 {
		t.Errorf("conflicts = %d, want 1", rs.conflicts)
	}
}

func TestEnterLostCreateRaceToOtherDevice(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	winner := &model.Session{
		ID:        uuid.New(),
		ExamID:    exam.ID,
		StudentID: 7,
		Status:    model.SessionStatusActive,
		EntryTime: baseTime,
		EndTime:   baseTime.Add(90 * time.Minute),
		DeviceID:  "device-b",
	}
	rs := &racingStore{sessionStoreAdapter: sessionStoreAdapter{f}, winner: winner}
	svc := NewSessionService(f, rs, f, f, f, f, zerolog.Nop())
	svc.now = func() time.Time { return baseTime }

	_, err := svc.Enter(context.Background(), exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if !errors.Is(err, ErrDeviceConflict) {
		t.Errorf("err = %v, want ErrDeviceConflict", err)
	}
}

func TestEnterKeepsLosingCreateRace(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	rs := &racingStore{sessionStoreAdapter: sessionStoreAdapter{f}}
	svc := NewSessionService(f, rs, f, f, f, f, zerolog.Nop())
	svc.now = func() time.Time { return baseTime }

	// The winning row never becomes visible, so every attempt re-collides.
	_, err := svc.Enter(context.Background(), exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if !errors.Is(err, ErrDeviceConflict) {
		t.Errorf("err = %v, want ErrDeviceConflict", err)
	}
	if rs.conflicts != 2 {
		t.Errorf("conflicts = %d, want 2", rs.conflicts)
	}
}

func TestFinishByExam(t *testing.T) {
	f := newFakeStore()
	exam := addExam(f, 90)
	svc, now := newTestService(f)
	ctx := context.Background()

	entered, err := svc.Enter(ctx, exam.ID, 7, "device-a", "10.0.0.1", "ua")
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}

	*now = baseTime.Add(30 * time.Minute)
	done, err := svc.FinishByExam(ctx, exam.ID, 7)
	if err != nil {
		t.Fatalf("FinishByExam: %v", err)
	}
	if done.ID != entered.ID {
		t.Errorf("finished session = %s, want %s", done.ID, entered.ID)
	}
	if done.Status != model.SessionStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", done.Status)
	}

	*now = baseTime.Add(40 * time.Minute)
	again, err := svc.FinishByExam(ctx, exam.ID, 7)
	if err != nil {
		t.Fatalf("repeat FinishByExam: %v", err)
	}
	if !again.ExitTime.Equal(*done.ExitTime) {
		t.Errorf("exit time moved on repeat finish: %v -> %v", done.ExitTime, again.ExitTime)
	}

	if _, err := svc.FinishByExam(ctx, uuid.New(), 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown exam err = %v, want ErrNotFound", err)
	}
	if _, err := svc.FinishByExam(ctx, exam.ID, 8); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign student err = %v, want ErrNotFound", err)
	}
}
