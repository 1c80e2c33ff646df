package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ilfen-assessment/internal/certificate"
	"ilfen-assessment/internal/domain"
	"ilfen-assessment/internal/email"
)

type mockTraitRepo struct {
	traits map[domain.Variant][]domain.Trait
	calls  int
}

func (m *mockTraitRepo) ListActive(_ context.Context, variant domain.Variant) ([]domain.Trait, error) {
	m.calls++
	return m.traits[variant], nil
}

type mockRegistrationRepo struct {
	byID  map[string]domain.Registration
	byKey map[string]string
}

func newMockRegistrationRepo() *mockRegistrationRepo {
	return &mockRegistrationRepo{byID: make(map[string]domain.Registration), byKey: make(map[string]string)}
}

func (m *mockRegistrationRepo) Upsert(_ context.Context, reg domain.Registration) (domain.Registration, error) {
	key := reg.Variant.String() + "|" + reg.Email
	if id, ok := m.byKey[key]; ok {
		existing := m.byID[id]
		existing.Name = reg.Name
		m.byID[id] = existing
		return existing, nil
	}
	m.byKey[key] = reg.ID
	m.byID[reg.ID] = reg
	return reg, nil
}

func (m *mockRegistrationRepo) GetByID(_ context.Context, id string) (domain.Registration, error) {
	reg, ok := m.byID[id]
	if !ok {
		return domain.Registration{}, pgx.ErrNoRows
	}
	return reg, nil
}

func (m *mockRegistrationRepo) MarkTaken(_ context.Context, id string) error {
	reg, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	reg.HasTakenTest = true
	m.byID[id] = reg
	return nil
}

type mockSessionRepo struct {
	byID  map[string]domain.Session
	byReg map[string]string
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{byID: make(map[string]domain.Session), byReg: make(map[string]string)}
}

func (m *mockSessionRepo) GetOrCreate(_ context.Context, session domain.Session) (domain.Session, error) {
	if id, ok := m.byReg[session.RegistrationID]; ok {
		return m.byID[id], nil
	}
	m.byReg[session.RegistrationID] = session.ID
	m.byID[session.ID] = session
	return session, nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (domain.Session, error) {
	s, ok := m.byID[id]
	if !ok {
		return domain.Session{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockSessionRepo) Complete(_ context.Context, id string, answers domain.AnswerMap, completedAt time.Time) error {
	s, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if s.IsCompleted {
		return domain.ErrSessionAlreadyCompleted
	}
	s.Answers = answers
	s.CompletedAt = &completedAt
	s.IsCompleted = true
	m.byID[id] = s
	return nil
}

type mockResultRepo struct {
	bySession   map[string]domain.FinalResult
	upserts     int
	failUpserts int
}

func newMockResultRepo() *mockResultRepo {
	return &mockResultRepo{bySession: make(map[string]domain.FinalResult)}
}

func (m *mockResultRepo) Upsert(_ context.Context, result domain.FinalResult) (domain.FinalResult, error) {
	if m.failUpserts > 0 {
		m.failUpserts--
		return domain.FinalResult{}, errors.New("connection reset")
	}
	m.upserts++
	if existing, ok := m.bySession[result.SessionID]; ok {
		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
		result.CertificatePath = existing.CertificatePath
	}
	m.bySession[result.SessionID] = result
	return result, nil
}

func (m *mockResultRepo) GetBySessionID(_ context.Context, sessionID string) (domain.FinalResult, error) {
	r, ok := m.bySession[sessionID]
	if !ok {
		return domain.FinalResult{}, pgx.ErrNoRows
	}
	return r, nil
}

func (m *mockResultRepo) UpdateCertificatePath(_ context.Context, id, path string) error {
	for sid, r := range m.bySession {
		if r.ID == id {
			r.CertificatePath = path
			m.bySession[sid] = r
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeRenderer struct {
	root     string
	renders  int
	err      error
	requests []certificate.Request
}

func (f *fakeRenderer) Render(variant domain.Variant, req certificate.Request) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.renders++
	f.requests = append(f.requests, req)
	rel := fmt.Sprintf("certificates/%s_%s_%d.png", variant, req.RegistrationID, f.renders)
	abs := f.AbsPath(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, []byte("png"), 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

func (f *fakeRenderer) AbsPath(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

type fakeNotifier struct {
	notices []email.ResultNotice
	err     error
}

func (f *fakeNotifier) SendResultReady(_ context.Context, notice email.ResultNotice) error {
	f.notices = append(f.notices, notice)
	return f.err
}

type busyGuard struct{}

func (busyGuard) Acquire(string) (func(), bool) { return noopRelease, false }

type testServiceFixture struct {
	svc      *TestService
	traits   *mockTraitRepo
	regs     *mockRegistrationRepo
	sessions *mockSessionRepo
	results  *mockResultRepo
	renderer *fakeRenderer
	notifier *fakeNotifier
	clock    time.Time
}

func newTestServiceFixture(t *testing.T) *testServiceFixture {
	t.Helper()
	f := &testServiceFixture{
		traits: &mockTraitRepo{traits: map[domain.Variant][]domain.Trait{
			domain.VariantAdult:  {buildTrait("a", "60", 2, 0), buildTrait("b", "40", 1, 1)},
			domain.VariantJunior: {buildTrait("j", "1", 2, 0)},
		}},
		regs:     newMockRegistrationRepo(),
		sessions: newMockSessionRepo(),
		results:  newMockResultRepo(),
		renderer: &fakeRenderer{root: t.TempDir()},
		notifier: &fakeNotifier{},
		clock:    time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewTestService(TestServiceDeps{
		Traits:        f.traits,
		Registrations: f.regs,
		Sessions:      f.sessions,
		Results:       f.results,
		Renderer:      f.renderer,
		Cache:         NewMemoryTraitConfigCache(time.Minute),
		Notifier:      f.notifier,
	}, zap.NewNop())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *testServiceFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func adultAnswers() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{"a1": d("2"), "a2": d("2"), "b1": d("1")}
}

func TestTestService_NotConfigured(t *testing.T) {
	var nilSvc *TestService
	if _, err := nilSvc.Questions(context.Background(), domain.VariantAdult); !errors.Is(err, ErrTestServiceNotConfigured) {
		t.Fatalf("expected ErrTestServiceNotConfigured, got %v", err)
	}
	svc := NewTestService(TestServiceDeps{}, zap.NewNop())
	if _, _, err := svc.Register(context.Background(), domain.VariantAdult, "n", "a@b.co"); !errors.Is(err, ErrTestServiceNotConfigured) {
		t.Fatalf("expected ErrTestServiceNotConfigured, got %v", err)
	}
}

func TestTestService_RegisterValidation(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	cases := []struct{ name, email string }{
		{"", "a@b.co"},
		{"Sara", "   "},
		{"Sara", "not-an-email"},
	}
	for _, tc := range cases {
		if _, _, err := f.svc.Register(ctx, domain.VariantAdult, tc.name, tc.email); !errors.Is(err, ErrTestServiceInvalidInput) {
			t.Fatalf("%q/%q: expected ErrTestServiceInvalidInput, got %v", tc.name, tc.email, err)
		}
	}
}

func TestTestService_RegisterReusesRegistration(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()

	reg1, s1, err := f.svc.Register(ctx, domain.VariantAdult, "Sara", " Sara@Example.com ")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg1.Email != "sara@example.com" {
		t.Fatalf("expected normalized email, got %q", reg1.Email)
	}
	if !s1.StartedAt.Equal(f.clock) {
		t.Fatalf("expected session start at clock, got %v", s1.StartedAt)
	}

	f.advance(time.Minute)
	reg2, s2, err := f.svc.Register(ctx, domain.VariantAdult, "Sara Ali", "sara@example.com")
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if reg2.ID != reg1.ID || s2.ID != s1.ID {
		t.Fatalf("expected same registration and session, got %s/%s vs %s/%s", reg2.ID, s2.ID, reg1.ID, s1.ID)
	}
	if reg2.Name != "Sara Ali" {
		t.Fatalf("expected updated name, got %q", reg2.Name)
	}

	reg3, _, err := f.svc.Register(ctx, domain.VariantJunior, "Sara", "sara@example.com")
	if err != nil {
		t.Fatalf("junior register: %v", err)
	}
	if reg3.ID == reg1.ID {
		t.Fatalf("variants must keep separate registrations")
	}
}

func TestTestService_FinalizeTest(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()

	reg, session, err := f.svc.Register(ctx, domain.VariantAdult, "Sara", "sara@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	f.advance(7*time.Minute + 30*time.Second)

	raw := adultAnswers()
	raw["unknown"] = d("2")
	view, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, raw)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if view.Result.TotalScore.StringFixed(2) != "80.00" {
		t.Fatalf("expected 80.00, got %s", view.Result.TotalScore.StringFixed(2))
	}
	if view.Recommendations.OverallLevel.Key != "excellent" {
		t.Fatalf("expected excellent, got %s", view.Recommendations.OverallLevel.Key)
	}
	if view.TimeTaken != "7 د 30 ث" {
		t.Fatalf("unexpected time taken %q", view.TimeTaken)
	}
	if view.Result.CertificatePath == "" {
		t.Fatalf("expected certificate path")
	}

	stored := f.sessions.byID[session.ID]
	if !stored.IsCompleted || len(stored.Answers) != 3 {
		t.Fatalf("expected completed session with 3 answers, got %+v", stored)
	}
	if _, ok := stored.Answers["unknown"]; ok {
		t.Fatalf("unknown answers must not be stored")
	}
	if !f.regs.byID[reg.ID].HasTakenTest {
		t.Fatalf("expected registration to be marked as taken")
	}
	if f.results.bySession[session.ID].CertificatePath != view.Result.CertificatePath {
		t.Fatalf("expected certificate path to be stored")
	}

	if f.renderer.renders != 1 {
		t.Fatalf("expected one render, got %d", f.renderer.renders)
	}
	req := f.renderer.requests[0]
	if req.RegistrantName != "Sara" || req.RegistrationID != reg.ID || !req.SessionStartedAt.Equal(session.StartedAt) {
		t.Fatalf("unexpected render request: %+v", req)
	}

	if len(f.notifier.notices) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.notices))
	}
	notice := f.notifier.notices[0]
	if notice.Score != 80 || notice.ToEmail != "sara@example.com" || notice.IsJunior {
		t.Fatalf("unexpected notice: %+v", notice)
	}

	if _, _, err := f.svc.Register(ctx, domain.VariantAdult, "Sara", "sara@example.com"); !errors.Is(err, ErrTestAlreadyTaken) {
		t.Fatalf("expected ErrTestAlreadyTaken, got %v", err)
	}
}

func TestTestService_FinalizeTwice(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	_, session, err := f.svc.Register(ctx, domain.VariantAdult, "Sara", "sara@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, adultAnswers()); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, adultAnswers()); !errors.Is(err, domain.ErrSessionAlreadyCompleted) {
		t.Fatalf("expected ErrSessionAlreadyCompleted, got %v", err)
	}
	if f.results.upserts != 1 {
		t.Fatalf("expected a single stored result, got %d", f.results.upserts)
	}
}

func TestTestService_FinalizeRejectsOtherVariantAndBusy(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	_, session, err := f.svc.Register(ctx, domain.VariantAdult, "Sara", "sara@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.svc.FinalizeTest(ctx, domain.VariantJunior, session.ID, nil); !errors.Is(err, ErrVariantMismatch) {
		t.Fatalf("expected ErrVariantMismatch, got %v", err)
	}
	if _, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, "missing", nil); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}

	f.svc.guard = busyGuard{}
	if _, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, nil); !errors.Is(err, ErrFinalizeInProgress) {
		t.Fatalf("expected ErrFinalizeInProgress, got %v", err)
	}
	if f.sessions.byID[session.ID].IsCompleted {
		t.Fatalf("busy finalize must not touch the session")
	}
}

func TestTestService_FinalizeRenderFailure(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	_, session, err := f.svc.Register(ctx, domain.VariantAdult, "Sara", "sara@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	f.renderer.err = fmt.Errorf("%w: static/images/missing.png", certificate.ErrTemplateNotFound)

	_, err = f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, adultAnswers())
	if !errors.Is(err, certificate.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if _, ok := f.results.bySession[session.ID]; !ok {
		t.Fatalf("expected score to be stored even when rendering fails")
	}
	if len(f.notifier.notices) != 0 {
		t.Fatalf("no notification expected on failure")
	}

	// The certificate can still be produced once the template is back.
	f.renderer.err = nil
	path, _, err := f.svc.EnsureCertificate(ctx, domain.VariantAdult, session.ID)
	if err != nil {
		t.Fatalf("ensure certificate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected certificate file: %v", err)
	}
}

func TestTestService_NotifierErrorsDoNotFail(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	f.notifier.err = errors.New("smtp down")
	_, session, err := f.svc.Register(ctx, domain.VariantAdult, "Sara", "sara@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, adultAnswers()); err != nil {
		t.Fatalf("expected finalize to ignore notifier errors, got %v", err)
	}

	f.svc.notifier = email.NewDisabledSender("off")
	_, other, err := f.svc.Register(ctx, domain.VariantJunior, "Omar", "omar@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.svc.FinalizeTest(ctx, domain.VariantJunior, other.ID, nil); err != nil {
		t.Fatalf("expected finalize with disabled sender, got %v", err)
	}
}

func TestTestService_EnsureCertificate(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	_, session, err := f.svc.Register(ctx, domain.VariantJunior, "Omar", "omar@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := f.svc.EnsureCertificate(ctx, domain.VariantJunior, session.ID); !errors.Is(err, ErrSessionNotCompleted) {
		t.Fatalf("expected ErrSessionNotCompleted, got %v", err)
	}

	view, err := f.svc.FinalizeTest(ctx, domain.VariantJunior, session.ID, map[string]decimal.Decimal{"j1": d("2")})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	path, reg, err := f.svc.EnsureCertificate(ctx, domain.VariantJunior, session.ID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if path != f.renderer.AbsPath(view.Result.CertificatePath) || reg.Name != "Omar" {
		t.Fatalf("expected stored certificate, got %s (%s)", path, reg.Name)
	}
	if f.renderer.renders != 1 {
		t.Fatalf("existing certificate must not be rendered again")
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	regenerated, _, err := f.svc.EnsureCertificate(ctx, domain.VariantJunior, session.ID)
	if err != nil {
		t.Fatalf("ensure after delete: %v", err)
	}
	if f.renderer.renders != 2 || regenerated == path {
		t.Fatalf("expected a fresh certificate, renders=%d path=%s", f.renderer.renders, regenerated)
	}
	if _, err := os.Stat(regenerated); err != nil {
		t.Fatalf("expected regenerated file: %v", err)
	}
}

func TestTestService_GetResult(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	_, session, err := f.svc.Register(ctx, domain.VariantJunior, "Omar", "omar@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.svc.GetResult(ctx, domain.VariantJunior, session.ID); !errors.Is(err, ErrSessionNotCompleted) {
		t.Fatalf("expected ErrSessionNotCompleted, got %v", err)
	}

	f.advance(4*time.Minute + 5*time.Second)
	if _, err := f.svc.FinalizeTest(ctx, domain.VariantJunior, session.ID, map[string]decimal.Decimal{"j1": d("1")}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	view, err := f.svc.GetResult(ctx, domain.VariantJunior, session.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if view.Result.TotalScore.StringFixed(2) != "25.00" {
		t.Fatalf("expected 25.00, got %s", view.Result.TotalScore.StringFixed(2))
	}
	if view.TimeTaken != "4:05" {
		t.Fatalf("expected junior duration 4:05, got %q", view.TimeTaken)
	}
	if view.Recommendations.OverallLevel.Key != "needs_development" {
		t.Fatalf("unexpected level %s", view.Recommendations.OverallLevel.Key)
	}
	if _, err := f.svc.GetResult(ctx, domain.VariantAdult, session.ID); !errors.Is(err, ErrVariantMismatch) {
		t.Fatalf("expected ErrVariantMismatch, got %v", err)
	}
}

func TestTestService_QuestionsUseCache(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		questions, err := f.svc.Questions(ctx, domain.VariantAdult)
		if err != nil {
			t.Fatalf("questions: %v", err)
		}
		if len(questions) != 3 || questions[0].ID != "a1" {
			t.Fatalf("unexpected questions: %+v", questions)
		}
	}
	if f.traits.calls != 1 {
		t.Fatalf("expected one repository read, got %d", f.traits.calls)
	}
}

func TestTestService_Rescore(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	_, session, err := f.svc.Register(ctx, domain.VariantAdult, "Sara", "sara@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.svc.Rescore(ctx, session.ID); !errors.Is(err, ErrSessionNotCompleted) {
		t.Fatalf("expected ErrSessionNotCompleted, got %v", err)
	}
	first, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, adultAnswers())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// Equal weights: (1.0 + 0.5) / 2 = 75.
	f.svc.cache = nil
	f.traits.traits[domain.VariantAdult][0].Weight = d("50")
	f.traits.traits[domain.VariantAdult][1].Weight = d("50")

	rescored, err := f.svc.Rescore(ctx, session.ID)
	if err != nil {
		t.Fatalf("rescore: %v", err)
	}
	if rescored.TotalScore.StringFixed(2) != "75.00" {
		t.Fatalf("expected 75.00, got %s", rescored.TotalScore.StringFixed(2))
	}
	if rescored.ID != first.Result.ID || rescored.CertificatePath != first.Result.CertificatePath {
		t.Fatalf("rescore must keep identity and certificate")
	}
}

func TestTestService_FinalizeRetryAfterStoreFailure(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	reg, session, err := f.svc.Register(ctx, domain.VariantAdult, "Sara", "sara@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	f.results.failUpserts = 1
	if _, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, adultAnswers()); err == nil {
		t.Fatalf("expected store failure")
	}
	if !f.sessions.byID[session.ID].IsCompleted {
		t.Fatalf("answers should already be committed")
	}

	// El reintento usa las respuestas guardadas, no las nuevas.
	zero := map[string]decimal.Decimal{"a1": d("0"), "a2": d("0"), "b1": d("0")}
	view, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, zero)
	if err != nil {
		t.Fatalf("retry finalize: %v", err)
	}
	if view.Result.TotalScore.StringFixed(2) != "80.00" {
		t.Fatalf("expected 80.00 from stored answers, got %s", view.Result.TotalScore.StringFixed(2))
	}
	if view.Result.CertificatePath == "" || f.renderer.renders != 1 {
		t.Fatalf("expected one certificate, got path %q renders %d", view.Result.CertificatePath, f.renderer.renders)
	}
	if !f.regs.byID[reg.ID].HasTakenTest {
		t.Fatalf("registration should be marked taken")
	}

	if _, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, adultAnswers()); !errors.Is(err, domain.ErrSessionAlreadyCompleted) {
		t.Fatalf("expected ErrSessionAlreadyCompleted once stored, got %v", err)
	}
}

func TestTestService_ReadsRecoverMissingResult(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	_, session, err := f.svc.Register(ctx, domain.VariantAdult, "Sara", "sara@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	f.results.failUpserts = 1
	if _, err := f.svc.FinalizeTest(ctx, domain.VariantAdult, session.ID, adultAnswers()); err == nil {
		t.Fatalf("expected store failure")
	}

	view, err := f.svc.GetResult(ctx, domain.VariantAdult, session.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if view.Result.TotalScore.StringFixed(2) != "80.00" {
		t.Fatalf("expected 80.00, got %s", view.Result.TotalScore.StringFixed(2))
	}

	path, _, err := f.svc.EnsureCertificate(ctx, domain.VariantAdult, session.ID)
	if err != nil {
		t.Fatalf("certificate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("certificate file missing: %v", err)
	}
	if f.results.upserts != 1 {
		t.Fatalf("expected a single stored result, got %d upserts", f.results.upserts)
	}
}

func TestFormatTimeTaken(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(65*time.Minute + 9*time.Second)

	adult := domain.Session{Variant: domain.VariantAdult, StartedAt: start, CompletedAt: &end}
	if got := FormatTimeTaken(adult); got != "65 د 9 ث" {
		t.Fatalf("unexpected adult format %q", got)
	}
	junior := domain.Session{Variant: domain.VariantJunior, StartedAt: start, CompletedAt: &end}
	if got := FormatTimeTaken(junior); got != "65:09" {
		t.Fatalf("unexpected junior format %q", got)
	}
	open := domain.Session{Variant: domain.VariantJunior, StartedAt: start}
	if got := FormatTimeTaken(open); got != "0:00" {
		t.Fatalf("unexpected open session format %q", got)
	}
}
