package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ilfen-assessment/internal/certificate"
	"ilfen-assessment/internal/domain"
	"ilfen-assessment/internal/email"
	"ilfen-assessment/internal/repository"
)

// CertificateRenderer is the part of certificate.Renderer the test flow needs.
type CertificateRenderer interface {
	Render(variant domain.Variant, req certificate.Request) (string, error)
	AbsPath(relPath string) string
}

// TestService orchestrates registration, scoring and certificates for both test variants.
type TestService struct {
	traits        repository.TraitRepository
	registrations repository.RegistrationRepository
	sessions      repository.SessionRepository
	results       repository.ResultRepository
	renderer      CertificateRenderer
	cache         TraitConfigCache
	guard         FinalizeGuard
	notifier      email.Sender
	engine        ScoringEngine
	logger        *zap.Logger
	now           func() time.Time
}

var (
	ErrTestServiceNotConfigured = errors.New("test service not configured")
	ErrTestServiceInvalidInput  = errors.New("test service invalid input")
	ErrTestAlreadyTaken         = errors.New("test already taken for this email")
	ErrFinalizeInProgress       = errors.New("test session is being finalized")
	ErrSessionNotCompleted      = errors.New("test session not completed")
	ErrVariantMismatch          = errors.New("test session belongs to another variant")
)

// TestServiceDeps agrupa las dependencias; cache, guard y notifier son opcionales.
type TestServiceDeps struct {
	Traits        repository.TraitRepository
	Registrations repository.RegistrationRepository
	Sessions      repository.SessionRepository
	Results       repository.ResultRepository
	Renderer      CertificateRenderer
	Cache         TraitConfigCache
	Guard         FinalizeGuard
	Notifier      email.Sender
}

func NewTestService(deps TestServiceDeps, logger *zap.Logger) *TestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	guard := deps.Guard
	if guard == nil {
		guard = NewMemoryFinalizeGuard()
	}
	return &TestService{
		traits:        deps.Traits,
		registrations: deps.Registrations,
		sessions:      deps.Sessions,
		results:       deps.Results,
		renderer:      deps.Renderer,
		cache:         deps.Cache,
		guard:         guard,
		notifier:      deps.Notifier,
		engine:        DefaultScoringEngine,
		logger:        logger,
		now:           time.Now,
	}
}

// ResultView is everything the result page and API show for a completed session.
type ResultView struct {
	Registration    domain.Registration
	Session         domain.Session
	Result          domain.FinalResult
	Recommendations Recommendations
	TimeTaken       string
}

// AnswerChoice is one Likert option shown on the test form.
type AnswerChoice struct {
	Value decimal.Decimal `json:"value"`
	Label string          `json:"label"`
}

// AnswerChoices returns the five options from strongest agreement to strongest disagreement.
func AnswerChoices() []AnswerChoice {
	return []AnswerChoice{
		{Value: decimal.NewFromInt(2), Label: "ينطبق تماما"},
		{Value: decimal.NewFromFloat(1.5), Label: "ينطبق نوعا ما"},
		{Value: decimal.NewFromInt(1), Label: "محايد (لست متأكدا)"},
		{Value: decimal.NewFromFloat(0.5), Label: "لا ينطبق نوعا ما"},
		{Value: decimal.Zero, Label: "لا ينطبق إطلاقا"},
	}
}

func (s *TestService) ready() bool {
	return s != nil && s.traits != nil && s.registrations != nil && s.sessions != nil &&
		s.results != nil && s.renderer != nil
}

// Register creates (or reuses) the registration for the email and returns its session.
// Each email can take each variant only once.
func (s *TestService) Register(ctx context.Context, variant domain.Variant, name, emailAddr string) (domain.Registration, domain.Session, error) {
	if !s.ready() {
		return domain.Registration{}, domain.Session{}, ErrTestServiceNotConfigured
	}
	name = strings.TrimSpace(name)
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if name == "" || emailAddr == "" {
		return domain.Registration{}, domain.Session{}, ErrTestServiceInvalidInput
	}
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return domain.Registration{}, domain.Session{}, ErrTestServiceInvalidInput
	}

	now := s.now().UTC()
	reg, err := s.registrations.Upsert(ctx, domain.Registration{
		ID:        uuid.NewString(),
		Variant:   variant,
		Name:      name,
		Email:     emailAddr,
		CreatedAt: now,
	})
	if err != nil {
		return domain.Registration{}, domain.Session{}, fmt.Errorf("upsert registration: %w", err)
	}
	if reg.HasTakenTest {
		return reg, domain.Session{}, ErrTestAlreadyTaken
	}

	session, err := s.sessions.GetOrCreate(ctx, domain.Session{
		ID:             uuid.NewString(),
		RegistrationID: reg.ID,
		Variant:        variant,
		StartedAt:      now,
	})
	if err != nil {
		return domain.Registration{}, domain.Session{}, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("test registration ready",
		zap.String("variant", variant.String()),
		zap.String("registration_id", reg.ID),
		zap.String("session_id", session.ID),
	)
	return reg, session, nil
}

// Questions returns the active questions of the variant in display order.
func (s *TestService) Questions(ctx context.Context, variant domain.Variant) ([]domain.Question, error) {
	if !s.ready() {
		return nil, ErrTestServiceNotConfigured
	}
	traits, err := s.loadTraits(ctx, variant)
	if err != nil {
		return nil, err
	}
	return s.engine.ActiveQuestions(traits), nil
}

// FinalizeTest stores the submitted answers, scores the session and renders the certificate.
// A session can be finalized once; a second call gets domain.ErrSessionAlreadyCompleted.
// A completed session whose result was never stored is finished from its saved answers.
func (s *TestService) FinalizeTest(ctx context.Context, variant domain.Variant, sessionID string, raw map[string]decimal.Decimal) (ResultView, error) {
	if !s.ready() {
		return ResultView{}, ErrTestServiceNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ResultView{}, ErrTestServiceInvalidInput
	}

	release, ok := s.guard.Acquire(sessionID)
	if !ok {
		return ResultView{}, ErrFinalizeInProgress
	}
	defer release()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return ResultView{}, fmt.Errorf("load session: %w", err)
	}
	if session.Variant != variant {
		return ResultView{}, ErrVariantMismatch
	}
	if session.IsCompleted {
		return s.resumeFinalize(ctx, session)
	}

	traits, err := s.loadTraits(ctx, variant)
	if err != nil {
		return ResultView{}, err
	}

	answers := s.engine.NormalizeAnswers(s.engine.ActiveQuestions(traits), raw)
	completedAt := s.now().UTC()
	if err := s.sessions.Complete(ctx, sessionID, answers, completedAt); err != nil {
		return ResultView{}, fmt.Errorf("complete session: %w", err)
	}
	session.Answers = answers
	session.CompletedAt = &completedAt
	session.IsCompleted = true

	return s.finish(ctx, session, func() (domain.FinalResult, error) {
		return s.scoreAndStore(ctx, traits, session)
	})
}

// resumeFinalize picks up a session that was completed by an earlier call that failed before
// its result was stored.
func (s *TestService) resumeFinalize(ctx context.Context, session domain.Session) (ResultView, error) {
	_, err := s.results.GetBySessionID(ctx, session.ID)
	if err == nil {
		return ResultView{}, domain.ErrSessionAlreadyCompleted
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ResultView{}, fmt.Errorf("load result: %w", err)
	}
	s.logger.Warn("completed session has no result, finishing from stored answers",
		zap.String("session_id", session.ID),
	)
	return s.finish(ctx, session, func() (domain.FinalResult, error) {
		return s.Rescore(ctx, session.ID)
	})
}

// finish runs the steps after the answers are committed: registration, scoring,
// certificate and notice.
func (s *TestService) finish(ctx context.Context, session domain.Session, score func() (domain.FinalResult, error)) (ResultView, error) {
	reg, err := s.registrations.GetByID(ctx, session.RegistrationID)
	if err != nil {
		return ResultView{}, fmt.Errorf("load registration: %w", err)
	}
	if err := s.registrations.MarkTaken(ctx, reg.ID); err != nil {
		return ResultView{}, fmt.Errorf("mark registration taken: %w", err)
	}
	reg.HasTakenTest = true

	result, err := score()
	if err != nil {
		return ResultView{}, err
	}

	result, err = s.renderAndStore(ctx, reg, session, result)
	if err != nil {
		return ResultView{}, err
	}

	view := s.buildView(reg, session, result)
	s.notify(ctx, reg, view)

	s.logger.Info("test finalized",
		zap.String("variant", session.Variant.String()),
		zap.String("session_id", session.ID),
		zap.String("total_score", result.TotalScore.StringFixed(2)),
		zap.Int("traits_scored", len(result.TraitScores)),
	)
	return view, nil
}

// Rescore recomputes the stored result of a completed session against the current trait
// configuration and overwrites it. The certificate path is kept.
func (s *TestService) Rescore(ctx context.Context, sessionID string) (domain.FinalResult, error) {
	if !s.ready() {
		return domain.FinalResult{}, ErrTestServiceNotConfigured
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.FinalResult{}, fmt.Errorf("load session: %w", err)
	}
	if !session.IsCompleted {
		return domain.FinalResult{}, ErrSessionNotCompleted
	}
	traits, err := s.loadTraits(ctx, session.Variant)
	if err != nil {
		return domain.FinalResult{}, err
	}
	return s.scoreAndStore(ctx, traits, session)
}

// GetResult loads the stored result of a completed session.
func (s *TestService) GetResult(ctx context.Context, variant domain.Variant, sessionID string) (ResultView, error) {
	if !s.ready() {
		return ResultView{}, ErrTestServiceNotConfigured
	}
	session, reg, result, err := s.loadCompleted(ctx, variant, sessionID)
	if err != nil {
		return ResultView{}, err
	}
	return s.buildView(reg, session, result), nil
}

// EnsureCertificate returns the absolute path of the session's certificate, rendering a new
// one only when none was stored or the stored file is gone.
func (s *TestService) EnsureCertificate(ctx context.Context, variant domain.Variant, sessionID string) (string, domain.Registration, error) {
	if !s.ready() {
		return "", domain.Registration{}, ErrTestServiceNotConfigured
	}
	session, reg, result, err := s.loadCompleted(ctx, variant, sessionID)
	if err != nil {
		return "", domain.Registration{}, err
	}

	if result.CertificatePath != "" {
		abs := s.renderer.AbsPath(result.CertificatePath)
		if _, statErr := os.Stat(abs); statErr == nil {
			return abs, reg, nil
		}
		s.logger.Warn("stored certificate missing, regenerating",
			zap.String("session_id", sessionID),
			zap.String("path", result.CertificatePath),
		)
	}

	result, err = s.renderAndStore(ctx, reg, session, result)
	if err != nil {
		return "", domain.Registration{}, err
	}
	return s.renderer.AbsPath(result.CertificatePath), reg, nil
}

func (s *TestService) loadCompleted(ctx context.Context, variant domain.Variant, sessionID string) (domain.Session, domain.Registration, domain.FinalResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Session{}, domain.Registration{}, domain.FinalResult{}, fmt.Errorf("load session: %w", err)
	}
	if session.Variant != variant {
		return domain.Session{}, domain.Registration{}, domain.FinalResult{}, ErrVariantMismatch
	}
	if !session.IsCompleted {
		return domain.Session{}, domain.Registration{}, domain.FinalResult{}, ErrSessionNotCompleted
	}
	reg, err := s.registrations.GetByID(ctx, session.RegistrationID)
	if err != nil {
		return domain.Session{}, domain.Registration{}, domain.FinalResult{}, fmt.Errorf("load registration: %w", err)
	}
	result, err := s.results.GetBySessionID(ctx, session.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Warn("completed session has no result, rescoring", zap.String("session_id", session.ID))
		if err := s.registrations.MarkTaken(ctx, reg.ID); err != nil {
			return domain.Session{}, domain.Registration{}, domain.FinalResult{}, fmt.Errorf("mark registration taken: %w", err)
		}
		reg.HasTakenTest = true
		result, err = s.Rescore(ctx, session.ID)
	}
	if err != nil {
		return domain.Session{}, domain.Registration{}, domain.FinalResult{}, fmt.Errorf("load result: %w", err)
	}
	return session, reg, result, nil
}

func (s *TestService) loadTraits(ctx context.Context, variant domain.Variant) ([]domain.Trait, error) {
	if s.cache != nil {
		if traits, ok := s.cache.Get(variant); ok {
			return traits, nil
		}
	}
	traits, err := s.traits.ListActive(ctx, variant)
	if err != nil {
		return nil, fmt.Errorf("load traits: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(variant, traits)
	}
	return traits, nil
}

func (s *TestService) scoreAndStore(ctx context.Context, traits []domain.Trait, session domain.Session) (domain.FinalResult, error) {
	result := s.engine.ComputeResult(traits, session)
	result.ID = uuid.NewString()
	result.CreatedAt = s.now().UTC()

	stored, err := s.results.Upsert(ctx, result)
	if err != nil {
		return domain.FinalResult{}, fmt.Errorf("store result: %w", err)
	}
	return stored, nil
}

func (s *TestService) renderAndStore(ctx context.Context, reg domain.Registration, session domain.Session, result domain.FinalResult) (domain.FinalResult, error) {
	path, err := s.renderer.Render(session.Variant, certificate.Request{
		RegistrationID:   reg.ID,
		RegistrantName:   reg.Name,
		Result:           result,
		SessionStartedAt: session.StartedAt,
	})
	if err != nil {
		s.logger.Error("certificate render failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return domain.FinalResult{}, fmt.Errorf("render certificate: %w", err)
	}
	if err := s.results.UpdateCertificatePath(ctx, result.ID, path); err != nil {
		return domain.FinalResult{}, fmt.Errorf("store certificate path: %w", err)
	}
	result.CertificatePath = path
	return result, nil
}

func (s *TestService) buildView(reg domain.Registration, session domain.Session, result domain.FinalResult) ResultView {
	return ResultView{
		Registration:    reg,
		Session:         session,
		Result:          result,
		Recommendations: s.engine.Recommend(result.TraitScores, result.TotalScore.InexactFloat64()),
		TimeTaken:       FormatTimeTaken(session),
	}
}

func (s *TestService) notify(ctx context.Context, reg domain.Registration, view ResultView) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.SendResultReady(ctx, email.ResultNotice{
		ToEmail:  reg.Email,
		Name:     reg.Name,
		Score:    view.Result.RoundedScore(),
		Level:    view.Recommendations.OverallLevel.Label,
		IsJunior: reg.Variant == domain.VariantJunior,
	})
	if err == nil {
		return
	}
	if errors.Is(err, email.ErrSenderDisabled) {
		s.logger.Debug("result email skipped", zap.String("registration_id", reg.ID))
		return
	}
	s.logger.Warn("result email failed", zap.String("registration_id", reg.ID), zap.Error(err))
}

// FormatTimeTaken renders the session duration the way each variant's result page shows it:
// "X د Y ث" for adults and "M:SS" for juniors.
func FormatTimeTaken(session domain.Session) string {
	var elapsed time.Duration
	if session.CompletedAt != nil && !session.StartedAt.IsZero() {
		elapsed = session.CompletedAt.Sub(session.StartedAt)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	total := int(elapsed / time.Second)
	minutes, seconds := total/60, total%60
	if session.Variant == domain.VariantJunior {
		return fmt.Sprintf("%d:%02d", minutes, seconds)
	}
	return fmt.Sprintf("%d د %d ث", minutes, seconds)
}
