package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ilfen-assessment/internal/certificate"
	"ilfen-assessment/internal/domain"
	"ilfen-assessment/internal/service"
)

// TestHandler expone el flujo del test (registro, preguntas, envio, resultado y certificado).
type TestHandler struct {
	logger *zap.Logger
	tests  *service.TestService
	tokens *service.SessionTokenService
}

func NewTestHandler(logger *zap.Logger, tests *service.TestService, tokens *service.SessionTokenService) *TestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestHandler{
		logger: logger,
		tests:  tests,
		tokens: tokens,
	}
}

type questionView struct {
	ID      string `json:"id"`
	TraitID string `json:"trait_id"`
	Text    string `json:"text"`
	Number  int    `json:"number"`
}

type traitScoreView struct {
	Name          string `json:"name"`
	NameEn        string `json:"name_en,omitempty"`
	Percentage    string `json:"percentage"`
	UserScore     string `json:"user_score"`
	MaxScore      string `json:"max_score"`
	Weight        string `json:"weight"`
	WeightedScore string `json:"weighted_score"`
}

type resultView struct {
	Variant          string                   `json:"variant"`
	Name             string                   `json:"name"`
	TotalScore       string                   `json:"total_score"`
	RoundedScore     int64                    `json:"rounded_score"`
	Level            domain.Level             `json:"level"`
	TraitScores      []traitScoreView         `json:"trait_scores"`
	StrongTraits     []service.TraitHighlight `json:"strong_traits"`
	WeakTraits       []service.TraitHighlight `json:"weak_traits"`
	TimeTaken        string                   `json:"time_taken"`
	TimeTakenMinutes int                      `json:"time_taken_minutes"`
	CompletedAt      *time.Time               `json:"completed_at,omitempty"`
	CertificateURL   string                   `json:"certificate_url"`
}

// Register maneja POST /tests/:variant/register.
func (h *TestHandler) Register(c *gin.Context) {
	variant, ok := h.variantParam(c)
	if !ok {
		return
	}
	var req struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	_, session, err := h.tests.Register(c.Request.Context(), variant, req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTestServiceInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		case errors.Is(err, service.ErrTestAlreadyTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "this email has already taken the test"})
		default:
			h.logger.Error("register failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register"})
		}
		return
	}

	token, err := h.tokens.Issue(session)
	if err != nil {
		h.logger.Error("session token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"session_id": session.ID,
		"variant":    variant.String(),
		"expires_in": int64(h.tokens.TTL().Seconds()),
	})
}

// Questions maneja GET /tests/:variant/questions.
func (h *TestHandler) Questions(c *gin.Context) {
	variant, ok := h.variantParam(c)
	if !ok {
		return
	}
	questions, err := h.tests.Questions(c.Request.Context(), variant)
	if err != nil {
		h.logger.Error("list questions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load questions"})
		return
	}

	out := make([]questionView, 0, len(questions))
	for i, q := range questions {
		out = append(out, questionView{ID: q.ID, TraitID: q.TraitID, Text: q.Text, Number: i + 1})
	}
	c.JSON(http.StatusOK, gin.H{
		"questions": out,
		"choices":   service.AnswerChoices(),
		"total":     len(out),
	})
}

// Submit maneja POST /tests/:variant/submit.
func (h *TestHandler) Submit(c *gin.Context) {
	variant, claims, ok := h.sessionParams(c)
	if !ok {
		return
	}
	var req struct {
		Answers map[string]decimal.Decimal `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submit request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answers"})
		return
	}

	view, err := h.tests.FinalizeTest(c.Request.Context(), variant, claims.SessionID, req.Answers)
	if err != nil {
		h.writeTestError(c, "submit test failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": toResultView(view)})
}

// Result maneja GET /tests/:variant/result.
func (h *TestHandler) Result(c *gin.Context) {
	variant, claims, ok := h.sessionParams(c)
	if !ok {
		return
	}
	view, err := h.tests.GetResult(c.Request.Context(), variant, claims.SessionID)
	if err != nil {
		h.writeTestError(c, "get result failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": toResultView(view)})
}

// Certificate maneja GET /tests/:variant/certificate y devuelve el PNG como adjunto.
func (h *TestHandler) Certificate(c *gin.Context) {
	variant, claims, ok := h.sessionParams(c)
	if !ok {
		return
	}
	path, reg, err := h.tests.EnsureCertificate(c.Request.Context(), variant, claims.SessionID)
	if err != nil {
		h.writeTestError(c, "certificate failed", err)
		return
	}
	// The router defaults every response to JSON; ServeContent keeps a preset type.
	c.Header("Content-Type", "image/png")
	c.FileAttachment(path, certificateDownloadName(variant, reg.Name))
}

func certificateDownloadName(variant domain.Variant, name string) string {
	if variant == domain.VariantJunior {
		return fmt.Sprintf("ILEFN_Junior_Certificate_%s.png", name)
	}
	return fmt.Sprintf("ILEFN_Certificate_%s.png", name)
}

func (h *TestHandler) variantParam(c *gin.Context) (domain.Variant, bool) {
	variant, err := domain.ParseVariant(c.Param("variant"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown test"})
		return "", false
	}
	return variant, true
}

func (h *TestHandler) sessionParams(c *gin.Context) (domain.Variant, service.SessionClaims, bool) {
	variant, ok := h.variantParam(c)
	if !ok {
		return "", service.SessionClaims{}, false
	}
	claims, ok := GetSessionClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return "", service.SessionClaims{}, false
	}
	return variant, claims, true
}

func (h *TestHandler) writeTestError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrVariantMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "session belongs to another test"})
	case errors.Is(err, domain.ErrSessionAlreadyCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "test already submitted"})
	case errors.Is(err, service.ErrFinalizeInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "test submission in progress"})
	case errors.Is(err, service.ErrSessionNotCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "test not completed"})
	case errors.Is(err, service.ErrTestServiceInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, certificate.ErrTemplateNotFound):
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "certificate template unavailable"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func toResultView(view service.ResultView) resultView {
	traits := make([]traitScoreView, 0, len(view.Result.TraitScores))
	for _, ts := range view.Result.TraitScores {
		traits = append(traits, traitScoreView{
			Name:          ts.TraitName,
			NameEn:        ts.NameEn,
			Percentage:    ts.Percentage().StringFixedBank(2),
			UserScore:     ts.UserScore.String(),
			MaxScore:      ts.MaxScore.String(),
			Weight:        ts.Weight.StringFixed(2),
			WeightedScore: ts.WeightedScore.StringFixedBank(2),
		})
	}
	return resultView{
		Variant:          view.Session.Variant.String(),
		Name:             view.Registration.Name,
		TotalScore:       view.Result.TotalScore.StringFixed(2),
		RoundedScore:     view.Result.RoundedScore(),
		Level:            view.Recommendations.OverallLevel,
		TraitScores:      traits,
		StrongTraits:     view.Recommendations.StrongTraits,
		WeakTraits:       view.Recommendations.WeakTraits,
		TimeTaken:        view.TimeTaken,
		TimeTakenMinutes: view.Result.TimeTakenMinutes,
		CompletedAt:      view.Session.CompletedAt,
		CertificateURL:   fmt.Sprintf("/tests/%s/certificate", view.Session.Variant),
	}
}
