package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ilfen-assessment/internal/certificate"
	"ilfen-assessment/internal/domain"
)

// Renderiza un certificado de muestra sin base de datos, para ajustar plantillas y posiciones.
func main() {
	_ = godotenv.Load()

	var (
		variantFlag = flag.String("variant", "adult", "test variant: adult or junior")
		name        = flag.String("name", "محمد أحمد", "registrant name")
		score       = flag.String("score", "87.50", "total score (0-100)")
		staticRoot  = flag.String("static", "static", "static assets root")
		fontFile    = flag.String("font", "fonts/alexandria.ttf", "font path relative to static root")
		adultTpl    = flag.String("adult-template", "images/Frame 2 Gold.png", "adult template relative to static root")
		juniorTpl   = flag.String("junior-template", "images/image.png", "junior template relative to static root")
		out         = flag.String("out", "media", "output media root")
	)
	flag.Parse()

	variant, err := domain.ParseVariant(*variantFlag)
	if err != nil {
		log.Fatalf("variant: %v", err)
	}
	total, err := decimal.NewFromString(*score)
	if err != nil {
		log.Fatalf("score: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	renderer := certificate.NewRenderer(
		logger,
		*out,
		filepath.Join(*staticRoot, *fontFile),
		certificate.DefaultLayouts(
			filepath.Join(*staticRoot, *adultTpl),
			filepath.Join(*staticRoot, *juniorTpl),
		),
	)

	now := time.Now()
	path, err := renderer.Render(variant, certificate.Request{
		RegistrationID:   "preview-" + uuid.NewString()[:8],
		RegistrantName:   *name,
		Result:           domain.FinalResult{TotalScore: total.RoundBank(2), CreatedAt: now},
		SessionStartedAt: now.Add(-12 * time.Minute),
	})
	if err != nil {
		log.Fatalf("render: %v", err)
	}
	fmt.Println(renderer.AbsPath(path))
}
