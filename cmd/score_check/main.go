package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ilfen-assessment/internal/certificate"
	"ilfen-assessment/internal/config"
	"ilfen-assessment/internal/db"
	"ilfen-assessment/internal/domain"
	"ilfen-assessment/internal/repository"
	"ilfen-assessment/internal/service"
)

// Scenario responde todas las preguntas con el mismo valor crudo y fija el puntaje esperado.
type Scenario struct {
	Name     string
	Raw      decimal.Decimal
	Expected decimal.Decimal
}

// Verifica contra la configuracion real de rasgos que el motor respeta sus extremos.
// Con -rescore recalcula y guarda el resultado de las sesiones indicadas.
func main() {
	rescore := flag.String("rescore", "", "comma-separated session ids to rescore against the current traits")
	flag.Parse()

	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	traitRepo := repository.NewPgTraitRepository(pool)
	if *rescore != "" {
		os.Exit(runRescore(ctx, cfg, traitRepo, pool, strings.Split(*rescore, ",")))
	}
	engine := service.DefaultScoringEngine

	passed, total := 0, 0
	for _, variant := range []domain.Variant{domain.VariantAdult, domain.VariantJunior} {
		traits, err := traitRepo.ListActive(ctx, variant)
		if err != nil {
			log.Fatalf("load traits %s: %v", variant, err)
		}
		questions := engine.ActiveQuestions(traits)
		fmt.Printf("=== Variante %s: %d rasgos, %d preguntas ===\n", variant, len(traits), len(questions))

		for _, sc := range scenariosFor(questions) {
			total++
			got, err := runScenario(engine, traits, questions, variant, sc)
			if err != nil {
				fmt.Printf("❌ FAIL [%s/%s] %v\n", variant, sc.Name, err)
				continue
			}
			if got.Equal(sc.Expected) {
				fmt.Printf("✅ PASS [%s/%s] total=%s\n", variant, sc.Name, got.StringFixed(2))
				passed++
			} else {
				fmt.Printf("❌ FAIL [%s/%s] esperado=%s obtenido=%s\n", variant, sc.Name, sc.Expected.StringFixed(2), got.StringFixed(2))
			}
		}
		fmt.Println()
	}

	fmt.Printf("Tests: %d/%d pasaron\n", passed, total)
	if passed != total {
		os.Exit(1)
	}
}

// scenariosFor arma los extremos. Con preguntas invertidas el maximo cambia de lado,
// asi que solo el neutro tiene un resultado fijo en cualquier configuracion.
func scenariosFor(questions []domain.Question) []Scenario {
	scenarios := []Scenario{
		{Name: "neutro", Raw: decimal.NewFromInt(1), Expected: decimal.NewFromInt(50)},
	}
	reversed := 0
	for _, q := range questions {
		if q.IsReverseScored {
			reversed++
		}
	}
	if reversed == 0 {
		scenarios = append(scenarios,
			Scenario{Name: "todo_maximo", Raw: decimal.NewFromInt(2), Expected: decimal.NewFromInt(100)},
			Scenario{Name: "todo_cero", Raw: decimal.Zero, Expected: decimal.Zero},
		)
	}
	return scenarios
}

func runScenario(engine service.ScoringEngine, traits []domain.Trait, questions []domain.Question, variant domain.Variant, sc Scenario) (decimal.Decimal, error) {
	if len(questions) == 0 {
		return decimal.Zero, fmt.Errorf("no hay preguntas activas")
	}
	raw := make(map[string]decimal.Decimal, len(questions))
	for _, q := range questions {
		raw[q.ID] = sc.Raw
	}
	started := time.Now().UTC()
	completed := started.Add(5 * time.Minute)
	session := domain.Session{
		ID:          uuid.NewString(),
		Variant:     variant,
		StartedAt:   started,
		CompletedAt: &completed,
		IsCompleted: true,
		Answers:     engine.NormalizeAnswers(questions, raw),
	}
	result := engine.ComputeResult(traits, session)
	return result.TotalScore, nil
}

func runRescore(ctx context.Context, cfg *config.Config, traitRepo *repository.PgTraitRepository, pool *pgxpool.Pool, sessionIDs []string) int {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	renderer := certificate.NewRenderer(
		logger,
		cfg.MediaRoot,
		filepath.Join(cfg.StaticRoot, cfg.FontFile),
		certificate.DefaultLayouts(
			filepath.Join(cfg.StaticRoot, cfg.AdultTemplate),
			filepath.Join(cfg.StaticRoot, cfg.JuniorTemplate),
		),
	)
	svc := service.NewTestService(service.TestServiceDeps{
		Traits:        traitRepo,
		Registrations: repository.NewPgRegistrationRepository(pool),
		Sessions:      repository.NewPgSessionRepository(pool),
		Results:       repository.NewPgResultRepository(pool),
		Renderer:      renderer,
	}, logger)

	failed := 0
	for _, id := range sessionIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		result, err := svc.Rescore(ctx, id)
		if err != nil {
			fmt.Printf("❌ FAIL [rescore/%s] %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("✅ PASS [rescore/%s] total=%s\n", id, result.TotalScore.StringFixed(2))
	}
	if failed > 0 {
		return 1
	}
	return 0
}
