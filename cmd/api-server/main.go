package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthbot/clinic-scheduling/internal/api"
	"github.com/healthbot/clinic-scheduling/internal/assistant"
	"github.com/healthbot/clinic-scheduling/internal/booking"
	"github.com/healthbot/clinic-scheduling/internal/catalog"
	"github.com/healthbot/clinic-scheduling/internal/config"
	"github.com/healthbot/clinic-scheduling/internal/db"
	"github.com/healthbot/clinic-scheduling/internal/llm"
	redisclient "github.com/healthbot/clinic-scheduling/internal/redis"
	"github.com/healthbot/clinic-scheduling/internal/summary"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect the catalog store
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	catalogPool, err := db.ConnectPostgres(pgCtx, cfg.CatalogDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("catalog db connection error: %v", err)
	}
	defer catalogPool.Close()
	log.Println("connected to catalog Postgres")

	// Connect the appointment ledger store
	pgCtx, cancelPg = context.WithTimeout(rootCtx, 10*time.Second)
	ledgerPool, err := db.ConnectPostgres(pgCtx, cfg.LedgerDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("ledger db connection error: %v", err)
	}
	defer ledgerPool.Close()
	log.Println("connected to ledger Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	catalogRepo := catalog.NewPgRepository(catalogPool)
	allocator := booking.NewPgAllocator(catalogPool)
	ledger := booking.NewPgLedger(ledgerPool)

	// Without an API key the system still books appointments; summaries use
	// the deterministic fallback and chat is served a degraded reply.
	var llmClient llm.Client
	var summaries summary.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(rootCtx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("gemini client error: %v", err)
		}
		defer func() {
			if err := gemini.Close(); err != nil {
				log.Printf("error closing gemini client: %v", err)
			}
		}()
		llmClient = gemini
		summaries = summary.NewLLMGenerator(gemini)
		log.Printf("gemini enabled model=%s", cfg.GeminiModel)
	} else {
		llmClient = unavailableLLM{}
		log.Println("GEMINI_API_KEY not set, AI features degraded")
	}

	bookingSvc := booking.NewService(catalogRepo, allocator, ledger, summaries, cfg.SummaryTimeout)
	sessions := assistant.NewRedisSessionStore(rdb, cfg.SessionTTL, cfg.SessionWindow)
	bot := assistant.New(llmClient, sessions, catalogRepo, ledger)

	router := api.NewRouter(api.RouterConfig{
		Booking:     bookingSvc,
		Catalog:     catalogRepo,
		Assistant:   bot,
		CatalogPool: catalogPool,
		LedgerPool:  ledgerPool,
		Redis:       rdb,
		Env:         cfg.Env,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// unavailableLLM stands in when no API key is configured so the assistant
// degrades instead of dereferencing a nil client.
type unavailableLLM struct{}

func (unavailableLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	return "", errors.New("llm: no provider configured")
}
