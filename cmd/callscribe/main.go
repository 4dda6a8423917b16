package main

import (
	"context"
	"log"
	"net/http"

	"github.com/pitabwire/frame"
	frameconfig "github.com/pitabwire/frame/config"
	"github.com/pitabwire/frame/workerpool"

	csconfig "github.com/callscribe/callscribe/config"
	"github.com/callscribe/callscribe/internal/api"
	"github.com/callscribe/callscribe/internal/audio"
	"github.com/callscribe/callscribe/internal/httputil"
	"github.com/callscribe/callscribe/internal/ingest"
	"github.com/callscribe/callscribe/internal/pipeline"
	"github.com/callscribe/callscribe/internal/speech/registry"
	"github.com/callscribe/callscribe/internal/store"
	"github.com/callscribe/callscribe/pkg/events"

	// Register speech backends via init().
	_ "github.com/callscribe/callscribe/internal/speech/backends/fasterwhisper"
	_ "github.com/callscribe/callscribe/internal/speech/backends/pyannote"
)

func main() {
	ctx := context.Background()

	cfg, err := frameconfig.LoadWithOIDC[csconfig.TranscriptorConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("callscribe"),
		frame.WithDatastore(),
		frame.WithRegisterPublisher(eventRef, eventURL),
		frame.WithWorkerPoolOptions(
			workerpool.WithPoolCount(cfg.WorkerPoolCount),
			workerpool.WithSinglePoolCapacity(cfg.WorkerPoolCapacity),
		),
	)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	pub := events.NewPublisher(srv.QueueManager(), "callscribe", eventRef)

	// --- Speech backends ---
	asr, err := registry.ASR.Create(cfg.ASRBackend, map[string]string{
		"asr_service_url": cfg.ASRServiceURL,
		"model":           cfg.WhisperModel,
	})
	if err != nil {
		log.Fatalf("creating ASR backend: %v", err)
	}
	diarizer, err := registry.Diarizers.Create(cfg.DiarizerBackend, map[string]string{
		"diarizer_service_url": cfg.DiarizerServiceURL,
		"auth_token":           cfg.DiarizerAuthToken,
	})
	if err != nil {
		log.Fatalf("creating diarizer backend: %v", err)
	}

	// --- Classifier rules ---
	rules := pipeline.DefaultRules()
	if cfg.ClassifierRulesPath != "" {
		rules, err = pipeline.LoadRules(cfg.ClassifierRulesPath)
		if err != nil {
			log.Fatalf("loading classifier rules: %v", err)
		}
	}

	// --- Pipeline ---
	pipe := pipeline.New(pipeline.Config{
		ASR:              asr,
		Diarizer:         diarizer,
		Splitter:         audio.NewSplitter(cfg.FFmpegPath),
		Language:         cfg.WhisperLanguage,
		BeamSize:         cfg.WhisperBeamSize,
		ExpectedSpeakers: cfg.ExpectedSpeakers,
		Rules:            rules,
	})

	// --- Storage ---
	repo := store.NewRepository(
		srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"),
	)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("running migrations: %v", err)
	}

	// --- Ingest ---
	proc := ingest.NewProcessor(repo, pipe, pub, cfg.WhisperModel)
	supervisor := ingest.NewSupervisor(ingest.SupervisorConfig{
		Dir:           cfg.WatchDir,
		Workers:       cfg.MaxConcurrentJobs,
		QueueCapacity: cfg.QueueCapacity,
		SettleDelay:   cfg.SettleDelay(),
		ScanOnStart:   cfg.ScanOnStart,
	}, proc)
	if err := supervisor.Start(ctx); err != nil {
		log.Fatalf("starting watcher: %v", err)
	}
	defer supervisor.Stop()

	// --- HTTP API ---
	// The handler submits reprocess jobs with the service-level ctx so
	// they survive beyond the originating request.
	mux := http.NewServeMux()
	apiHandler := api.NewHandler(ctx, repo, proc, pool, pub)
	apiHandler.RegisterRoutes(mux)

	srv.Init(ctx,
		frame.WithHTTPHandler(httputil.H2CHandler(mux)),
	)

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}
