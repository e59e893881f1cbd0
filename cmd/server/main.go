package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"callaudit-backend/audio"
	"callaudit-backend/config"
	"callaudit-backend/events"
	"callaudit-backend/handlers"
	"callaudit-backend/logging"
	"callaudit-backend/metrics"
	"callaudit-backend/oracle"
	"callaudit-backend/service"
)

func main() {
	// Load .env from the working directory or the project root.
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
		}
	}

	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	judgmentOracle, err := initOracle(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize judgment oracle")
	}

	fetcher, err := audio.NewFetcher(ctx, audio.FetcherConfig{
		TempDir:      cfg.Audio.TempDir,
		Timeout:      cfg.Audio.DownloadTimeout,
		AWSRegion:    cfg.Audio.AWSRegion,
		AWSAccessKey: cfg.Audio.AWSAccessKey,
		AWSSecretKey: cfg.Audio.AWSSecretKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize audio fetcher")
	}

	transcoder := audio.NewFFmpegTranscoder(cfg.Audio.FFmpegPath, cfg.Audio.FFprobePath, cfg.Audio.TempDir)

	engine := audio.NewEngine(audio.WhisperConfig{
		Endpoint: cfg.Transcription.Endpoint,
		APIKey:   cfg.Transcription.APIKey,
		Model:    cfg.Transcription.Model,
		Language: cfg.Transcription.Language,
		Timeout:  cfg.Transcription.Timeout,
	})
	defer engine.Close()

	m := metrics.New()

	publisher := events.New(&events.Config{
		Enabled: cfg.Events.Enabled,
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
	})
	defer publisher.Close()

	judge := service.NewJudgmentClient(judgmentOracle, cfg.Oracle.Timeout, m)

	dispatcher := service.NewWebhookDispatcher(cfg.Webhook.URL, cfg.Webhook.Timeout, m)

	auditService := service.NewAuditService(
		service.WithJudge(judge),
		service.WithFetcher(fetcher),
		service.WithTranscoder(transcoder),
		service.WithTranscriber(engine),
		service.WithMetrics(m),
		service.WithEvents(publisher),
	)

	auditHandler := handlers.NewAuditHandler(auditService, dispatcher, judge)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/analyze-audio", auditHandler.AnalyzeAudio)
		api.POST("/analyze-audio-sync", auditHandler.AnalyzeAudioSync)
		api.POST("/analyze-single-rule", auditHandler.AnalyzeSingleRule)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Info().Str("addr", addr).Str("oracle", cfg.Oracle.Provider).Msg("server starting")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func initOracle(ctx context.Context, cfg *config.Config) (oracle.Oracle, error) {
	switch cfg.Oracle.Provider {
	case "gemini":
		return oracle.NewGeminiClient(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model)
	default:
		return oracle.NewChatClient(oracle.ChatConfig{
			Endpoint:    cfg.Oracle.Endpoint,
			APIKey:      cfg.Oracle.APIKey,
			Project:     cfg.Oracle.Project,
			Model:       cfg.Oracle.Model,
			Temperature: cfg.Oracle.Temperature,
			MaxTokens:   cfg.Oracle.MaxTokens,
			Timeout:     cfg.Oracle.Timeout,
		}), nil
	}
}
