package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"buddy/config"
	"buddy/internal/application"
	"buddy/internal/doctor"
	"buddy/internal/infra/audio"
	execinfra "buddy/internal/infra/exec"
	"buddy/internal/infra/feedback"
	"buddy/internal/infra/ollama"
	"buddy/internal/infra/openaichat"
	"buddy/internal/infra/whisper"
)

var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "buddy",
		Short:         "Local voice-control assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssistant(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Start the assistant loop",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runAssistant(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "doctor",
			Short: "Check config, model endpoints, and executor binaries",
			RunE: func(cmd *cobra.Command, _ []string) error {
				report := doctor.Run(cmd.Context(), loadConfig(configPath))
				fmt.Println(report)
				if !report.OK() {
					return fmt.Errorf("doctor found problems")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(_ *cobra.Command, _ []string) {
				fmt.Println(version)
			},
		},
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		if ctx.Err() == nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		slog.Warn("loading config failed, using defaults", "path", path, "error", err)
		return config.Default()
	}
	return cfg
}

func runAssistant(ctx context.Context, configPath string) error {
	cfg := loadConfig(configPath)
	logger := setupLogger(cfg.Log)

	table := cfg.CapabilityTable()
	if table.Empty() {
		logger.Warn("capability table is empty: configure files, applications, or system actions")
	}

	resolver := newResolver(cfg)
	if readiness, ok := resolver.(interface{ Ready(context.Context) error }); ok {
		if err := readiness.Ready(ctx); err != nil {
			logger.Warn("chat endpoint not ready yet", "endpoint", cfg.Chat.Endpoint, "error", err)
		}
	}

	runner := execinfra.CommandRunner{}
	speaker := execinfra.NewTTSSpeaker(runner, cfg.Feedback.TTSCommand)
	dispatcher := application.NewDispatcher(
		execinfra.NewOpener(runner),
		execinfra.NewLauncher(runner),
		execinfra.NewSystemRunner(runner),
		speaker,
	)

	pipeline := application.NewPipeline(resolver, dispatcher, table, cfg.Chat.MinConfidence, logger)
	announcer := feedback.NewPlayer(cfg.Feedback.Mode, speaker, logger)
	source := newSource(cfg, logger)
	stt := whisper.NewClient(cfg.Transcription.Endpoint, cfg.Transcription.Language)

	assistant := application.NewAssistant(source, stt, pipeline, announcer, logger)

	logger.Info("starting buddy",
		"source", cfg.Audio.Source,
		"provider", cfg.Chat.Provider,
		"model", cfg.Chat.Model,
	)

	if err := assistant.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	logger.Info("shutting down")
	return nil
}

func newResolver(cfg *config.Config) application.IntentResolver {
	timeout := cfg.ChatTimeout()
	backoff := cfg.ChatRetryBackoff()

	switch cfg.Chat.Provider {
	case "openai", "openai_compat":
		return openaichat.NewClient(cfg.Chat.Endpoint, cfg.Chat.Model, timeout, cfg.Chat.Retries, backoff)
	default:
		return ollama.NewClient(cfg.Chat.Endpoint, cfg.Chat.Model, timeout, cfg.Chat.Retries, backoff)
	}
}

func newSource(cfg *config.Config, logger *slog.Logger) application.CommandSource {
	switch cfg.Audio.Source {
	case "http":
		return audio.NewHTTPSource(cfg.Audio.HTTPAddr, cfg.Audio.AuthToken, logger)
	case "microphone":
		return audio.NewMicrophoneSource(cfg.Audio.SampleRate, cfg.CaptureDuration(), logger)
	case "stdin":
		return audio.NewStdinSource()
	default:
		logger.Warn("unknown command source, using stdin", "source", cfg.Audio.Source)
		return audio.NewStdinSource()
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
