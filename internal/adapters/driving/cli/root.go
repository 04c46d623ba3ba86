// Package cli provides the docqa command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

// servicesAnnotation tells PersistentPreRunE how much of the application a
// command needs. Commands without it get nothing wired.
const servicesAnnotation = "docqa.services"

// Service levels.
const (
	needsSettings = "settings"
	needsPipeline = "pipeline"
)

// Global flags.
var (
	verbose   bool
	configDir string
	ephemeral bool
)

// Wired services. Tests replace these with mocks before executing rootCmd.
var (
	settingsService driving.SettingsService
	qaService       driving.QAService
	documentService driving.DocumentService
	summaryService  driving.SummaryService
	healthService   driving.HealthService

	// appSettings is the snapshot the pipeline was built from.
	appSettings *domain.AppSettings

	// aiResult owns the oracle adapters; closed on exit.
	aiResult *ai.InitResult
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Question answering over your documents",
	Long: `docqa answers questions about the documents you give it.

Load text, Markdown, HTML, PDF or DOCX files, then ask questions from the command
line, the terminal UI, the HTTP API or an MCP client. Every answer carries a
confidence score, the supporting passages and any consistency warnings.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default ~/.docqa)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"use built-in defaults and never read or write the config file")
}

// Execute runs the root command. It is called from main.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeServices()

	return rootCmd.ExecuteContext(ctx)
}

// setupServices wires what the invoked command declared it needs.
// Services that are already set are left alone.
func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	level := cmd.Annotations[servicesAnnotation]
	if level == "" {
		return nil
	}

	if settingsService == nil {
		store, err := newConfigStore()
		if err != nil {
			return err
		}
		settingsService = services.NewSettingsService(store, ai.NewConfigValidator())
	}

	if level != needsPipeline || qaService != nil {
		return nil
	}
	return wirePipeline(cmd.Context())
}

func newConfigStore() (driven.ConfigStore, error) {
	if ephemeral {
		logger.Debug("ephemeral run, config file disabled")
		return memory.NewConfigStore(nil), nil
	}
	dir, err := resolveConfigDir()
	if err != nil {
		return nil, err
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config in %s: %w", dir, err)
	}
	return store, nil
}

// resolveConfigDir returns the configuration directory, or "" for ephemeral
// runs.
func resolveConfigDir() (string, error) {
	if ephemeral {
		return "", nil
	}
	if configDir != "" {
		return configDir, nil
	}
	return file.DefaultDir()
}

// wirePipeline builds the oracles and every service on top of them.
func wirePipeline(ctx context.Context) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	dir, err := resolveConfigDir()
	if err != nil {
		return err
	}

	res, err := ai.Init(ctx, settings, ai.Options{ConfigDir: dir, Validate: true})
	if err != nil {
		return fmt.Errorf("failed to initialise oracles: %w", err)
	}
	for _, w := range res.Warnings {
		logger.Debug("degraded: %s", w)
	}

	qa := settings.QA
	index := services.NewEmbeddingIndex(res.EmbeddingService, res.VectorIndex, services.IndexConfig{
		BatchSize:     qa.BatchSize,
		Workers:       qa.Workers,
		OracleTimeout: qa.OracleTimeout,
	})
	if res.Cache != nil {
		index.SetCache(res.Cache)
	}

	pipeline, err := postprocessors.NewDefaultPipeline(qa.ChunkSize)
	if err != nil {
		res.Close()
		return fmt.Errorf("failed to build chunking pipeline: %w", err)
	}
	docs := services.NewDocumentService(extractors.NewDefaultRegistry(), pipeline, index)

	extractor := services.NewAnswerExtractor(res.Reader, services.ExtractorConfig{
		MaxQuestionChars:       qa.MaxQuestionChars,
		MaxContextChars:        qa.MaxContextChars,
		LowConfidenceThreshold: qa.LowConfidenceThreshold,
		InjectionPolicy:        qa.InjectionPolicy,
		OracleTimeout:          qa.OracleTimeout,
	})
	checker := services.NewConsistencyChecker(res.Entities, res.EmbeddingService, services.ConsistencyConfig{
		ContextSimilarityThreshold:    qa.ContextSimilarityThreshold,
		SupportingSimilarityThreshold: qa.SupportingSimilarityThreshold,
		OracleTimeout:                 qa.OracleTimeout,
	})

	qaService = services.NewQAService(services.NewRetriever(index, qa.TopK, qa.OracleTimeout), extractor, checker)
	documentService = docs
	summaryService = services.NewSummaryService(res.LLMService, qa.MaxContextChars, qa.OracleTimeout)
	healthService = services.NewHealthService(docs, services.DefaultPingTimeout,
		services.HealthTarget{Name: "embedding", Oracle: res.EmbeddingService, Required: true},
		services.HealthTarget{Name: "reader", Oracle: res.Reader, Required: true},
		services.HealthTarget{Name: "entity", Oracle: res.Entities},
		services.HealthTarget{Name: "llm", Oracle: res.LLMService},
	)
	appSettings = settings
	aiResult = res
	return nil
}

func closeServices() {
	if aiResult != nil {
		aiResult.Close()
		aiResult = nil
	}
	if err := logger.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		fmt.Fprintf(os.Stderr, "close log: %v\n", err)
	}
}

// maxFileBytes is the per-file read limit for local file loading.
func maxFileBytes() int64 {
	if appSettings == nil || appSettings.Server.MaxUploadMB <= 0 {
		return 0
	}
	return int64(appSettings.Server.MaxUploadMB) << 20
}

// requirePipeline reports a clear error when a command runs unwired.
func requirePipeline() error {
	if qaService == nil || documentService == nil {
		return errors.New("document services not configured")
	}
	return nil
}
