package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docqa/internal/adapters/driving/watch"
	"github.com/custodia-labs/docqa/internal/logger"
)

var (
	serveListen string
	serveFiles  []string
	serveWatch  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API.

Endpoints:
  POST /upload      multipart "file" field(s); replaces the document session
  POST /ask         {"question": "...", "context": "...", "top_k": 3}
  POST /summarize   {"context": "...", "max_sentences": 5}
  GET  /health      200 when every required oracle answers, 503 otherwise

Files given with --file are indexed before the server starts. With --watch
they are re-indexed whenever they change on disk.`,
	Example: `  docqa serve --listen :9000
  docqa serve --file handbook.pdf --watch`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{servicesAnnotation: needsPipeline},
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (default from server.listen)")
	serveCmd.Flags().StringArrayVarP(&serveFiles, "file", "f", nil, "document to load at startup (repeatable)")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "re-index --file documents when they change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}
	if serveWatch && len(serveFiles) == 0 {
		return errors.New("--watch requires at least one --file")
	}

	if appSettings != nil && appSettings.Server.LogFile != "" {
		if err := logger.EnableFile(appSettings.Server.LogFile); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	}

	ctx := cmd.Context()
	if len(serveFiles) > 0 {
		result, err := ingestFiles(ctx, serveFiles)
		if err != nil {
			return err
		}
		cmd.Printf("Indexed %d document(s) into %d chunks\n", len(result.Documents), result.ChunkCount)
	}

	cfg := httpapi.Config{}
	addr := serveListen
	if appSettings != nil {
		cfg = httpapi.ConfigFromSettings(appSettings.Server)
		if addr == "" {
			addr = appSettings.Server.Listen
		}
	}
	if addr == "" {
		addr = ":8080"
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		QA:       qaService,
		Document: documentService,
		Summary:  summaryService,
		Health:   healthService,
	}, cfg)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if serveWatch {
		w, err := watch.New(documentService, serveFiles, watch.Options{MaxFileBytes: maxFileBytes()})
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(ctx) })
	}
	g.Go(func() error { return server.Listen(ctx, addr) })

	cmd.Printf("docqa listening on %s\n", addr)
	return g.Wait()
}
