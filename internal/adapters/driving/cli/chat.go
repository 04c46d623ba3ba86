package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/watch"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

var chatWatch bool

var chatCmd = &cobra.Command{
	Use:   "chat [files...]",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface.

Files given as arguments are indexed before the UI opens; more can be added
from the Documents view. With --watch the files are re-indexed whenever
they change on disk.

Controls:
  Enter    - Ask / Select
  ↑/k, ↓/j - Navigate sources
  n        - New question
  c        - Toggle retrieved context
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	Aliases:     []string{"tui"},
	Annotations: map[string]string{servicesAnnotation: needsPipeline},
	RunE:        runChat,
}

func init() {
	chatCmd.Flags().BoolVarP(&chatWatch, "watch", "w", false, "re-index the given files when they change")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if err := requirePipeline(); err != nil {
		return err
	}
	if chatWatch && len(args) == 0 {
		return errors.New("--watch requires at least one file")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if len(args) > 0 {
		if _, err := ingestFiles(ctx, args); err != nil {
			return err
		}
	}

	ports := tui.NewPorts(qaService, documentService, settingsService)
	ports.MaxFileBytes = maxFileBytes()

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	if chatWatch {
		events := make(chan messages.DocumentsIngested, 1)
		w, err := watch.New(documentService, args, watch.Options{
			MaxFileBytes: maxFileBytes(),
			OnReload: func(res *domain.IngestResult, err error) {
				select {
				case events <- messages.DocumentsIngested{Result: res, Err: err}:
				case <-ctx.Done():
				}
			},
		})
		if err != nil {
			return err
		}
		app.WithIngestEvents(events)
		go func() {
			defer close(events)
			if err := w.Run(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "watcher stopped: %v\n", err)
			}
		}()
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
