package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var summarizeSentences int

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarise text",
	Long: `Summarises a text file, or standard input when no file is given.

Uses the configured LLM; without one, the most representative sentences are
picked by word frequency.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{servicesAnnotation: needsPipeline},
	RunE:        runSummarize,
}

func init() {
	summarizeCmd.Flags().IntVarP(&summarizeSentences, "sentences", "s", 0,
		"maximum sentences in the summary (0 = default)")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if summaryService == nil {
		return errors.New("summary service not configured")
	}

	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	summary, err := summaryService.Summarise(cmd.Context(), string(data), summarizeSentences)
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}
	cmd.Println(summary)
	return nil
}
