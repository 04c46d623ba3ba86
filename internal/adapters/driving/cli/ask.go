package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	askFiles   []string
	askContext string
	askTopK    int
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about your documents",
	Long: `Answers a question using extractive question answering.

Each invocation starts a fresh session: pass the documents to search with
--file, or supply the text to read directly with --context. The answer is
printed with its confidence, the supporting passage, any consistency
warnings and the chunks it was drawn from.`,
	Example: `  docqa ask "Who wrote the report?" --file report.pdf
  docqa ask "What is the capital of France?" --context "Paris is the capital of France."`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{servicesAnnotation: needsPipeline},
	RunE:        runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askFiles, "file", "f", nil, "document to load before asking (repeatable)")
	askCmd.Flags().StringVarP(&askContext, "context", "c", "", "answer from this text instead of the documents")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (0 = configured default)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if len(askFiles) > 0 {
		if _, err := ingestFiles(ctx, askFiles); err != nil {
			return err
		}
	}

	answer, err := qaService.Ask(ctx, domain.Query{
		Question: args[0],
		Context:  askContext,
		TopK:     askTopK,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswerText(cmd, answer)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Printf("Answer: %s\n", answer.Text)
	cmd.Printf("Confidence: %.2f\n", answer.Confidence)

	if answer.SupportingContext != "" {
		cmd.Println()
		cmd.Println("Supporting context:")
		cmd.Printf("  %s\n", strings.TrimSpace(answer.SupportingContext))
	}

	if len(answer.Warnings) > 0 {
		cmd.Println()
		cmd.Printf("Warnings (%d):\n", len(answer.Warnings))
		for _, w := range answer.Warnings {
			cmd.Printf("  [%s] %s\n", w.Kind, w.Message)
		}
	}

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, s := range answer.Sources {
			cmd.Printf("  [%d] chunk %d (distance %.3f)\n", i+1, s.Position, s.Distance)
		}
	}
}
