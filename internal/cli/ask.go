package cli

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/prana/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// auditDrainTimeout bounds how long a one-shot CLI command waits for the detached audit write.
const auditDrainTimeout = 5 * time.Second

var (
	askOutput string
	askServer string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a yoga or wellness question",
	Long: `Ask a question and print the grounded answer with its sources.
The question is all remaining arguments joined by spaces.

Without --server the pipeline runs in-process against the configured index and
audit store. With --server the question is sent to a running "prana server".

Examples:
  prana ask how do I start a yoga practice
  prana ask --output json "what is pranayama?"
  prana ask --server http://localhost:5001 "benefits of child's pose"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "text", "output format: text, json, or html")
	askCmd.Flags().StringVar(&askServer, "server", "", "server URL (empty = run the pipeline in-process)")
	rootCmd.AddCommand(askCmd)
}

// buildQuery joins positional args so multi-word questions work with or without quotes.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAsk(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(askOutput)
	if err != nil {
		return err
	}
	req := models.AskRequest{Query: buildQuery(args)}

	var resp *models.AskResponse
	if askServer != "" {
		resp = &models.AskResponse{}
		if err := newAPIClient(askServer).do(cmd.Context(), http.MethodPost, "/ask", req, resp); err != nil {
			return err
		}
	} else {
		resp, err = askInProcess(cmd.Context(), req)
		if err != nil {
			return err
		}
	}
	return WriteAskResponse(cmd.OutOrStdout(), resp, format)
}

func askInProcess(ctx context.Context, req models.AskRequest) (*models.AskResponse, error) {
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	components.Index.Load(ctx)
	resp, err := components.Service.Ask(ctx, req)
	if err != nil {
		return nil, err
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditDrainTimeout)
	defer cancel()
	if err := components.Service.Wait(drainCtx); err != nil {
		logger.Warn("audit write did not finish", zap.String("query_id", resp.QueryID), zap.Error(err))
	}
	return resp, nil
}
