package cli

import (
	"fmt"
	"net/http"

	"github.com/hyperjump/prana/internal/models"
	"github.com/hyperjump/prana/internal/rag"
	"github.com/hyperjump/prana/internal/storage"
	"github.com/spf13/cobra"
)

var (
	feedbackHelpful bool
	feedbackRating  int
	feedbackComment string
	feedbackServer  string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <query-id>",
	Short: "Rate an answer",
	Long: `Attach feedback to a previously served answer, identified by the query ID
printed by "prana ask".

Examples:
  prana feedback 3f2c... --helpful
  prana feedback 3f2c... --helpful=false --rating 2 --comment "too vague"`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().BoolVar(&feedbackHelpful, "helpful", false, "whether the answer was helpful")
	feedbackCmd.Flags().IntVar(&feedbackRating, "rating", 0, "rating from 1 to 5 (0 = none)")
	feedbackCmd.Flags().StringVar(&feedbackComment, "comment", "", "free-text comment")
	feedbackCmd.Flags().StringVar(&feedbackServer, "server", "", "server URL (empty = write to the audit store directly)")
	_ = feedbackCmd.MarkFlagRequired("helpful")
	rootCmd.AddCommand(feedbackCmd)
}

func newFeedbackRequest(queryID string, helpful bool, rating int, comment string) models.FeedbackRequest {
	req := models.FeedbackRequest{
		QueryID: queryID,
		Helpful: &helpful,
		Comment: comment,
	}
	if rating != 0 {
		req.Rating = &rating
	}
	return req
}

func runFeedback(cmd *cobra.Command, args []string) error {
	req := newFeedbackRequest(args[0], feedbackHelpful, feedbackRating, feedbackComment)

	var resp *models.FeedbackResponse
	if feedbackServer != "" {
		resp = &models.FeedbackResponse{}
		if err := newAPIClient(feedbackServer).do(cmd.Context(), http.MethodPost, "/feedback", req, resp); err != nil {
			return err
		}
	} else {
		store, err := storage.Open(cfg.Storage, cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()
		svc := rag.NewService(nil, nil, nil, store, rag.WithLogger(logger))
		resp, err = svc.Feedback(cmd.Context(), req)
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (query %s)\n", resp.Message, resp.QueryID)
	return nil
}
