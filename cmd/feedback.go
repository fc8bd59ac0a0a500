package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pdc-bot/internal/domain"
)

var feedbackLimit int

var feedbackCmd = &cobra.Command{
	Use:   "feedback <share-id>",
	Short: "List stored feedback for a shared answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := loadConfig(os.Getenv)
		if cfg.FeedbackTable == "" {
			return errors.New("FEEDBACK_TABLE is required")
		}
		aws, err := newAWSClients(ctx, botConfig{FeedbackTable: cfg.FeedbackTable})
		if err != nil {
			return err
		}
		records, err := aws.feedback.ListFeedback(ctx, args[0], feedbackLimit)
		if err != nil {
			return err
		}
		return printFeedback(cmd, records)
	},
}

func init() {
	feedbackCmd.Flags().IntVar(&feedbackLimit, "limit", 50, "Maximum number of records to show")
}

func printFeedback(cmd *cobra.Command, records []domain.FeedbackRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "no feedback recorded")
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRATING\tUSER\tQUERY")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Timestamp.Format(time.RFC3339), r.Rating, r.UserTag, r.Query)
	}
	return w.Flush()
}
