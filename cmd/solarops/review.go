package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solarops/internal/domain"
	"solarops/internal/service"
)

var (
	overrideStatus   string
	overrideReviewer string
	overrideComment  string
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var overrideCmd = &cobra.Command{
	Use:   "override <filename>",
	Short: "Set a record's review status and notify the client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if overrideStatus == "" || overrideReviewer == "" {
			return eris.New("--status and --reviewer are required")
		}

		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		stopDispatcher := runDispatcher(env.Dispatcher)
		defer stopDispatcher()

		rec, err := env.Review.Override(cmd.Context(), service.OverrideInput{
			Filename:  args[0],
			NewStatus: domain.ReviewStatus(overrideStatus),
			Reviewer:  overrideReviewer,
			Comment:   overrideComment,
		})
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit <filename>",
	Short: "Print a record's override history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, records, err := openRecordStore(cmd.Context(), &cfg.DB)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		entries, err := service.NewReviewService(records, nil, nil).Audit(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, records, err := openRecordStore(cmd.Context(), &cfg.DB)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		stats, err := records.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("total: %d  valid: %d  invalid: %d  avg confidence: %.1f%%\n",
			stats.Total, stats.Valid, stats.Invalid, stats.AvgConfidence)
		for status, n := range stats.ByStatus {
			fmt.Printf("  %s: %d\n", status, n)
		}
		return nil
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send the pending-review digest once",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		reminder, err := service.NewReminderScheduler(env.Records, env.Notifier, service.ReminderConfig{
			Schedule:   cfg.Reminder.Schedule,
			StaleAfter: cfg.Reminder.StaleAfter,
			Recipient:  cfg.Email.Recipient,
			BaseURL:    cfg.Email.BaseURL,
		})
		if err != nil {
			return err
		}
		n, err := reminder.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		zap.L().Info("reminder sent", zap.Int("stale_records", n))
		return nil
	},
}

func init() {
	overrideCmd.Flags().StringVar(&overrideStatus, "status", "", "new review status (e.g. approved, rejected)")
	overrideCmd.Flags().StringVar(&overrideReviewer, "reviewer", "", "reviewer name")
	overrideCmd.Flags().StringVar(&overrideComment, "comment", "", "reviewer comment")
	rootCmd.AddCommand(overrideCmd, auditCmd, statsCmd, remindCmd)
}
