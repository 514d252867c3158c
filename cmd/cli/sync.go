package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jobtrack-backend/internal/application/domain"
)

var sinceDays int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch recent mail and reconcile it",
	Long: `Fetch the mail received during the last --since-days days from the
configured provider (MAIL_PROVIDER=gmail or imap) and reconcile it.

Examples:
  # Sync the default window (SYNC_DAYS)
  jobtrack sync

  # Sync the last week
  jobtrack sync --since-days 7`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVar(&sinceDays, "since-days", 0, "days of mail to sync (default SYNC_DAYS)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if sinceDays < 0 {
		return fmt.Errorf("--since-days must not be negative")
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.sync.Sync(cmd.Context(), sinceDays)
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary)
	}
	return err
}

func printSummary(w io.Writer, s *domain.Summary) {
	fmt.Fprintf(w, "Run %s\n", s.RunID)
	fmt.Fprintf(w, "  Received:    %d\n", s.Received)
	fmt.Fprintf(w, "  Created:     %d\n", s.Created)
	fmt.Fprintf(w, "  Updated:     %d\n", s.Updated)
	fmt.Fprintf(w, "  Events:      %d\n", s.EventsAdded)
	fmt.Fprintf(w, "  Duplicates:  %d\n", s.Duplicates)
	fmt.Fprintf(w, "  Ignored:     %d\n", s.Ignored)
	fmt.Fprintf(w, "  Skipped:     %d\n", s.Skipped)
	if s.AmbiguousMatches > 0 {
		fmt.Fprintf(w, "  Ambiguous:   %d\n", s.AmbiguousMatches)
	}
	for _, t := range s.Transitions {
		fmt.Fprintf(w, "  %s / %s: %s -> %s\n", t.Company, t.RoleTitle, t.From, t.To)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  [skipped #%d %s] %s\n", e.Index, e.Ref, e.Reason)
	}
}
