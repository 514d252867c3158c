package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import manual captures from a CSV or JSON file",
	Long: `Import manual captures from a CSV or JSON file and reconcile them with the
existing applications. Columns: company, role_title, location, source,
job_url, notes, applied_date, captured_at and an optional status.

Examples:
  jobtrack import --file captures.csv
  jobtrack import captures.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "CSV or JSON file to import")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := importFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("an import file is required")
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	captures, err := a.importer.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d entries from %s\n", len(captures), path)

	summary, err := a.reconciler.ReconcileCaptures(cmd.Context(), captures)
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary)
	}
	return err
}
