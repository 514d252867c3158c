package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export applications and events as CSV",
	Long: `Write applications.csv and events.csv into the --out directory.

Examples:
  jobtrack export --out ./reports`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "out", ".", "output directory")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return err
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	files := []struct {
		name  string
		write func(ctx context.Context, w io.Writer) error
	}{
		{"applications.csv", a.applications.ExportApplicationsCSV},
		{"events.csv", a.applications.ExportEventsCSV},
	}
	for _, f := range files {
		path := filepath.Join(exportDir, f.name)
		if err := writeFile(path, func(w io.Writer) error { return f.write(cmd.Context(), w) }); err != nil {
			return fmt.Errorf("export %s: %w", f.name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}
	return nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
