package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jobtrack-backend/internal/application/classifier"
	"jobtrack-backend/pkg/config"
	"jobtrack-backend/pkg/imap"
)

var (
	classifySubject string
	classifyBody    string
	classifyFile    string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Show how the rule tables read one email",
	Long: `Classify one email and extract company and role without touching the
database. Useful when tuning a rules file.

Examples:
  jobtrack classify --subject "Your application" --body "Unfortunately ..."
  jobtrack classify --file rejection.eml --rules my-rules.yaml`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifySubject, "subject", "", "email subject")
	classifyCmd.Flags().StringVar(&classifyBody, "body", "", "email body")
	classifyCmd.Flags().StringVar(&classifyFile, "file", "", "RFC 5322 message file (.eml)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		return err
	}

	cls, err := classifier.New(rules, logger)
	if err != nil {
		return err
	}
	ext, err := classifier.NewExtractor(rules)
	if err != nil {
		return err
	}

	subject, body, receivedAt := classifySubject, classifyBody, time.Now().UTC()
	if classifyFile != "" {
		f, err := os.Open(classifyFile)
		if err != nil {
			return err
		}
		defer f.Close()
		msg, err := imap.ParseMessage(f, time.Time{})
		if err != nil {
			return fmt.Errorf("parse %s: %w", classifyFile, err)
		}
		subject, body = msg.Subject, msg.Body
		if !msg.ReceivedAt.IsZero() {
			receivedAt = msg.ReceivedAt
		}
	}
	if subject == "" && body == "" {
		return fmt.Errorf("--subject, --body or --file is required")
	}

	out := cmd.OutOrStdout()
	fields := ext.Extract(subject, body)
	c, ok := cls.Classify(subject, body, receivedAt)
	if !ok {
		fmt.Fprintln(out, "Not related to a job application")
	} else {
		fmt.Fprintf(out, "Event:      %s\n", c.EventType)
		fmt.Fprintf(out, "Confidence: %s\n", c.Confidence)
		if c.Ambiguous {
			fmt.Fprintln(out, "Ambiguous:  yes (competing rule groups matched)")
		}
		fmt.Fprintf(out, "Evidence:   %s\n", c.EvidenceText)
	}
	fmt.Fprintf(out, "Company:    %s\n", fields.Company)
	fmt.Fprintf(out, "Role:       %s\n", fields.RoleTitle)
	return nil
}
