package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	authdto "jobtrack-backend/internal/auth/dto"
	authUsecase "jobtrack-backend/internal/auth/usecase"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for the browser extension",
	Long: `Issue a bearer token signed with JWT_SECRET. Paste it into the browser
extension settings or pass it as "Authorization: Bearer <token>".

Examples:
  jobtrack token --subject extension
  jobtrack token --subject script --ttl 24h`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "extension", "client name stored in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default JWT_TOKEN_TTL)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	auth := authUsecase.NewAuthUsecase(cfg.JWTSecret, cfg.JWTTokenTTL)

	resp, err := auth.IssueToken(&authdto.IssueTokenRequest{Subject: tokenSubject, TTL: tokenTTL})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.AccessToken)
	fmt.Fprintf(cmd.ErrOrStderr(), "subject %s, expires %s\n", resp.Subject, resp.ExpiresAt.Format(time.RFC3339))
	return nil
}
