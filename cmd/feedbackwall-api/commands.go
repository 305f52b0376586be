package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/auth"
	"github.com/MarcoPoloResearchLab/feedbackwall/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema and data migrations, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			_, closeDB, err := openDatabase(appConfig, logger)
			if err != nil {
				return err
			}
			closeDB()
			logger.Info("migrations complete", zap.String("driver", appConfig.DatabaseDriver))
			return nil
		},
	}
}

func newMintSessionCommand() *cobra.Command {
	var identity auth.SessionIdentity
	cmd := &cobra.Command{
		Use:   "mint-session",
		Short: "Print a signed session token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(identity.UserID) == "" {
				return fmt.Errorf("--user-id is required")
			}
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			issuer, err := auth.NewSessionIssuer(auth.SessionIssuerConfig{
				SigningSecret: []byte(appConfig.SessionSigningKey),
				Issuer:        appConfig.SessionIssuer,
				TokenTTL:      appConfig.SessionTTL,
			})
			if err != nil {
				return err
			}
			token, expiresAt, err := issuer.Issue(identity)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(out, "# cookie %s, expires %s\n", appConfig.SessionCookieName, expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&identity.UserID, "user-id", "", "Subject of the session")
	cmd.Flags().StringVar(&identity.Email, "email", "", "Email claim")
	cmd.Flags().StringVar(&identity.DisplayName, "display-name", "", "Display name claim")
	return cmd
}
