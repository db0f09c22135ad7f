package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"xray-sync/internal/credential"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage Xray credentials stored in the system keyring",
	}
	cmd.AddCommand(newCredentialsStoreCmd())
	return cmd
}

func newCredentialsStoreCmd() *cobra.Command {
	var clientID, clientSecret string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Store the Xray client id and secret in the keyring",
		Long: `Stores the client id and secret so that runs with XRAY_USE_KEYRING=true
can authenticate without the values in the environment. Values default to
XRAY_CLIENT_ID and XRAY_CLIENT_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID == "" {
				clientID = cfg.ClientID
			}
			if clientSecret == "" {
				clientSecret = cfg.ClientSecret
			}
			if clientID == "" || clientSecret == "" {
				return errors.New("both --client-id and --client-secret are required")
			}

			store, err := credential.Open()
			if err != nil {
				return err
			}

			if err := storeCredentials(store, clientID, clientSecret); err != nil {
				return err
			}

			slog.Info("Credentials stored in keyring")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Credentials stored.")
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Xray API client id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Xray API client secret")

	return cmd
}

func storeCredentials(store credential.Store, clientID, clientSecret string) error {
	if err := credential.Set(store, credential.ClientIDKey, clientID); err != nil {
		return err
	}
	return credential.Set(store, credential.ClientSecretKey, clientSecret)
}
