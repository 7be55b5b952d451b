package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isometry/ssoadmin/internal/sso"
)

func newIdsourceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idsource",
		Short: "Manage identity sources",
		Long: `Manage the identity sources a server authenticates against: the two
built-in sources (local OS accounts and the server's own domain) plus
any registered external LDAP domains.`,
	}
	cmd.AddCommand(
		newIdsourceListCmd(app),
		newIdsourceAddCmd(app),
		newIdsourceUpdateCmd(app),
		newIdsourceRemoveCmd(app),
	)
	return cmd
}

func newIdsourceListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List identity sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) ([]idsourceView, error) {
				sources, err := client.IdentitySources(ctx)
				if err != nil {
					return nil, err
				}
				return idsourceViews(sources), nil
			})
			return printFanOut(app, results, renderIdsourceList)
		},
	}
}

func readCertFiles(paths []string) ([]string, error) {
	var certs []string
	for _, path := range paths {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read certificate: %w", err)
		}
		certs = append(certs, string(pem))
	}
	return certs, nil
}

func newIdsourceAddCmd(app *App) *cobra.Command {
	var (
		alias        string
		serverType   string
		friendlyName string
		userBaseDN   string
		groupBaseDN  string
		primaryURL   string
		failoverURL  string
		certFiles    []string
		authUser     string
		authPassword string
	)

	cmd := &cobra.Command{
		Use:   "add <domain>",
		Short: "Register an external LDAP identity source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			certs, err := readCertFiles(certFiles)
			if err != nil {
				return err
			}
			pass := ""
			if authUser != "" {
				pass, err = app.resolvePassword(authPassword, "", fmt.Sprintf("Bind password for %s: ", authUser))
				if err != nil {
					return err
				}
			}
			source := sso.NewLDAPIdentitySource{
				Name:       args[0],
				Alias:      alias,
				ServerType: sso.LDAPServerType(serverType),
				Details: sso.LDAPSourceDetails{
					FriendlyName: friendlyName,
					UserBaseDN:   userBaseDN,
					GroupBaseDN:  groupBaseDN,
					PrimaryURL:   primaryURL,
					FailoverURL:  failoverURL,
					Certificates: certs,
				},
				AuthCredentials: sso.Credentials{Username: authUser, Password: pass},
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (idsourceView, error) {
				added, err := client.AddLDAPIdentitySource(ctx, source)
				if err != nil {
					return idsourceView{}, err
				}
				return newIdsourceView(added), nil
			})
			return printFanOut(app, results, renderIdsource)
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Short alias for the domain")
	cmd.Flags().StringVar(&serverType, "server-type", string(sso.LDAPServerTypeActiveDirectory), "LDAP server type: ActiveDirectory or OpenLDAP")
	cmd.Flags().StringVar(&friendlyName, "friendly-name", "", "Display name")
	cmd.Flags().StringVar(&userBaseDN, "user-base-dn", "", "Base DN for user searches")
	cmd.Flags().StringVar(&groupBaseDN, "group-base-dn", "", "Base DN for group searches")
	cmd.Flags().StringVar(&primaryURL, "primary-url", "", "Primary LDAP URL")
	cmd.Flags().StringVar(&failoverURL, "failover-url", "", "Failover LDAP URL")
	cmd.Flags().StringArrayVar(&certFiles, "cert", nil, "PEM certificate file for the source (repeatable)")
	cmd.Flags().StringVar(&authUser, "auth-user", "", "Bind username for the source")
	cmd.Flags().StringVar(&authPassword, "auth-password", "", "Bind password (prompted when --auth-user is set without it)")
	_ = cmd.MarkFlagRequired("primary-url")
	_ = cmd.MarkFlagRequired("user-base-dn")
	_ = cmd.MarkFlagRequired("group-base-dn")

	return cmd
}

func newIdsourceUpdateCmd(app *App) *cobra.Command {
	var (
		friendlyName string
		userBaseDN   string
		groupBaseDN  string
		primaryURL   string
		failoverURL  string
		certFiles    []string
		authUser     string
		authPassword string
	)

	cmd := &cobra.Command{
		Use:   "update <domain>",
		Short: "Update an external LDAP identity source",
		Long: `Update the given fields of a registered external identity source.
Omitted flags keep the registered values; --cert replaces the full
certificate list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			update := sso.LDAPIdentitySourceUpdate{
				FriendlyName: changedString(flags, "friendly-name", &friendlyName),
				UserBaseDN:   changedString(flags, "user-base-dn", &userBaseDN),
				GroupBaseDN:  changedString(flags, "group-base-dn", &groupBaseDN),
				PrimaryURL:   changedString(flags, "primary-url", &primaryURL),
				FailoverURL:  changedString(flags, "failover-url", &failoverURL),
			}
			if flags.Changed("cert") {
				certs, err := readCertFiles(certFiles)
				if err != nil {
					return err
				}
				update.Certificates = certs
			}
			if flags.Changed("auth-user") {
				pass, err := app.resolvePassword(authPassword, "", fmt.Sprintf("Bind password for %s: ", authUser))
				if err != nil {
					return err
				}
				update.AuthCredentials = &sso.Credentials{Username: authUser, Password: pass}
			}
			if update.FriendlyName == nil && update.UserBaseDN == nil && update.GroupBaseDN == nil &&
				update.PrimaryURL == nil && update.FailoverURL == nil &&
				update.Certificates == nil && update.AuthCredentials == nil {
				return errors.New("nothing to update: pass at least one field flag")
			}

			conns, err := app.connections()
			if err != nil {
				return err
			}
			name := args[0]
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (idsourceView, error) {
				updated, err := client.UpdateLDAPIdentitySource(ctx, name, update)
				if err != nil {
					return idsourceView{}, err
				}
				return newIdsourceView(updated), nil
			})
			return printFanOut(app, results, renderIdsource)
		},
	}

	cmd.Flags().StringVar(&friendlyName, "friendly-name", "", "Display name")
	cmd.Flags().StringVar(&userBaseDN, "user-base-dn", "", "Base DN for user searches")
	cmd.Flags().StringVar(&groupBaseDN, "group-base-dn", "", "Base DN for group searches")
	cmd.Flags().StringVar(&primaryURL, "primary-url", "", "Primary LDAP URL")
	cmd.Flags().StringVar(&failoverURL, "failover-url", "", "Failover LDAP URL")
	cmd.Flags().StringArrayVar(&certFiles, "cert", nil, "PEM certificate file replacing the registered list (repeatable)")
	cmd.Flags().StringVar(&authUser, "auth-user", "", "Bind username for the source")
	cmd.Flags().StringVar(&authPassword, "auth-password", "", "Bind password (prompted when --auth-user is set without it)")

	return cmd
}

func newIdsourceRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <domain>",
		Short: "Remove an external identity source",
		Long:  "Remove a registered external identity source. The built-in local OS and system sources cannot be removed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			name := args[0]
			if !yes && !app.confirm(fmt.Sprintf("remove identity source %q on %d session(s)?", name, len(conns))) {
				fmt.Fprintln(app.stdout, "aborted")
				return nil
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (string, error) {
				if err := client.RemoveIdentitySource(ctx, name); err != nil {
					return "", err
				}
				return fmt.Sprintf("removed identity source %s", name), nil
			})
			return printFanOut(app, results, renderStatus)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
