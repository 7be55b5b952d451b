package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isometry/ssoadmin/internal/sso"
)

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage person users",
	}
	cmd.AddCommand(
		newUserFindCmd(app),
		newUserCreateCmd(app),
		newUserUpdateCmd(app),
		newUserDeleteCmd(app),
		newUserResetPasswordCmd(app),
		newUserUnlockCmd(app),
	)
	return cmd
}

// findOnePersonUser resolves name to exactly one user on the client's
// session. Patterns matching several users are rejected so mutations stay
// unambiguous.
func findOnePersonUser(ctx context.Context, client *sso.Client, name, domain string) (sso.PersonUser, error) {
	users, err := client.FindPersonUsers(ctx, domain, name)
	if err != nil {
		return sso.PersonUser{}, err
	}
	switch len(users) {
	case 0:
		return sso.PersonUser{}, fmt.Errorf("user %q not found", name)
	case 1:
		return users[0], nil
	default:
		return sso.PersonUser{}, fmt.Errorf("%q matches %d users, use an exact name", name, len(users))
	}
}

func newUserFindCmd(app *App) *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "find [pattern]",
		Short: "Find person users by name",
		Long: `Find person users whose names match the pattern: glob matching when
the pattern contains '*' or '?', exact matching otherwise. An empty
pattern lists the whole domain.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			conns, err := app.connections()
			if err != nil {
				return err
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) ([]userView, error) {
				users, err := client.FindPersonUsers(ctx, domain, pattern)
				if err != nil {
					return nil, err
				}
				return userViews(users), nil
			})
			return printFanOut(app, results, renderUserList)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain to search (default: the server's own domain)")

	return cmd
}

func newUserCreateCmd(app *App) *cobra.Command {
	var (
		domain      string
		password    string
		firstName   string
		lastName    string
		email       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a person user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			pass, err := app.resolvePassword(password, "", fmt.Sprintf("Password for new user %s: ", args[0]))
			if err != nil {
				return err
			}
			newUser := sso.NewPersonUser{
				Name:         args[0],
				Domain:       domain,
				Password:     pass,
				FirstName:    firstName,
				LastName:     lastName,
				EmailAddress: email,
				Description:  description,
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (userView, error) {
				created, err := client.CreatePersonUser(ctx, newUser)
				if err != nil {
					return userView{}, err
				}
				return newUserView(created), nil
			})
			return printFanOut(app, results, renderUser)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain to create the user in (default: the server's own domain)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Initial password (prompted when omitted)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "Given name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Surname")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&description, "description", "", "Description")

	return cmd
}

func newUserUpdateCmd(app *App) *cobra.Command {
	var (
		domain      string
		firstName   string
		lastName    string
		email       string
		description string
		enable      bool
		disable     bool
	)

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update fields of a person user",
		Long:  "Update the given fields of a person user. Omitted flags keep the current values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			update := sso.PersonUserUpdate{
				FirstName:    changedString(flags, "first-name", &firstName),
				LastName:     changedString(flags, "last-name", &lastName),
				EmailAddress: changedString(flags, "email", &email),
				Description:  changedString(flags, "description", &description),
			}
			if enable {
				v := true
				update.Enabled = &v
			}
			if disable {
				v := false
				update.Enabled = &v
			}
			if update == (sso.PersonUserUpdate{}) {
				return errors.New("nothing to update: pass at least one field flag")
			}

			conns, err := app.connections()
			if err != nil {
				return err
			}
			name := args[0]
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (userView, error) {
				user, err := findOnePersonUser(ctx, client, name, domain)
				if err != nil {
					return userView{}, err
				}
				updated, err := client.UpdatePersonUser(ctx, user, update)
				if err != nil {
					return userView{}, err
				}
				return newUserView(updated), nil
			})
			return printFanOut(app, results, renderUser)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain of the user (default: the server's own domain)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "Given name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Surname")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().BoolVar(&enable, "enable", false, "Enable the account")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable the account")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")

	return cmd
}

func newUserDeleteCmd(app *App) *cobra.Command {
	var (
		domain string
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a person user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			name := args[0]
			if !yes && !app.confirm(fmt.Sprintf("delete user %q on %d session(s)?", name, len(conns))) {
				fmt.Fprintln(app.stdout, "aborted")
				return nil
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (string, error) {
				user, err := findOnePersonUser(ctx, client, name, domain)
				if err != nil {
					return "", err
				}
				if err := client.DeletePersonUser(ctx, user); err != nil {
					return "", err
				}
				return fmt.Sprintf("deleted %s", user.ID), nil
			})
			return printFanOut(app, results, renderStatus)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain of the user (default: the server's own domain)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newUserResetPasswordCmd(app *App) *cobra.Command {
	var (
		domain   string
		password string
	)

	cmd := &cobra.Command{
		Use:   "reset-password <name>",
		Short: "Set a new password for a person user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			name := args[0]
			pass, err := app.resolvePassword(password, "", fmt.Sprintf("New password for %s: ", name))
			if err != nil {
				return err
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (string, error) {
				user, err := findOnePersonUser(ctx, client, name, domain)
				if err != nil {
					return "", err
				}
				if err := client.ResetPersonUserPassword(ctx, user, pass); err != nil {
					return "", err
				}
				return fmt.Sprintf("password reset for %s", user.ID), nil
			})
			return printFanOut(app, results, renderStatus)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain of the user (default: the server's own domain)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "New password (prompted when omitted)")

	return cmd
}

func newUserUnlockCmd(app *App) *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "unlock <name>",
		Short: "Clear an account lockout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			name := args[0]
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (string, error) {
				user, err := findOnePersonUser(ctx, client, name, domain)
				if err != nil {
					return "", err
				}
				unlocked, err := client.UnlockPersonUser(ctx, user)
				if err != nil {
					return "", err
				}
				if !unlocked {
					return fmt.Sprintf("%s was not locked", user.ID), nil
				}
				return fmt.Sprintf("unlocked %s", user.ID), nil
			})
			return printFanOut(app, results, renderStatus)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain of the user (default: the server's own domain)")

	return cmd
}
