package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/isometry/ssoadmin/internal/sso"
)

func newPolicyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage server-wide policies",
	}
	cmd.AddCommand(
		newPasswordPolicyCmd(app),
		newLockoutPolicyCmd(app),
		newTokenPolicyCmd(app),
	)
	return cmd
}

func newPasswordPolicyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password format and lifetime policy",
	}
	cmd.AddCommand(newPasswordPolicyGetCmd(app), newPasswordPolicySetCmd(app))
	return cmd
}

func newPasswordPolicyGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the password policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (passwordPolicyView, error) {
				policy, err := client.GetPasswordPolicy(ctx)
				if err != nil {
					return passwordPolicyView{}, err
				}
				return newPasswordPolicyView(policy), nil
			})
			return printFanOut(app, results, renderPasswordPolicy)
		},
	}
}

func newPasswordPolicySetCmd(app *App) *cobra.Command {
	var (
		description  string
		history      int
		minLength    int
		maxLength    int
		minAlpha     int
		minUpper     int
		minLower     int
		minNumeric   int
		minSpecial   int
		maxIdentical int
		lifetimeDays int
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change password policy fields",
		Long:  "Change the given password policy fields on each session. Omitted flags keep that server's current values.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			update := sso.PasswordPolicyUpdate{
				Description:                    changedString(flags, "description", &description),
				ProhibitedPreviousPasswords:    changedInt(flags, "history", &history),
				MinLength:                      changedInt(flags, "min-length", &minLength),
				MaxLength:                      changedInt(flags, "max-length", &maxLength),
				MinAlphabeticCount:             changedInt(flags, "min-alphabetic", &minAlpha),
				MinUppercaseCount:              changedInt(flags, "min-uppercase", &minUpper),
				MinLowercaseCount:              changedInt(flags, "min-lowercase", &minLower),
				MinNumericCount:                changedInt(flags, "min-numeric", &minNumeric),
				MinSpecialCharCount:            changedInt(flags, "min-special", &minSpecial),
				MaxIdenticalAdjacentCharacters: changedInt(flags, "max-identical-adjacent", &maxIdentical),
				PasswordLifetimeDays:           changedInt(flags, "lifetime-days", &lifetimeDays),
			}
			if update == (sso.PasswordPolicyUpdate{}) {
				return errors.New("nothing to set: pass at least one field flag")
			}

			conns, err := app.connections()
			if err != nil {
				return err
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (passwordPolicyView, error) {
				current, err := client.GetPasswordPolicy(ctx)
				if err != nil {
					return passwordPolicyView{}, err
				}
				updated, err := client.SetPasswordPolicy(ctx, current, update)
				if err != nil {
					return passwordPolicyView{}, err
				}
				return newPasswordPolicyView(updated), nil
			})
			return printFanOut(app, results, renderPasswordPolicy)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Policy description")
	cmd.Flags().IntVar(&history, "history", 0, "Number of previous passwords a new password may not repeat")
	cmd.Flags().IntVar(&minLength, "min-length", 0, "Minimum password length")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "Maximum password length")
	cmd.Flags().IntVar(&minAlpha, "min-alphabetic", 0, "Minimum alphabetic characters")
	cmd.Flags().IntVar(&minUpper, "min-uppercase", 0, "Minimum uppercase characters")
	cmd.Flags().IntVar(&minLower, "min-lowercase", 0, "Minimum lowercase characters")
	cmd.Flags().IntVar(&minNumeric, "min-numeric", 0, "Minimum numeric characters")
	cmd.Flags().IntVar(&minSpecial, "min-special", 0, "Minimum special characters")
	cmd.Flags().IntVar(&maxIdentical, "max-identical-adjacent", 0, "Maximum identical adjacent characters")
	cmd.Flags().IntVar(&lifetimeDays, "lifetime-days", 0, "Password lifetime in days")

	return cmd
}

func newLockoutPolicyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lockout",
		Short: "Account lockout policy",
	}
	cmd.AddCommand(newLockoutPolicyGetCmd(app), newLockoutPolicySetCmd(app))
	return cmd
}

func newLockoutPolicyGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the lockout policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (lockoutPolicyView, error) {
				policy, err := client.GetLockoutPolicy(ctx)
				if err != nil {
					return lockoutPolicyView{}, err
				}
				return newLockoutPolicyView(policy), nil
			})
			return printFanOut(app, results, renderLockoutPolicy)
		},
	}
}

func newLockoutPolicySetCmd(app *App) *cobra.Command {
	var (
		description     string
		maxFailed       int
		failureInterval time.Duration
		unlockInterval  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change lockout policy fields",
		Long:  "Change the given lockout policy fields on each session. Omitted flags keep that server's current values.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			update := sso.LockoutPolicyUpdate{
				Description:           changedString(flags, "description", &description),
				MaxFailedAttempts:     changedInt(flags, "max-failed-attempts", &maxFailed),
				FailedAttemptInterval: changedDuration(flags, "failed-attempt-interval", &failureInterval),
				AutoUnlockInterval:    changedDuration(flags, "auto-unlock-interval", &unlockInterval),
			}
			if update == (sso.LockoutPolicyUpdate{}) {
				return errors.New("nothing to set: pass at least one field flag")
			}

			conns, err := app.connections()
			if err != nil {
				return err
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (lockoutPolicyView, error) {
				current, err := client.GetLockoutPolicy(ctx)
				if err != nil {
					return lockoutPolicyView{}, err
				}
				updated, err := client.SetLockoutPolicy(ctx, current, update)
				if err != nil {
					return lockoutPolicyView{}, err
				}
				return newLockoutPolicyView(updated), nil
			})
			return printFanOut(app, results, renderLockoutPolicy)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Policy description")
	cmd.Flags().IntVar(&maxFailed, "max-failed-attempts", 0, "Failed attempts before an account locks")
	cmd.Flags().DurationVar(&failureInterval, "failed-attempt-interval", 0, "Window in which failed attempts accumulate")
	cmd.Flags().DurationVar(&unlockInterval, "auto-unlock-interval", 0, "Time until a locked account unlocks itself")

	return cmd
}

func newTokenPolicyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Security token lifetime limits",
	}
	cmd.AddCommand(newTokenPolicyGetCmd(app), newTokenPolicySetCmd(app))
	return cmd
}

func newTokenPolicyGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the token lifetime limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (tokenLifetimeView, error) {
				lifetime, err := client.GetTokenLifetime(ctx)
				if err != nil {
					return tokenLifetimeView{}, err
				}
				return newTokenLifetimeView(lifetime), nil
			})
			return printFanOut(app, results, renderTokenLifetime)
		},
	}
}

func newTokenPolicySetCmd(app *App) *cobra.Command {
	var (
		maxHoK    time.Duration
		maxBearer time.Duration
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change token lifetime limits",
		Long:  "Change the given token lifetime limits on each session. Omitted flags keep that server's current values.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			update := sso.TokenLifetimeUpdate{
				MaxHoKTokenLifetime:    changedDuration(flags, "max-hok", &maxHoK),
				MaxBearerTokenLifetime: changedDuration(flags, "max-bearer", &maxBearer),
			}
			if update == (sso.TokenLifetimeUpdate{}) {
				return errors.New("nothing to set: pass at least one field flag")
			}

			conns, err := app.connections()
			if err != nil {
				return err
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (tokenLifetimeView, error) {
				current, err := client.GetTokenLifetime(ctx)
				if err != nil {
					return tokenLifetimeView{}, err
				}
				updated, err := client.SetTokenLifetime(ctx, current, update)
				if err != nil {
					return tokenLifetimeView{}, err
				}
				return newTokenLifetimeView(updated), nil
			})
			return printFanOut(app, results, renderTokenLifetime)
		},
	}

	cmd.Flags().DurationVar(&maxHoK, "max-hok", 0, "Maximum holder-of-key token lifetime")
	cmd.Flags().DurationVar(&maxBearer, "max-bearer", 0, "Maximum bearer token lifetime")

	return cmd
}
