package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Populated via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
)

// Execute runs ssoadm and returns the process exit code. Invoked without
// a subcommand it drops into the interactive console.
func Execute() int {
	app := newApp()
	root := newRootCmd(app)
	root.SetArgs(os.Args[1:])
	if err := root.Execute(); err != nil {
		fmt.Fprintf(app.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(app *App) *cobra.Command {
	var (
		configPath string
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "ssoadm",
		Short: "Administer SSO domains, principals and policies",
		Long: `ssoadm manages person users, groups, group membership, server-wide
policies and identity sources over administrative LDAP sessions.

Run without arguments for an interactive console; commands entered there
share one set of sessions. Management commands fan out across all active
sessions unless --on narrows the set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.init(configPath, logLevel, logFormat)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.console {
				return cmd.Help()
			}
			return app.runShell(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $SSOADM_CONFIG, then ~/.ssoadm/config.yaml)")
	cmd.PersistentFlags().BoolVar(&app.jsonOut, "json", app.jsonOut, "Emit results as JSON")
	cmd.PersistentFlags().StringVar(&app.target, "on", app.target, "Address only sessions matching host, host:port or user@host")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override the configured log format")

	cmd.AddCommand(
		newConnectCmd(app),
		newDisconnectCmd(app),
		newSessionsCmd(app),
		newUserCmd(app),
		newGroupCmd(app),
		newPolicyCmd(app),
		newIdsourceCmd(app),
		newVersionCmd(app),
	)

	return cmd
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if app.jsonOut {
				return writeJSON(app.stdout, map[string]string{"version": version, "commit": commit})
			}
			fmt.Fprintf(app.stdout, "ssoadm %s (%s)\n", version, commit)
			return nil
		},
	}
}
