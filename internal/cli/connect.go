package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/isometry/ssoadmin/internal/sso"
)

func newConnectCmd(app *App) *cobra.Command {
	var (
		user       string
		password   string
		skipVerify bool
		thumbprint string
		caFile     string
	)

	cmd := &cobra.Command{
		Use:   "connect [host]",
		Short: "Open an administrative session",
		Long: `Open an administrative session to a server, or attach to the session
already open for the same host, port and user. The host may carry an
explicit port (host:port); without one the default LDAPS port applies.

The password is taken from --password, then $SSOADM_PASSWORD, then an
interactive prompt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := app.cfg.Server
			if len(args) == 1 {
				host = args[0]
			}
			if host == "" {
				return errors.New("no server: pass a host or set server in the config")
			}
			if user == "" {
				user = app.cfg.Username
			}
			if user == "" {
				return errors.New("no user: pass --user or set username in the config")
			}

			pass, err := app.resolvePassword(password, "SSOADM_PASSWORD", fmt.Sprintf("Password for %s: ", user))
			if err != nil {
				return err
			}

			policy, err := app.cfg.TLSPolicy()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("skip-verify") {
				policy.SkipVerify = skipVerify
			}
			if cmd.Flags().Changed("thumbprint") {
				policy.Thumbprint = thumbprint
			}
			if cmd.Flags().Changed("ca-file") {
				pem, err := os.ReadFile(caFile)
				if err != nil {
					return fmt.Errorf("read CA file: %w", err)
				}
				policy.CACertificates = append(policy.CACertificates, string(pem))
			}

			conn, err := app.registry.Connect(cmd.Context(), host, sso.Credentials{Username: user, Password: pass}, policy)
			if err != nil {
				return err
			}
			if refs := app.registry.RefCount(conn); refs > 1 {
				fmt.Fprintf(app.stdout, "attached to %s (refs %d)\n", conn, refs)
			} else {
				fmt.Fprintf(app.stdout, "connected to %s\n", conn)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Administrator username (default from config)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (default $SSOADM_PASSWORD, then a prompt)")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip TLS certificate verification")
	cmd.Flags().StringVar(&thumbprint, "thumbprint", "", "Pin the server certificate by SHA-256 fingerprint")
	cmd.Flags().StringVar(&caFile, "ca-file", "", "PEM bundle of additional CA roots to trust")

	return cmd
}

func newDisconnectCmd(app *App) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "disconnect [host]",
		Short: "Release administrative sessions",
		Long: `Release sessions: all of them, those to one host, or those of one user
on one host. A session closes once every connect that attached to it has
disconnected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conns := app.registry.Active()
			if len(conns) == 0 {
				return errors.New("no active sessions")
			}
			spec := ""
			if len(args) == 1 {
				spec = args[0]
			}

			released, failed := 0, 0
			for _, conn := range conns {
				if spec != "" && !connMatches(conn, spec) {
					continue
				}
				if user != "" && !strings.EqualFold(conn.User(), user) {
					continue
				}
				if err := app.registry.Disconnect(cmd.Context(), conn); err != nil {
					fmt.Fprintf(app.stderr, "%s: %v\n", conn, err)
					failed++
					continue
				}
				released++
				if refs := app.registry.RefCount(conn); refs > 0 {
					fmt.Fprintf(app.stdout, "released %s (refs %d)\n", conn, refs)
				} else {
					fmt.Fprintf(app.stdout, "disconnected %s\n", conn)
				}
			}

			if released == 0 && failed == 0 {
				return errors.New("no session matches")
			}
			if failed > 0 {
				return fmt.Errorf("%d session(s) failed to disconnect", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Only release sessions bound as this user")

	return cmd
}

func newSessionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List active sessions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			conns := app.registry.Active()

			if app.jsonOut {
				views := make([]sessionView, 0, len(conns))
				for _, conn := range conns {
					views = append(views, sessionView{
						ID:        conn.ID(),
						Host:      conn.Host(),
						Port:      conn.Port(),
						User:      conn.User(),
						Refs:      app.registry.RefCount(conn),
						Connected: conn.Connected(),
					})
				}
				return writeJSON(app.stdout, views)
			}

			if len(conns) == 0 {
				fmt.Fprintln(app.stdout, "no active sessions")
				return nil
			}
			tw := tabwriter.NewWriter(app.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tUSER\tHOST\tPORT\tREFS\tSTATE")
			for _, conn := range conns {
				state := "connected"
				if !conn.Connected() {
					state = "closed"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					conn.ID(), conn.User(), conn.Host(), conn.Port(), app.registry.RefCount(conn), state)
			}
			return tw.Flush()
		},
	}
}
