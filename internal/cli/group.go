package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isometry/ssoadmin/internal/sso"
)

func newGroupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups and group membership",
	}
	cmd.AddCommand(
		newGroupFindCmd(app),
		newGroupCreateCmd(app),
		newGroupUpdateCmd(app),
		newGroupDeleteCmd(app),
		newGroupAddMemberCmd(app),
		newGroupRemoveMemberCmd(app),
		newGroupMembersCmd(app),
	)
	return cmd
}

// findOneGroup resolves name to exactly one group on the client's session.
func findOneGroup(ctx context.Context, client *sso.Client, name, domain string) (sso.Group, error) {
	groups, err := client.FindGroups(ctx, domain, name)
	if err != nil {
		return sso.Group{}, err
	}
	switch len(groups) {
	case 0:
		return sso.Group{}, fmt.Errorf("group %q not found", name)
	case 1:
		return groups[0], nil
	default:
		return sso.Group{}, fmt.Errorf("%q matches %d groups, use an exact name", name, len(groups))
	}
}

// findMember resolves the member principal named on an add-member or
// remove-member command.
func findMember(ctx context.Context, client *sso.Client, name, domain, kind string) (sso.Principal, error) {
	switch kind {
	case "user":
		user, err := findOnePersonUser(ctx, client, name, domain)
		if err != nil {
			return nil, err
		}
		return user, nil
	case "group":
		group, err := findOneGroup(ctx, client, name, domain)
		if err != nil {
			return nil, err
		}
		return group, nil
	default:
		return nil, fmt.Errorf("unknown member kind %q: use user or group", kind)
	}
}

func newGroupFindCmd(app *App) *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "find [pattern]",
		Short: "Find groups by name",
		Long: `Find groups whose names match the pattern: glob matching when the
pattern contains '*' or '?', exact matching otherwise. An empty pattern
lists the whole domain.`,
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
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) ([]groupView, error) {
				groups, err := client.FindGroups(ctx, domain, pattern)
				if err != nil {
					return nil, err
				}
				return groupViews(groups), nil
			})
			return printFanOut(app, results, renderGroupList)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain to search (default: the server's own domain)")

	return cmd
}

func newGroupCreateCmd(app *App) *cobra.Command {
	var (
		domain      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			newGroup := sso.NewGroup{
				Name:        args[0],
				Domain:      domain,
				Description: description,
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (groupView, error) {
				created, err := client.CreateGroup(ctx, newGroup)
				if err != nil {
					return groupView{}, err
				}
				return newGroupView(created), nil
			})
			return printFanOut(app, results, renderGroup)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain to create the group in (default: the server's own domain)")
	cmd.Flags().StringVar(&description, "description", "", "Description")

	return cmd
}

func newGroupUpdateCmd(app *App) *cobra.Command {
	var (
		domain      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update fields of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := sso.GroupUpdate{
				Description: changedString(cmd.Flags(), "description", &description),
			}
			if update == (sso.GroupUpdate{}) {
				return errors.New("nothing to update: pass at least one field flag")
			}

			conns, err := app.connections()
			if err != nil {
				return err
			}
			name := args[0]
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (groupView, error) {
				group, err := findOneGroup(ctx, client, name, domain)
				if err != nil {
					return groupView{}, err
				}
				updated, err := client.UpdateGroup(ctx, group, update)
				if err != nil {
					return groupView{}, err
				}
				return newGroupView(updated), nil
			})
			return printFanOut(app, results, renderGroup)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain of the group (default: the server's own domain)")
	cmd.Flags().StringVar(&description, "description", "", "Description")

	return cmd
}

func newGroupDeleteCmd(app *App) *cobra.Command {
	var (
		domain string
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conns, err := app.connections()
			if err != nil {
				return err
			}
			name := args[0]
			if !yes && !app.confirm(fmt.Sprintf("delete group %q on %d session(s)?", name, len(conns))) {
				fmt.Fprintln(app.stdout, "aborted")
				return nil
			}
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (string, error) {
				group, err := findOneGroup(ctx, client, name, domain)
				if err != nil {
					return "", err
				}
				if err := client.DeleteGroup(ctx, group); err != nil {
					return "", err
				}
				return fmt.Sprintf("deleted %s", group.ID), nil
			})
			return printFanOut(app, results, renderStatus)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain of the group (default: the server's own domain)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newGroupAddMemberCmd(app *App) *cobra.Command {
	var (
		domain       string
		memberDomain string
		kind         string
	)

	cmd := &cobra.Command{
		Use:   "add-member <group> <member>",
		Short: "Add a user or group to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("member-domain") {
				memberDomain = domain
			}
			conns, err := app.connections()
			if err != nil {
				return err
			}
			groupName, memberName := args[0], args[1]
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (string, error) {
				group, err := findOneGroup(ctx, client, groupName, domain)
				if err != nil {
					return "", err
				}
				member, err := findMember(ctx, client, memberName, memberDomain, kind)
				if err != nil {
					return "", err
				}
				if err := client.AddGroupMember(ctx, group, member); err != nil {
					return "", err
				}
				return fmt.Sprintf("added %s %s to %s", kind, member.PrincipalID(), group.ID), nil
			})
			return printFanOut(app, results, renderStatus)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain of the group (default: the server's own domain)")
	cmd.Flags().StringVar(&memberDomain, "member-domain", "", "Domain of the member (default: the group's domain)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "user", "Member kind: user or group")

	return cmd
}

func newGroupRemoveMemberCmd(app *App) *cobra.Command {
	var (
		domain       string
		memberDomain string
		kind         string
	)

	cmd := &cobra.Command{
		Use:   "remove-member <group> <member>",
		Short: "Remove a user or group from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("member-domain") {
				memberDomain = domain
			}
			conns, err := app.connections()
			if err != nil {
				return err
			}
			groupName, memberName := args[0], args[1]
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) (string, error) {
				group, err := findOneGroup(ctx, client, groupName, domain)
				if err != nil {
					return "", err
				}
				member, err := findMember(ctx, client, memberName, memberDomain, kind)
				if err != nil {
					return "", err
				}
				if err := client.RemoveGroupMember(ctx, group, member); err != nil {
					return "", err
				}
				return fmt.Sprintf("removed %s %s from %s", kind, member.PrincipalID(), group.ID), nil
			})
			return printFanOut(app, results, renderStatus)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain of the group (default: the server's own domain)")
	cmd.Flags().StringVar(&memberDomain, "member-domain", "", "Domain of the member (default: the group's domain)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "user", "Member kind: user or group")

	return cmd
}

func newGroupMembersCmd(app *App) *cobra.Command {
	var (
		domain string
		kind   string
	)

	cmd := &cobra.Command{
		Use:   "members <group> [pattern]",
		Short: "List the members of a group",
		Long: `List direct members of a group, optionally narrowed to one member kind
or to names matching a pattern.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch kind {
			case "user", "group", "all":
			default:
				return fmt.Errorf("unknown member kind %q: use user, group or all", kind)
			}
			pattern := ""
			if len(args) == 2 {
				pattern = args[1]
			}
			conns, err := app.connections()
			if err != nil {
				return err
			}
			groupName := args[0]
			results := sso.FanOut(cmd.Context(), conns, func(ctx context.Context, client *sso.Client) ([]memberView, error) {
				group, err := findOneGroup(ctx, client, groupName, domain)
				if err != nil {
					return nil, err
				}
				var members []memberView
				if kind == "all" || kind == "user" {
					users, err := client.FindPersonUsersInGroup(ctx, group, pattern)
					if err != nil {
						return nil, err
					}
					for _, u := range users {
						members = append(members, memberView{
							Kind:        string(sso.PrincipalKindPersonUser),
							Name:        u.ID.Name,
							Domain:      u.ID.Domain,
							Description: u.Description,
						})
					}
				}
				if kind == "all" || kind == "group" {
					groups, err := client.FindGroupsInGroup(ctx, group, pattern)
					if err != nil {
						return nil, err
					}
					for _, g := range groups {
						members = append(members, memberView{
							Kind:        string(sso.PrincipalKindGroup),
							Name:        g.ID.Name,
							Domain:      g.ID.Domain,
							Description: g.Description,
						})
					}
				}
				return members, nil
			})
			return printFanOut(app, results, renderMemberList)
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain of the group (default: the server's own domain)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "all", "Member kind to list: user, group or all")

	return cmd
}
