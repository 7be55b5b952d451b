package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/isometry/ssoadmin/internal/sso"
)

// fanOutEntry is one session's slice of a JSON result array. JSON output
// is always an array so single- and multi-session runs parse the same.
type fanOutEntry[T any] struct {
	Connection string `json:"connection"`
	Result     *T     `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printFanOut renders per-session results and turns partial failure into
// a non-nil error after every session has reported.
func printFanOut[T any](a *App, results []sso.FanOutResult[T], render func(io.Writer, T)) error {
	if a.jsonOut {
		entries := make([]fanOutEntry[T], 0, len(results))
		for _, res := range results {
			e := fanOutEntry[T]{Connection: res.Conn.String()}
			if res.Err != nil {
				e.Error = res.Err.Error()
			} else {
				value := res.Value
				e.Result = &value
			}
			entries = append(entries, e)
		}
		if err := writeJSON(a.stdout, entries); err != nil {
			return err
		}
	} else {
		prefix := len(results) > 1
		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintf(a.stderr, "%s: %v\n", res.Conn, res.Err)
				continue
			}
			if prefix {
				fmt.Fprintf(a.stdout, "%s:\n", res.Conn)
			}
			render(a.stdout, res.Value)
		}
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions failed", failed, len(results))
	}
	return nil
}

func renderStatus(w io.Writer, status string) {
	fmt.Fprintln(w, status)
}

type sessionView struct {
	ID        string `json:"id"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	User      string `json:"user"`
	Refs      int    `json:"refs"`
	Connected bool   `json:"connected"`
}

type userView struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Description string `json:"description,omitempty"`
	Disabled    bool   `json:"disabled,omitempty"`
	Locked      bool   `json:"locked,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
}

func newUserView(u sso.PersonUser) userView {
	return userView{
		Name:        u.ID.Name,
		Domain:      u.ID.Domain,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.EmailAddress,
		Description: u.Description,
		Disabled:    u.Disabled,
		Locked:      u.Locked,
		ExternalID:  u.ExternalID,
	}
}

func userViews(users []sso.PersonUser) []userView {
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	return views
}

func userState(u userView) string {
	switch {
	case u.Disabled && u.Locked:
		return "disabled,locked"
	case u.Disabled:
		return "disabled"
	case u.Locked:
		return "locked"
	default:
		return "active"
	}
}

func renderUser(w io.Writer, u userView) {
	fmt.Fprintf(w, "%s@%s (%s)\n", u.Name, u.Domain, userState(u))
	if full := strings.TrimSpace(u.FirstName + " " + u.LastName); full != "" {
		fmt.Fprintf(w, "  name:  %s\n", full)
	}
	if u.Email != "" {
		fmt.Fprintf(w, "  email: %s\n", u.Email)
	}
	if u.Description != "" {
		fmt.Fprintf(w, "  description: %s\n", u.Description)
	}
}

func renderUserList(w io.Writer, users []userView) {
	if len(users) == 0 {
		fmt.Fprintln(w, "no matching users")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tNAME\tEMAIL\tSTATE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s@%s\t%s\t%s\t%s\n",
			u.Name, u.Domain, strings.TrimSpace(u.FirstName+" "+u.LastName), u.Email, userState(u))
	}
	tw.Flush()
}

type groupView struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Description string `json:"description,omitempty"`
}

func newGroupView(g sso.Group) groupView {
	return groupView{Name: g.ID.Name, Domain: g.ID.Domain, Description: g.Description}
}

func groupViews(groups []sso.Group) []groupView {
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, newGroupView(g))
	}
	return views
}

func renderGroup(w io.Writer, g groupView) {
	fmt.Fprintf(w, "%s@%s\n", g.Name, g.Domain)
	if g.Description != "" {
		fmt.Fprintf(w, "  description: %s\n", g.Description)
	}
}

func renderGroupList(w io.Writer, groups []groupView) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "no matching groups")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tDESCRIPTION")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s@%s\t%s\n", g.Name, g.Domain, g.Description)
	}
	tw.Flush()
}

type memberView struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Description string `json:"description,omitempty"`
}

func renderMemberList(w io.Writer, members []memberView) {
	if len(members) == 0 {
		fmt.Fprintln(w, "no members")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tMEMBER\tDESCRIPTION")
	for _, m := range members {
		fmt.Fprintf(tw, "%s\t%s@%s\t%s\n", m.Kind, m.Name, m.Domain, m.Description)
	}
	tw.Flush()
}

type passwordPolicyView struct {
	Description                    string `json:"description,omitempty"`
	ProhibitedPreviousPasswords    int    `json:"prohibited_previous_passwords"`
	MinLength                      int    `json:"min_length"`
	MaxLength                      int    `json:"max_length"`
	MinAlphabeticCount             int    `json:"min_alphabetic"`
	MinUppercaseCount              int    `json:"min_uppercase"`
	MinLowercaseCount              int    `json:"min_lowercase"`
	MinNumericCount                int    `json:"min_numeric"`
	MinSpecialCharCount            int    `json:"min_special"`
	MaxIdenticalAdjacentCharacters int    `json:"max_identical_adjacent"`
	PasswordLifetimeDays           int    `json:"lifetime_days"`
}

func newPasswordPolicyView(p sso.PasswordPolicy) passwordPolicyView {
	return passwordPolicyView{
		Description:                    p.Description,
		ProhibitedPreviousPasswords:    p.ProhibitedPreviousPasswords,
		MinLength:                      p.MinLength,
		MaxLength:                      p.MaxLength,
		MinAlphabeticCount:             p.MinAlphabeticCount,
		MinUppercaseCount:              p.MinUppercaseCount,
		MinLowercaseCount:              p.MinLowercaseCount,
		MinNumericCount:                p.MinNumericCount,
		MinSpecialCharCount:            p.MinSpecialCharCount,
		MaxIdenticalAdjacentCharacters: p.MaxIdenticalAdjacentCharacters,
		PasswordLifetimeDays:           p.PasswordLifetimeDays,
	}
}

func renderPasswordPolicy(w io.Writer, p passwordPolicyView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if p.Description != "" {
		fmt.Fprintf(tw, "description:\t%s\n", p.Description)
	}
	fmt.Fprintf(tw, "prohibited previous passwords:\t%d\n", p.ProhibitedPreviousPasswords)
	fmt.Fprintf(tw, "length:\t%d-%d\n", p.MinLength, p.MaxLength)
	fmt.Fprintf(tw, "min alphabetic:\t%d\n", p.MinAlphabeticCount)
	fmt.Fprintf(tw, "min uppercase:\t%d\n", p.MinUppercaseCount)
	fmt.Fprintf(tw, "min lowercase:\t%d\n", p.MinLowercaseCount)
	fmt.Fprintf(tw, "min numeric:\t%d\n", p.MinNumericCount)
	fmt.Fprintf(tw, "min special:\t%d\n", p.MinSpecialCharCount)
	fmt.Fprintf(tw, "max identical adjacent:\t%d\n", p.MaxIdenticalAdjacentCharacters)
	fmt.Fprintf(tw, "password lifetime:\t%d days\n", p.PasswordLifetimeDays)
	tw.Flush()
}

type lockoutPolicyView struct {
	Description           string `json:"description,omitempty"`
	MaxFailedAttempts     int    `json:"max_failed_attempts"`
	FailedAttemptInterval string `json:"failed_attempt_interval"`
	AutoUnlockInterval    string `json:"auto_unlock_interval"`
}

func newLockoutPolicyView(p sso.LockoutPolicy) lockoutPolicyView {
	return lockoutPolicyView{
		Description:           p.Description,
		MaxFailedAttempts:     p.MaxFailedAttempts,
		FailedAttemptInterval: p.FailedAttemptInterval.String(),
		AutoUnlockInterval:    p.AutoUnlockInterval.String(),
	}
}

func renderLockoutPolicy(w io.Writer, p lockoutPolicyView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if p.Description != "" {
		fmt.Fprintf(tw, "description:\t%s\n", p.Description)
	}
	fmt.Fprintf(tw, "max failed attempts:\t%d\n", p.MaxFailedAttempts)
	fmt.Fprintf(tw, "failed attempt interval:\t%s\n", p.FailedAttemptInterval)
	fmt.Fprintf(tw, "auto unlock interval:\t%s\n", p.AutoUnlockInterval)
	tw.Flush()
}

type tokenLifetimeView struct {
	MaxHoKTokenLifetime    string `json:"max_hok_lifetime"`
	MaxBearerTokenLifetime string `json:"max_bearer_lifetime"`
}

func newTokenLifetimeView(t sso.TokenLifetime) tokenLifetimeView {
	return tokenLifetimeView{
		MaxHoKTokenLifetime:    t.MaxHoKTokenLifetime.String(),
		MaxBearerTokenLifetime: t.MaxBearerTokenLifetime.String(),
	}
}

func renderTokenLifetime(w io.Writer, t tokenLifetimeView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "max holder-of-key lifetime:\t%s\n", t.MaxHoKTokenLifetime)
	fmt.Fprintf(tw, "max bearer lifetime:\t%s\n", t.MaxBearerTokenLifetime)
	tw.Flush()
}

type idsourceView struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Alias        string `json:"alias,omitempty"`
	ServerType   string `json:"server_type,omitempty"`
	AuthUsername string `json:"auth_username,omitempty"`
	FriendlyName string `json:"friendly_name,omitempty"`
	UserBaseDN   string `json:"user_base_dn,omitempty"`
	GroupBaseDN  string `json:"group_base_dn,omitempty"`
	PrimaryURL   string `json:"primary_url,omitempty"`
	FailoverURL  string `json:"failover_url,omitempty"`
	Certificates int    `json:"certificates,omitempty"`
}

func newIdsourceView(s sso.IdentitySource) idsourceView {
	view := idsourceView{
		Name:         s.Name,
		Kind:         string(s.Kind),
		Alias:        s.Alias,
		ServerType:   string(s.ServerType),
		AuthUsername: s.AuthUsername,
	}
	if s.Details != nil {
		view.FriendlyName = s.Details.FriendlyName
		view.UserBaseDN = s.Details.UserBaseDN
		view.GroupBaseDN = s.Details.GroupBaseDN
		view.PrimaryURL = s.Details.PrimaryURL
		view.FailoverURL = s.Details.FailoverURL
		view.Certificates = len(s.Details.Certificates)
	}
	return view
}

func idsourceViews(sources []sso.IdentitySource) []idsourceView {
	views := make([]idsourceView, 0, len(sources))
	for _, s := range sources {
		views = append(views, newIdsourceView(s))
	}
	return views
}

func renderIdsource(w io.Writer, s idsourceView) {
	fmt.Fprintf(w, "%s (%s)\n", s.Name, s.Kind)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if s.Alias != "" {
		fmt.Fprintf(tw, "  alias:\t%s\n", s.Alias)
	}
	if s.ServerType != "" {
		fmt.Fprintf(tw, "  server type:\t%s\n", s.ServerType)
	}
	if s.FriendlyName != "" {
		fmt.Fprintf(tw, "  friendly name:\t%s\n", s.FriendlyName)
	}
	if s.PrimaryURL != "" {
		fmt.Fprintf(tw, "  primary URL:\t%s\n", s.PrimaryURL)
	}
	if s.FailoverURL != "" {
		fmt.Fprintf(tw, "  failover URL:\t%s\n", s.FailoverURL)
	}
	if s.UserBaseDN != "" {
		fmt.Fprintf(tw, "  user base DN:\t%s\n", s.UserBaseDN)
	}
	if s.GroupBaseDN != "" {
		fmt.Fprintf(tw, "  group base DN:\t%s\n", s.GroupBaseDN)
	}
	if s.AuthUsername != "" {
		fmt.Fprintf(tw, "  bind user:\t%s\n", s.AuthUsername)
	}
	if s.Certificates > 0 {
		fmt.Fprintf(tw, "  certificates:\t%d\n", s.Certificates)
	}
	tw.Flush()
}

func renderIdsourceList(w io.Writer, sources []idsourceView) {
	if len(sources) == 0 {
		fmt.Fprintln(w, "no identity sources")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tKIND\tALIAS\tSERVER TYPE\tPRIMARY URL")
	for _, s := range sources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Name, s.Kind, s.Alias, s.ServerType, s.PrimaryURL)
	}
	tw.Flush()
}
