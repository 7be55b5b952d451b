package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isometry/ssoadmin/internal/sso"
)

func seedGroupFixtures(sess *fakeSession) {
	sess.seedUser(sso.PersonUser{ID: sso.PrincipalID{Name: "jdoe", Domain: "sso.local"}})
	sess.seedGroup(sso.Group{
		ID:          sso.PrincipalID{Name: "admins", Domain: "sso.local"},
		Description: "administrators",
	})
	sess.seedGroup(sso.Group{
		ID:          sso.PrincipalID{Name: "devs", Domain: "sso.local"},
		Description: "developers",
	})
}

func TestGroupFind(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, stdout, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	require.NoError(t, runCmd(app, "group", "find", "adm*"))

	out := stdout.String()
	assert.Contains(t, out, "admins@sso.local")
	assert.Contains(t, out, "administrators")
	assert.NotContains(t, out, "devs")
}

func TestGroupFindNone(t *testing.T) {
	transport := newFakeTransport()
	app, stdout, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	require.NoError(t, runCmd(app, "group", "find", "ops"))
	assert.Contains(t, stdout.String(), "no matching groups")
}

func TestGroupCreate(t *testing.T) {
	transport := newFakeTransport()
	app, stdout, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	require.NoError(t, runCmd(app, "group", "create", "devops", "--description", "delivery team"))

	assert.Contains(t, stdout.String(), "devops@sso.local")

	group, ok := transport.session("vc1").groups["devops@sso.local"]
	require.True(t, ok)
	assert.Equal(t, "delivery team", group.Description)
}

func TestGroupUpdate(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, _, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	require.NoError(t, runCmd(app, "group", "update", "admins", "--description", "domain administrators"))
	assert.Equal(t, "domain administrators", transport.session("vc1").groups["admins@sso.local"].Description)

	err := runCmd(app, "group", "update", "admins")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestGroupDelete(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, stdout, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	require.NoError(t, runCmd(app, "group", "delete", "devs", "--yes"))

	assert.Contains(t, stdout.String(), "deleted devs@sso.local")
	_, ok := transport.session("vc1").groups["devs@sso.local"]
	assert.False(t, ok)
}

func TestGroupAddMember(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, stdout, stderr := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	require.NoError(t, runCmd(app, "group", "add-member", "admins", "jdoe"))
	assert.Contains(t, stdout.String(), "added user jdoe@sso.local to admins@sso.local")

	members := transport.session("vc1").members["admins@sso.local"]
	require.Len(t, members, 1)
	assert.Equal(t, sso.PrincipalKindPersonUser, members[0].kind)
	assert.Equal(t, "jdoe", members[0].id.Name)

	err := runCmd(app, "group", "add-member", "admins", "jdoe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 sessions failed")
	assert.Contains(t, stderr.String(), "already a member")
}

func TestGroupAddGroupMember(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, stdout, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	require.NoError(t, runCmd(app, "group", "add-member", "admins", "devs", "-k", "group"))
	assert.Contains(t, stdout.String(), "added group devs@sso.local to admins@sso.local")

	members := transport.session("vc1").members["admins@sso.local"]
	require.Len(t, members, 1)
	assert.Equal(t, sso.PrincipalKindGroup, members[0].kind)
}

func TestGroupCannotContainItself(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, _, stderr := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	err := runCmd(app, "group", "add-member", "admins", "admins", "-k", "group")
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "cannot be a member of itself")
	assert.Empty(t, transport.session("vc1").members["admins@sso.local"])
}

func TestGroupAddMemberUnknownKind(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, _, stderr := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	err := runCmd(app, "group", "add-member", "admins", "jdoe", "-k", "robot")
	require.Error(t, err)
	assert.Contains(t, stderr.String(), `unknown member kind "robot"`)
}

func TestGroupRemoveMember(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, stdout, stderr := newTestApp(t, transport)
	connectHost(t, app, "vc1")
	require.NoError(t, runCmd(app, "group", "add-member", "admins", "jdoe"))

	require.NoError(t, runCmd(app, "group", "remove-member", "admins", "jdoe"))
	assert.Contains(t, stdout.String(), "removed user jdoe@sso.local from admins@sso.local")
	assert.Empty(t, transport.session("vc1").members["admins@sso.local"])

	err := runCmd(app, "group", "remove-member", "admins", "jdoe")
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "not a member")
}

func TestGroupMembers(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, stdout, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")
	require.NoError(t, runCmd(app, "group", "add-member", "admins", "jdoe"))
	require.NoError(t, runCmd(app, "group", "add-member", "admins", "devs", "-k", "group"))
	stdout.Reset()

	require.NoError(t, runCmd(app, "group", "members", "admins"))

	out := stdout.String()
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "jdoe@sso.local")
	assert.Contains(t, out, "devs@sso.local")
}

func TestGroupMembersFilterKind(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, stdout, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")
	require.NoError(t, runCmd(app, "group", "add-member", "admins", "jdoe"))
	require.NoError(t, runCmd(app, "group", "add-member", "admins", "devs", "-k", "group"))
	stdout.Reset()

	require.NoError(t, runCmd(app, "group", "members", "admins", "-k", "user"))

	out := stdout.String()
	assert.Contains(t, out, "jdoe@sso.local")
	assert.NotContains(t, out, "devs@sso.local")
}

func TestGroupMembersPattern(t *testing.T) {
	transport := newFakeTransport()
	sess := transport.session("vc1")
	seedGroupFixtures(sess)
	sess.seedUser(sso.PersonUser{ID: sso.PrincipalID{Name: "asmith", Domain: "sso.local"}})
	app, stdout, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")
	require.NoError(t, runCmd(app, "group", "add-member", "admins", "jdoe"))
	require.NoError(t, runCmd(app, "group", "add-member", "admins", "asmith"))
	stdout.Reset()

	require.NoError(t, runCmd(app, "group", "members", "admins", "j*"))

	out := stdout.String()
	assert.Contains(t, out, "jdoe@sso.local")
	assert.NotContains(t, out, "asmith")
}

func TestGroupMembersEmpty(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, stdout, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	require.NoError(t, runCmd(app, "group", "members", "admins"))
	assert.Contains(t, stdout.String(), "no members")
}

func TestGroupMembersUnknownKind(t *testing.T) {
	transport := newFakeTransport()
	seedGroupFixtures(transport.session("vc1"))
	app, _, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	err := runCmd(app, "group", "members", "admins", "-k", "robot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown member kind "robot"`)
}

func TestGroupMemberFromOtherDomain(t *testing.T) {
	transport := newFakeTransport()
	sess := transport.session("vc1")
	seedGroupFixtures(sess)
	sess.seedUser(sso.PersonUser{ID: sso.PrincipalID{Name: "esvc", Domain: "corp.example.com"}})
	app, stdout, _ := newTestApp(t, transport)
	connectHost(t, app, "vc1")

	require.NoError(t, runCmd(app, "group", "add-member", "admins", "esvc", "--member-domain", "corp.example.com"))

	assert.Contains(t, stdout.String(), "added user esvc@corp.example.com to admins@sso.local")
	members := transport.session("vc1").members["admins@sso.local"]
	require.Len(t, members, 1)
	assert.Equal(t, "corp.example.com", members[0].id.Domain)
}
