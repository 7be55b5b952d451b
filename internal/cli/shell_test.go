package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{``, nil},
		{`   `, nil},
		{`sessions`, []string{"sessions"}},
		{`connect vc1 -u admin`, []string{"connect", "vc1", "-u", "admin"}},
		{`  spaced   out  `, []string{"spaced", "out"}},
		{`user create "John Doe"`, []string{"user", "create", "John Doe"}},
		{`user find 'j*'`, []string{"user", "find", "j*"}},
		{`a\ b`, []string{"a b"}},
		{`"a\"b"`, []string{`a"b`}},
		{`'a\b'`, []string{`a\b`}},
		{`--description ""`, []string{"--description", ""}},
	}
	for _, tt := range tests {
		got, err := splitArgs(tt.line)
		require.NoError(t, err, "line %q", tt.line)
		assert.Equal(t, tt.want, got, "line %q", tt.line)
	}
}

func TestSplitArgsErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`user find "x`, "unterminated \" quote"},
		{`user find 'x`, "unterminated ' quote"},
		{`trailing\`, "trailing backslash"},
	}
	for _, tt := range tests {
		_, err := splitArgs(tt.line)
		require.Error(t, err, "line %q", tt.line)
		assert.Contains(t, err.Error(), tt.want, "line %q", tt.line)
	}
}

func TestShellSessionsPersistAcrossLines(t *testing.T) {
	transport := newFakeTransport()
	app, stdout, _ := newTestApp(t, transport)
	app.stdin = strings.NewReader(
		"connect vc1 -u admin -p hunter2\n" +
			"sessions\n" +
			"exit\n")

	require.NoError(t, app.runShell(context.Background()))

	out := stdout.String()
	assert.Contains(t, out, "ssoadm console (dev)")
	assert.Contains(t, out, "connected to admin@vc1")
	assert.Contains(t, out, "SESSION", "the session opened on line one is visible on line two")
	assert.Contains(t, out, "ssoadm(1)> ", "the prompt counts held sessions")

	assert.Empty(t, app.registry.Active(), "exit drains held sessions")
	assert.True(t, transport.session("vc1").closed)
}

func TestShellEOFDrainsSessions(t *testing.T) {
	transport := newFakeTransport()
	app, _, _ := newTestApp(t, transport)
	app.stdin = strings.NewReader("connect vc1 -u admin -p hunter2\n")

	require.NoError(t, app.runShell(context.Background()))

	assert.Empty(t, app.registry.Active())
	assert.True(t, transport.session("vc1").closed)
}

func TestShellQuitAlias(t *testing.T) {
	transport := newFakeTransport()
	app, _, _ := newTestApp(t, transport)
	app.stdin = strings.NewReader("connect vc1 -u admin -p hunter2\nquit\n")

	require.NoError(t, app.runShell(context.Background()))
	assert.Empty(t, app.registry.Active())
}

func TestShellExitDrainsSharedReferences(t *testing.T) {
	transport := newFakeTransport()
	app, _, _ := newTestApp(t, transport)
	app.stdin = strings.NewReader(
		"connect vc1 -u admin -p hunter2\n" +
			"connect vc1 -u admin -p hunter2\n" +
			"exit\n")

	require.NoError(t, app.runShell(context.Background()))

	assert.Empty(t, app.registry.Active(), "exit unwinds every reference, not just one")
	assert.True(t, transport.session("vc1").closed)
}

func TestShellContinuesAfterErrors(t *testing.T) {
	transport := newFakeTransport()
	app, stdout, stderr := newTestApp(t, transport)
	app.stdin = strings.NewReader("bogus\nversion\nexit\n")

	require.NoError(t, app.runShell(context.Background()))

	assert.Contains(t, stderr.String(), "unknown command")
	assert.Contains(t, stdout.String(), "ssoadm dev (none)", "the loop continues after a failed line")
}

func TestShellReportsBadQuoting(t *testing.T) {
	transport := newFakeTransport()
	app, _, stderr := newTestApp(t, transport)
	app.stdin = strings.NewReader("user find \"x\nexit\n")

	require.NoError(t, app.runShell(context.Background()))
	assert.Contains(t, stderr.String(), "unterminated \" quote")
}

func TestShellSkipsBlankLines(t *testing.T) {
	transport := newFakeTransport()
	app, stdout, stderr := newTestApp(t, transport)
	app.stdin = strings.NewReader("\n   \nversion\nexit\n")

	require.NoError(t, app.runShell(context.Background()))

	assert.Empty(t, stderr.String())
	assert.Contains(t, stdout.String(), "ssoadm dev (none)")
}

func TestShellPerLineFlagsDoNotLeak(t *testing.T) {
	transport := newFakeTransport()
	app, stdout, _ := newTestApp(t, transport)
	app.stdin = strings.NewReader("sessions --json\nsessions\nexit\n")

	require.NoError(t, app.runShell(context.Background()))

	out := stdout.String()
	assert.Contains(t, out, "[]", "the first line reports JSON")
	assert.Contains(t, out, "no active sessions", "--json does not stick to the next line")
}

func TestShellRootLineShowsHelp(t *testing.T) {
	transport := newFakeTransport()
	app, stdout, _ := newTestApp(t, transport)
	app.stdin = strings.NewReader("--json\nexit\n")

	require.NoError(t, app.runShell(context.Background()))
	assert.Contains(t, stdout.String(), "Usage:", "a bare root invocation inside the console must not nest another console")
}

func TestPromptReflectsSessionCount(t *testing.T) {
	transport := newFakeTransport()
	app, _, _ := newTestApp(t, transport)

	assert.Equal(t, "ssoadm> ", app.prompt())

	connectHost(t, app, "vc1")
	connectHost(t, app, "vc2")
	assert.Equal(t, "ssoadm(2)> ", app.prompt())
}
