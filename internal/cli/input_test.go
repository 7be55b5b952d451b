package cli

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubTerminal(t *testing.T, secret string, readErr error) {
	t.Helper()
	origIsTerminal, origReadPassword := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = origIsTerminal, origReadPassword })
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) {
		if readErr != nil {
			return nil, readErr
		}
		return []byte(secret), nil
	}
}

func TestResolvePasswordFlagWins(t *testing.T) {
	t.Setenv("SSOADM_PASSWORD", "from-env")
	app, _, _ := newTestApp(t, newFakeTransport())

	pass, err := app.resolvePassword("from-flag", "SSOADM_PASSWORD", "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", pass)
}

func TestResolvePasswordFromEnvironment(t *testing.T) {
	t.Setenv("SSOADM_PASSWORD", "from-env")
	app, _, _ := newTestApp(t, newFakeTransport())

	pass, err := app.resolvePassword("", "SSOADM_PASSWORD", "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "from-env", pass)
}

func TestResolvePasswordIgnoresEnvWithoutKey(t *testing.T) {
	t.Setenv("SSOADM_PASSWORD", "from-env")
	app, _, _ := newTestApp(t, newFakeTransport())
	app.stdin = strings.NewReader("typed\n")

	pass, err := app.resolvePassword("", "", "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "typed", pass, "commands without an environment fallback go straight to the prompt")
}

func TestPromptPasswordFromPipe(t *testing.T) {
	app, _, stderr := newTestApp(t, newFakeTransport())
	app.stdin = strings.NewReader("secret\r\n")

	pass, err := app.promptPassword("Password for admin: ")
	require.NoError(t, err)
	assert.Equal(t, "secret", pass)
	assert.Contains(t, stderr.String(), "Password for admin: ")
}

func TestPromptPasswordWithoutTrailingNewline(t *testing.T) {
	app, _, _ := newTestApp(t, newFakeTransport())
	app.stdin = strings.NewReader("secret")

	pass, err := app.promptPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "secret", pass)
}

func TestPromptPasswordEmptyInput(t *testing.T) {
	app, _, _ := newTestApp(t, newFakeTransport())

	_, err := app.promptPassword("Password: ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read password")
}

func TestPromptPasswordFromTerminal(t *testing.T) {
	stubTerminal(t, "tty-secret", nil)
	app, _, stderr := newTestApp(t, newFakeTransport())

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	app.stdin = r

	pass, err := app.promptPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "tty-secret", pass, "terminal input goes through the no-echo reader")
	assert.Contains(t, stderr.String(), "Password: ")
}

func TestPromptPasswordTerminalError(t *testing.T) {
	stubTerminal(t, "", fmt.Errorf("tty gone"))
	app, _, _ := newTestApp(t, newFakeTransport())

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	app.stdin = r

	_, err = app.promptPassword("Password: ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read password")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"YES\n", true},
		{" y \n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false},
		{"nope\n", false},
	}
	for _, tt := range tests {
		app, _, stderr := newTestApp(t, newFakeTransport())
		app.stdin = strings.NewReader(tt.input)

		assert.Equal(t, tt.want, app.confirm("proceed?"), "input %q", tt.input)
		assert.Contains(t, stderr.String(), "proceed? [y/N]: ")
	}
}
