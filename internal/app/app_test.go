package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistri-ai/mistri/internal/audio"
	"github.com/mistri-ai/mistri/internal/catalog"
	"github.com/mistri-ai/mistri/internal/speech"
)

func runApp(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	r := Runner{Stdout: &stdout, Stderr: &stderr, Stdin: strings.NewReader("")}
	code := r.Execute(context.Background(), args)
	return code, stdout.String(), stderr.String()
}

func TestExecuteHelp(t *testing.T) {
	code, stdout, _ := runApp(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "order")
	assert.Contains(t, stdout, "devices")
}

func TestExecuteNoArgsShowsHelp(t *testing.T) {
	code, stdout, _ := runApp(t)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Usage:")
}

func TestExecuteVersion(t *testing.T) {
	code, stdout, _ := runApp(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "mistri")
}

func TestExecuteUnknownCommand(t *testing.T) {
	code, _, stderr := runApp(t, "teleport")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown command")
	assert.Contains(t, stderr, "Usage:")
}

func TestExecuteUnknownFlag(t *testing.T) {
	code, _, stderr := runApp(t, "--frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown flag")
}

func TestSearchRequiresQuery(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	code, _, stderr := runApp(t, "search")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "requires query text")
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("MISTRI_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	code, _, stderr := runApp(t, "migrate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "MISTRI_DATABASE_URL")
}

func TestUserMessageMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "search failed"},
		{"device", audio.ErrDeviceAccess, "microphone unavailable"},
		{"no terms", catalog.ErrNoValidSearchTerms, "no usable search terms"},
		{"no speech", &speech.Error{Kind: speech.KindNoSpeech}, "no speech detected"},
		{"credentials", &speech.Error{Kind: speech.KindInvalidCredentials}, "credentials rejected"},
		{"too large", &speech.Error{Kind: speech.KindPayloadTooLarge}, "too large"},
		{"format", &speech.Error{Kind: speech.KindUnsupportedFormat}, "format rejected"},
		{"quota", &speech.Error{Kind: speech.KindQuotaExceeded}, "use typed search"},
		{"server", &speech.Error{Kind: speech.KindServerError}, "use typed search"},
		{"other", errors.New("pool exhausted"), "pool exhausted"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, userMessage(tc.err), tc.want)
		})
	}
}

func TestReadLineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := Runner{Stdin: blockingReader{}}
	_, ok := r.readLine(ctx)
	require.False(t, ok)
}

func TestReadLineDelivers(t *testing.T) {
	r := Runner{Stdin: strings.NewReader("half inch pvc\n")}
	line, ok := r.readLine(context.Background())
	require.True(t, ok)
	assert.Equal(t, "half inch pvc", line)
}

// blockingReader never returns, standing in for an idle terminal.
type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}
