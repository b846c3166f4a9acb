package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommands(t *testing.T) {
	cases := []struct {
		args []string
		want Command
	}{
		{[]string{"order"}, CommandOrder},
		{[]string{"devices"}, CommandDevices},
		{[]string{"migrate"}, CommandMigrate},
		{[]string{"doctor"}, CommandDoctor},
		{[]string{"version"}, CommandVersion},
		{[]string{"help"}, CommandHelp},
	}
	for _, tc := range cases {
		parsed, err := Parse(tc.args)
		require.NoError(t, err, "%v", tc.args)
		assert.Equal(t, tc.want, parsed.Command)
	}
}

func TestParseNoArgsShowsHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	assert.True(t, parsed.ShowHelp)
	assert.Equal(t, CommandHelp, parsed.Command)
}

func TestParseSearchCollectsQuery(t *testing.T) {
	parsed, err := Parse([]string{"search", "pvc", "pipe", "1/2", "inch"})
	require.NoError(t, err)
	assert.Equal(t, CommandSearch, parsed.Command)
	assert.Equal(t, "pvc pipe 1/2 inch", parsed.Query)
}

func TestParseSearchEmptyQuery(t *testing.T) {
	parsed, err := Parse([]string{"search"})
	require.NoError(t, err)
	assert.Equal(t, CommandSearch, parsed.Command)
	assert.Empty(t, parsed.Query)
}

func TestParseEnvFlag(t *testing.T) {
	parsed, err := Parse([]string{"--env", "/tmp/test.env", "doctor"})
	require.NoError(t, err)
	assert.Equal(t, CommandDoctor, parsed.Command)
	assert.Equal(t, "/tmp/test.env", parsed.EnvPath)
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--env"},
		{"--bogus"},
		{"unknowncmd"},
		{"doctor", "extra"},
	} {
		_, err := Parse(args)
		require.Error(t, err, "%v", args)
	}
}

func TestHelpTextMentionsCommands(t *testing.T) {
	text := HelpText("mistri")
	for _, want := range []string{"order", "search", "devices", "migrate", "doctor", "version"} {
		assert.Contains(t, text, want)
	}
}
