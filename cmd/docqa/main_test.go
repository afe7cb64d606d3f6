package main

import (
	"flag"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestContext(t *testing.T, args map[string]string) *cli.Context {
	t.Helper()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for name, value := range args {
		set.String(name, value, "")
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
			c := newTestContext(t, map[string]string{"log-level": level})
			assert.NoError(t, setupLogger(c), "level %q", level)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		c := newTestContext(t, map[string]string{"log-level": "verbose"})
		err := setupLogger(c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("debug level enables debug logging", func(t *testing.T) {
		c := newTestContext(t, map[string]string{"log-level": "debug"})
		require.NoError(t, setupLogger(c))
		assert.True(t, slog.Default().Enabled(nil, slog.LevelDebug))
	})
}

func TestReembedConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "zero batch size",
			args: []string{"docqa", "--db", t.TempDir(), "reembed", "--batch-size", "0"},
			want: "batch-size",
		},
		{
			name: "zero report interval",
			args: []string{"docqa", "--db", t.TempDir(), "reembed", "--report-interval", "0"},
			want: "report-interval",
		},
		{
			name: "zero max retries",
			args: []string{"docqa", "--db", t.TempDir(), "reembed", "--max-retries", "0"},
			want: "max-retries",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newApp()
			err := app.Run(tc.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestAppRequiresDatabaseFlag(t *testing.T) {
	app := newApp()
	err := app.Run([]string{"docqa", "docs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long t…", truncate("long truncated", 6))
}
