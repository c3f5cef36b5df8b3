package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobmatch/internal/domain/model"
)

func TestCommandsRegistry(t *testing.T) {
	for name, cmd := range commands() {
		assert.Equal(t, name, cmd.name)
		assert.NotEmpty(t, cmd.description, name)
		assert.NotNil(t, cmd.run, name)
	}
	assert.Contains(t, commands(), "expire-once")
	assert.Contains(t, commands(), "stats")
}

func TestPrintStats(t *testing.T) {
	stats := &model.JobStats{Pending: 12, Assigned: 3, Expired: 40}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printStats(&buf, stats, statsOptions{}))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 6)
		assert.Equal(t, []string{"STATUS", "JOBS"}, strings.Fields(lines[0]))
		assert.Equal(t, []string{"pending", "12"}, strings.Fields(lines[1]))
		assert.Equal(t, []string{"expired", "40"}, strings.Fields(lines[3]))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printStats(&buf, stats, statsOptions{JSON: true}))

		assert.JSONEq(t, `{"pending":12,"assigned":3,"expired":40,"completed":0,"cancelled":0}`, buf.String())
	})
}

func TestParseExpireOnceFlags(t *testing.T) {
	opts, err := parseExpireOnceFlags([]string{"--batch-size", "50", "--timeout", "5s"})
	require.NoError(t, err)
	assert.Equal(t, 50, opts.BatchSize)
	assert.Equal(t, 5*time.Second, opts.Timeout)

	opts, err = parseExpireOnceFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultCommandTimeout, opts.Timeout)
	assert.Zero(t, opts.BatchSize)

	_, err = parseExpireOnceFlags([]string{"--batch-size", "-1"})
	require.Error(t, err)

	_, err = parseExpireOnceFlags([]string{"--timeout", "0s"})
	require.Error(t, err)
}

func TestParseDBResetFlags(t *testing.T) {
	opts, err := parseDBResetFlags([]string{"--yes", "--seed"})
	require.NoError(t, err)
	assert.True(t, opts.Yes)
	assert.True(t, opts.Seed)
	assert.False(t, opts.AllowRemote)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := map[string]bool{
		"":                    false,
		"localhost":           false,
		"127.0.0.1":           false,
		"::1":                 false,
		"postgres":            false,
		"db.local":            false,
		"10.0.4.12":           true,
		"prod-db.example.com": true,
		"  LOCALHOST  ":       false,
	}
	for host, want := range tests {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestConfirmActionFrom(t *testing.T) {
	opts := dbResetConfirmOptions{target: "database \"jobmatch\" on localhost:5432"}

	t.Run("yes answer", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, confirmActionFrom(strings.NewReader("y\n"), &out, opts, "reset database schema"))
		assert.Contains(t, out.String(), "About to reset database schema for database \"jobmatch\"")
	})

	t.Run("anything else aborts", func(t *testing.T) {
		err := confirmActionFrom(strings.NewReader("\n"), &bytes.Buffer{}, opts, "reset database schema")
		require.EqualError(t, err, "aborted by user")
	})

	t.Run("yes flag skips prompt", func(t *testing.T) {
		var out bytes.Buffer
		yes := dbResetConfirmOptions{yes: true}
		require.NoError(t, confirmActionFrom(strings.NewReader(""), &out, yes, "reset database schema"))
		assert.Empty(t, out.String())
	})

	t.Run("dry run skips prompt", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, confirmActionFrom(strings.NewReader(""), &out, clearWeatherOptions{DryRun: true}, "delete cached weather"))
		assert.Empty(t, out.String())
	})

	t.Run("remote host ignores yes flag", func(t *testing.T) {
		remote := dbResetConfirmOptions{yes: true, remoteHost: "prod-db.example.com"}
		err := confirmActionFrom(strings.NewReader("no\n"), &bytes.Buffer{}, remote, "reset database schema")
		require.Error(t, err)
	})
}
