package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("positional path with defaults", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse([]string{"main.hcl"}, out)
		require.NoError(t, err)
		assert.False(t, exit)
		assert.Equal(t, "main.hcl", cfg.TransformationPath)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Zero(t, cfg.BufferSize)
		assert.Empty(t, cfg.Overrides)
	})

	t.Run("all flags", func(t *testing.T) {
		cfg, exit, err := Parse([]string{
			"-f", "dir",
			"-log-format", "TEXT",
			"-log-level", "Debug",
			"-healthcheck-port", "8080",
			"-buffer-size", "16",
			"-set", "read.FILENAME=a.csv",
			"-set", "gen.LIMIT=3",
		}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.False(t, exit)
		assert.Equal(t, "dir", cfg.TransformationPath)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 8080, cfg.HealthcheckPort)
		assert.Equal(t, 16, cfg.BufferSize)
		assert.Equal(t, []string{"read.FILENAME=a.csv", "gen.LIMIT=3"}, cfg.Overrides)
	})

	t.Run("long flag wins over shorthand and positional", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-file", "a.hcl", "-f", "b.hcl", "c.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.TransformationPath)
	})

	t.Run("no path prints usage", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse(nil, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("help", func(t *testing.T) {
		_, exit, err := Parse([]string{"-h"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.True(t, exit)
	})
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"-nope"}, "flag provided but not defined"},
		{"bad log format", []string{"-log-format", "xml", "a.hcl"}, "invalid log-format"},
		{"bad log level", []string{"-log-level", "trace", "a.hcl"}, "invalid log-level"},
		{"bad setting", []string{"-set", "LIMIT=3", "a.hcl"}, "expected step.KEY=value"},
		{"negative buffer", []string{"-buffer-size", "-1", "a.hcl"}, "BufferSize"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}
