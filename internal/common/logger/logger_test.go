package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		"":        zap.InfoLevel,
		" INFO ":  zap.InfoLevel,
		"warning": zap.WarnLevel,
		"error":   zap.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		log, err := New("debug", env)
		require.NoError(t, err)
		require.True(t, log.Core().Enabled(zap.DebugLevel))
	}

	_, err := New("loud", "production")
	require.Error(t, err)
}
