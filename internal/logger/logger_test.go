package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}

	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestInitSetsGlobalLevel(t *testing.T) {
	defer Init("info", false)

	Init("error", false)
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())

	Init("debug", false)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
