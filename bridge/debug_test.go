package bridge

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type debugSink struct {
	lines [][]byte
}

func (s *debugSink) fn(line []byte) {
	s.lines = append(s.lines, append([]byte(nil), line...))
}

func TestDebugHandler_NULTerminatedLines(t *testing.T) {
	sink := &debugSink{}
	logger := slog.New(NewDebugHandler(sink.fn, nil))

	logger.Info("hello", "k", "v")
	logger.Warn("second")

	require.Len(t, sink.lines, 2)
	for _, line := range sink.lines {
		assert.Equal(t, byte(0), line[len(line)-1])
		assert.Equal(t, 1, bytes.Count(line, []byte{0}))
		assert.NotContains(t, string(line), "\n")
	}
	assert.Contains(t, string(sink.lines[0]), "msg=hello k=v")
	assert.Contains(t, string(sink.lines[1]), "level=WARN")
}

func TestDebugHandler_Level(t *testing.T) {
	sink := &debugSink{}
	logger := slog.New(NewDebugHandler(sink.fn, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("dropped")
	logger.Error("kept")

	require.Len(t, sink.lines, 1)
	assert.Contains(t, string(sink.lines[0]), "kept")
}

func TestDebugHandler_NilFunc(t *testing.T) {
	logger := slog.New(NewDebugHandler(nil, nil))
	assert.NotPanics(t, func() { logger.Info("nowhere") })
}

func TestDbg(t *testing.T) {
	sink := &debugSink{}
	logger := slog.New(NewDebugHandler(sink.fn, &slog.HandlerOptions{Level: slog.LevelDebug}))

	n := Dbg(logger, "1 + 41", 1+41)
	s := Dbg(logger, "name", "ada")

	assert.Equal(t, 42, n)
	assert.Equal(t, "ada", s)
	require.Len(t, sink.lines, 2)

	first := string(sink.lines[0])
	assert.Contains(t, first, "level=DEBUG")
	assert.Contains(t, first, "debug_test.go:")
	assert.Contains(t, first, "1 + 41 = 42")

	// %#v quotes strings; the text handler escapes those quotes.
	assert.True(t, strings.Contains(string(sink.lines[1]), `name = \"ada\"`))
}

func TestDbg_DisabledLevelSkipsFormatting(t *testing.T) {
	sink := &debugSink{}
	logger := slog.New(NewDebugHandler(sink.fn, nil))

	v := Dbg(logger, "x", []int{1, 2})
	assert.Equal(t, []int{1, 2}, v)
	assert.Empty(t, sink.lines)
}

func TestDbg_NilLogger(t *testing.T) {
	assert.Equal(t, 7, Dbg(nil, "seven", 7))
}
