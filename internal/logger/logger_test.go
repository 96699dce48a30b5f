package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStandardLoggerLevelGating(t *testing.T) {
	var errBuf, infoBuf, debugBuf bytes.Buffer
	l := New("info", &errBuf, &infoBuf, &debugBuf)

	l.Debug("should not appear")
	l.Info("hello info")
	l.Error("hello error")

	require.Empty(t, debugBuf.String())
	require.Contains(t, infoBuf.String(), "hello info")
	require.Contains(t, errBuf.String(), "hello error")
}

func TestStandardLoggerWithFields(t *testing.T) {
	var infoBuf bytes.Buffer
	l := New("debug", nil, &infoBuf, nil)

	scoped := l.WithField("request_id", "abc123")
	scoped.Info("processed")

	require.True(t, strings.Contains(infoBuf.String(), "processed"))
	require.True(t, strings.Contains(infoBuf.String(), "request_id=abc123"))
}

func TestNoOpLoggerDiscardsEverything(t *testing.T) {
	var n NoOp
	n.Debug("x")
	n.Info("y")
	n.Error("z")
	require.Equal(t, n, n.WithField("k", "v"))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("debug"))
	require.Equal(t, LevelInfo, ParseLevel(""))
	require.Equal(t, LevelNone, ParseLevel("none"))
}
