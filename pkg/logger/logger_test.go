package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_Fallback(t *testing.T) {
	assert.Equal(t, L.Logger, G(context.Background()).Logger)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	ctx := WithLogger(context.Background(), logrus.NewEntry(l).WithField("solution", "s1"))

	G(ctx).Info("hello")
	assert.Contains(t, buf.String(), "solution=s1")
}

func TestSetLogLevel(t *testing.T) {
	prev := L.Logger.GetLevel()
	t.Cleanup(func() { L.Logger.SetLevel(prev) })

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())
	assert.Error(t, SetLogLevel("loud"))
}

func TestSetLogFormat_JSON(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFmt := L.Logger.Out, L.Logger.Formatter
	t.Cleanup(func() {
		L.Logger.SetOutput(prevOut)
		L.Logger.Formatter = prevFmt
	})

	SetLogOutput(&buf)
	SetLogFormat("json")
	L.Warn("careful")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "careful", rec["message"])
	assert.Equal(t, "warning", rec["level"])
}

func TestDiscard(t *testing.T) {
	e := Discard()
	e.Error("nothing")
	assert.Equal(t, logrus.PanicLevel, e.Logger.GetLevel())
}
