package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	New(&buf, true).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	WithRun(New(&buf, false)).Info("hello")
	assert.Regexp(t, `run_id=[0-9a-f-]{36}`, buf.String())
}
