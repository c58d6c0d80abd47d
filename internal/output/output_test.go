package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_StatusWithIcon(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Status("🔍", "searching")
	assert.Equal(t, "🔍 searching\n", buf.String())
}

func TestWriter_StatusWithoutIcon(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Status("", "indented")
	assert.Equal(t, "   indented\n", buf.String())
}

func TestWriter_NoColorForBuffer(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf) // bytes.Buffer is not a terminal

	w.Success("done")
	assert.NotContains(t, buf.String(), "\033[")
	assert.Contains(t, buf.String(), "done")
}

func TestWriter_ErrorAndWarning(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Errorf("provider %s failed", "news")
	w.Warningf("%d providers skipped", 2)

	out := buf.String()
	assert.Contains(t, out, "provider news failed")
	assert.Contains(t, out, "2 providers skipped")
}

func TestWriter_Code(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Code("line1\nline2")
	assert.Contains(t, buf.String(), "  line1\n  line2\n")
}
