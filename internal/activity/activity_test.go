package activity

import (
	"bytes"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
)

func TestLoggerRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	clock := quartz.NewMock(t)
	clock.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	al := NewLogger(logger, clock)
	al.Record("create_session", "alice@example.com", "session", "ab12cd34")

	out := buf.String()
	assert.Contains(t, out, "op=create_session")
	assert.Contains(t, out, "identity=alice@example.com")
	assert.Contains(t, out, "session=ab12cd34")
}

func TestNopRecord(t *testing.T) {
	// Must be safe to call with any arguments.
	Nop{}.Record("anything", "", 1, "two", nil)
}
