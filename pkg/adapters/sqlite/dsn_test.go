package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	assert.Equal(t, "/tmp/f.db?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dsn("/tmp/f.db"))
	assert.Equal(t, "file:f.db?cache=shared&_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dsn("file:f.db?cache=shared"))
}
