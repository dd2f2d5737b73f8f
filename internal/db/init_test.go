package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesRecordsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ricecall.sqlite")
	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()

	var name string
	err = conn.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'records'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "records", name)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ricecall.sqlite")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
