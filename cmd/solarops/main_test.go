package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarops/internal/domain"
)

func TestCollectPaperwork(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.txt", "notes.docx", "scan.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o750))

	paths, err := collectPaperwork([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "scan.png"),
	}, paths)

	_, err = collectPaperwork([]string{filepath.Join(dir, "missing.pdf")})
	assert.Error(t, err)
}

func TestCriticalFields(t *testing.T) {
	got := criticalFields([]string{"customer_name", "permit_number", "install_date"})
	assert.Equal(t, []domain.FieldName{domain.FieldCustomerName, domain.FieldInstallDate}, got)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "ingest", "export", "override", "audit", "stats", "remind"} {
		assert.True(t, names[want], want)
	}
}
