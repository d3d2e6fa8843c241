package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("SELECT 1;"), 0o644))
	}
	return dir
}

func names(ms []Migration) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

func TestLoadMigrations_PairsAndOrders(t *testing.T) {
	dir := writeFiles(t,
		"002_points.sql", "002_points.down.sql",
		"001_jobs.sql", "001_jobs.down.sql",
		"README.md",
	)

	ms, err := loadMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_jobs.sql", "002_points.sql"}, names(ms))
	assert.Equal(t, filepath.Join(dir, "001_jobs.down.sql"), ms[0].Down)
}

func TestLoadMigrations_MissingDown(t *testing.T) {
	dir := writeFiles(t, "001_jobs.sql", "001_jobs.down.sql", "002_points.sql")

	_, err := loadMigrations(dir)
	assert.ErrorContains(t, err, "002_points.down.sql")
}

func TestLoadMigrations_OrphanDown(t *testing.T) {
	dir := writeFiles(t, "001_jobs.sql", "001_jobs.down.sql", "003_gone.down.sql")

	_, err := loadMigrations(dir)
	assert.ErrorContains(t, err, "003_gone.down.sql")
}

func TestLoadMigrations_RepositoryScripts(t *testing.T) {
	ms, err := loadMigrations(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	assert.Equal(t, []string{"001_enrichment_jobs.sql", "002_highway_points.sql"}, names(ms))
}

func TestPending_SkipsApplied(t *testing.T) {
	all := []Migration{{Name: "001"}, {Name: "002"}, {Name: "003"}}

	got := pending(all, map[string]bool{"001": true})
	assert.Equal(t, []string{"002", "003"}, names(got))
	assert.Empty(t, pending(all, map[string]bool{"001": true, "002": true, "003": true}))
}

func TestRollback_NewestFirst(t *testing.T) {
	all := []Migration{{Name: "001"}, {Name: "002"}, {Name: "003"}}
	applied := map[string]bool{"001": true, "002": true}

	got, err := rollback(all, applied, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"002"}, names(got))

	got, err = rollback(all, applied, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"002", "001"}, names(got))
}

func TestRollback_Errors(t *testing.T) {
	all := []Migration{{Name: "001"}}

	_, err := rollback(all, map[string]bool{}, 1)
	assert.ErrorContains(t, err, "nothing to revert")

	_, err = rollback(all, map[string]bool{"001": true}, 0)
	assert.ErrorContains(t, err, "steps must be positive")
}
