package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amcmath/internal/progression"
	"amcmath/internal/security"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	out, err := execute(t, "token", "--learner", "learner-7", "--email", "l7@example.com", "--ttl", "1h")
	require.NoError(t, err)

	learner, err := security.NewTokenManager("cli-secret", time.Hour).Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "learner-7", learner.ID)
	assert.Equal(t, "l7@example.com", learner.Email)
}

const cliCatalog = `
paths:
  - slug: algebra-avengers
    title: Algebra Avengers
    order: 1
    subpaths:
      - stage: BASIC
        title: Basic
        levels:
          - title: Warm-up
            problems:
              - id: aa-1
                title: One
                statement: 1+1
  - slug: knights-of-number
    title: Knights of Number
    order: 3
`

func TestSeedExportImportProgress(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	t.Setenv("DATABASE_TYPE", "sqlite")

	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(cliCatalog), 0o644))
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")
	backup := filepath.Join(dir, "out", "backup.json")

	out, err := execute(t, "seed", "--db-path", src, "--file", catalog)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 2 paths")

	out, err = execute(t, "export", "--db-path", src, "--output", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 paths")

	out, err = execute(t, "import", "--db-path", dst, "--input", backup, "--clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 paths, 1 problems")

	out, err = execute(t, "progress", "--db-path", dst, "--learner", "nobody", "--path", "")
	require.NoError(t, err)
	var paths []progression.PathProgress
	require.NoError(t, json.Unmarshal([]byte(out), &paths))
	require.Len(t, paths, 2)
	assert.Equal(t, "algebra-avengers", paths[0].Slug)
	assert.True(t, paths[0].IsUnlocked)
	assert.False(t, paths[1].IsUnlocked)
}
