package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"mapping-editor/internal/auth"
	"mapping-editor/internal/mapping/mappingtest"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func writePage(t *testing.T, pairs ...string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	rows, details := mappingtest.Page(pairs...)
	rowsPath := filepath.Join(dir, "rows.html")
	detailsPath := filepath.Join(dir, "details.html")
	require.NoError(t, os.WriteFile(rowsPath, []byte(rows), 0o644))
	require.NoError(t, os.WriteFile(detailsPath, []byte(details), 0o644))
	return rowsPath, detailsPath
}

func TestExportCommand(t *testing.T) {
	rows, details := writePage(t, "city", "source", "country", "fixed_value")

	out := execute(t, "export", "--rows", rows, "--details", details, "--format", "json")
	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, "CITY", got["city"]["source_field"])

	out = execute(t, "export", "--rows", rows, "--details", details, "--format", "yaml")
	got = nil
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "country")
}

func TestTokenCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EDITOR_JWT_SECRET", "test-secret")

	out := execute(t, "token", "--subject", "alice", "--roles", "editor,admin")
	claims, err := auth.ParseAccessToken(strings.TrimSpace(out), "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, []string{"editor", "admin"}, claims.Roles)
}
