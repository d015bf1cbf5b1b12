package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/grant-review/internal/normalize"
)

func TestReadSubmission_Text(t *testing.T) {
	raw, err := readSubmission("Build an indexer.", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Build an indexer.", raw)
}

func TestReadSubmission_Conflicts(t *testing.T) {
	_, err := readSubmission("x", "y.md", nil)
	assert.ErrorContains(t, err, "not both")

	_, err = readSubmission("", "", nil)
	assert.ErrorContains(t, err, "required")
}

func TestReadSubmission_StructuredJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "program": {"name": "Builders"},
  "answers": [{"field": "budget", "value": 40000}]
}`), 0o644))

	raw, err := readSubmission("", path, nil)
	require.NoError(t, err)

	sub, ok := normalize.AsStructured(raw)
	require.True(t, ok)
	assert.Equal(t, "Builders", sub.Program.Name)
	require.Len(t, sub.Answers, 1)
	assert.Equal(t, "budget", sub.Answers[0].Field)
}

func TestReadSubmission_TextFileAndStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proposal.md")
	require.NoError(t, os.WriteFile(path, []byte("# Proposal\n\nFund the audit.\n"), 0o644))

	raw, err := readSubmission("", path, nil)
	require.NoError(t, err)
	assert.Contains(t, raw, "Fund the audit.")

	raw, err = readSubmission("", "-", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", raw)
}

func TestReadSubmission_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	_, err := readSubmission("", path, nil)
	assert.ErrorContains(t, err, "empty")
}
