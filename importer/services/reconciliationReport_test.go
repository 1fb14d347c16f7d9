package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatReconciliationReport(t *testing.T) {
	generatedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	entries := []ReconciliationEntry{
		{Entity: "products", SourceRows: 120, MigratedRows: 120},
		{Entity: "sales", SourceRows: 48, MigratedRows: 46},
	}
	mismatches := []string{
		"Sale 900123: product 999 not found",
	}

	report := FormatReconciliationReport("20260314-093000-abc123", generatedAt, entries, mismatches)
	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")

	require.Len(t, lines, 7)
	assert.Equal(t, "# Reconciliation report for import session 20260314-093000-abc123", lines[0])
	assert.Equal(t, "# Generated at 2026-03-14T09:30:00Z", lines[1])
	assert.Equal(t, "entity;source_rows;migrated_rows;difference", lines[2])
	assert.Equal(t, "products;120;120;0", lines[3])
	assert.Equal(t, "sales;48;46;2", lines[4])
	assert.Equal(t, "mismatches;1", lines[5])
	assert.Equal(t, "mismatch;Sale 900123: product 999 not found", lines[6])
}

func TestFormatReconciliationReportNoMismatches(t *testing.T) {
	report := FormatReconciliationReport("s1", time.Now(), nil, nil)
	assert.Contains(t, report, "mismatches;0\n")
	assert.NotContains(t, report, "mismatch;Sale")
}

func TestWriteReconciliationReport(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteReconciliationReport(dir, "s1", []ReconciliationEntry{
		{Entity: "customers", SourceRows: 10, MigratedRows: 10},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reconciliation_s1.txt"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "customers;10;10;0")
}
