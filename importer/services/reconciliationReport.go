package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReconciliationEntry compares one entity's staged source rows against its
// migrated rows.
type ReconciliationEntry struct {
	Entity       string `json:"entity"`
	SourceRows   int64  `json:"source_rows"`
	MigratedRows int64  `json:"migrated_rows"`
}

// FormatReconciliationReport renders the delimited text report: one line per
// entity comparing source vs migrated counts, then one line per recorded
// mismatch. This is the primary human-auditable artifact of a run.
func FormatReconciliationReport(sessionID string, generatedAt time.Time, entries []ReconciliationEntry, mismatches []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Reconciliation report for import session %s\n", sessionID)
	fmt.Fprintf(&b, "# Generated at %s\n", generatedAt.Format(time.RFC3339))
	b.WriteString("entity;source_rows;migrated_rows;difference\n")

	for _, entry := range entries {
		fmt.Fprintf(&b, "%s;%d;%d;%d\n",
			entry.Entity,
			entry.SourceRows,
			entry.MigratedRows,
			entry.SourceRows-entry.MigratedRows,
		)
	}

	fmt.Fprintf(&b, "mismatches;%d\n", len(mismatches))
	for _, mismatch := range mismatches {
		fmt.Fprintf(&b, "mismatch;%s\n", mismatch)
	}

	return b.String()
}

// WriteReconciliationReport writes the report into the session directory and
// returns its path. Mismatches never fail the job; they are surfaced here
// for manual review.
func WriteReconciliationReport(sessionDir, sessionID string, entries []ReconciliationEntry, mismatches []string) (string, error) {
	reportPath := filepath.Join(sessionDir, fmt.Sprintf("reconciliation_%s.txt", sessionID))
	content := FormatReconciliationReport(sessionID, time.Now(), entries, mismatches)

	if err := os.WriteFile(reportPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write reconciliation report: %w", err)
	}
	return reportPath, nil
}
