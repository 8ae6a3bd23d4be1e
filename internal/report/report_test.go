package report_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() report.ScoringReport {
	return report.ScoringReport{
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Metrics: api.ScoringMetrics{
			TotalAssets:         10,
			BucketsCreated:      3,
			TotalComparisons:    5,
			NaiveComparisons:    45,
			ReductionPercentage: 88.9,
		},
		Groups: []api.DuplicateGroup{
			{
				GroupID:          "g1",
				Confidence:       0.92,
				KeeperSuggestion: "a1",
				Members:          []api.GroupMember{{FileID: "a1"}, {FileID: "a2"}},
				RationaleLines:   []string{"checksum match"},
			},
		},
		Assets: []api.Asset{{ID: "a1"}, {ID: "a2"}},
	}
}

func TestGenerator_JSONReportRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	g := report.NewGenerator(nil)
	require.NoError(t, g.JSONReport(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got report.ScoringReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "g1", got.Groups[0].GroupID)
	assert.Len(t, got.Assets, 2)
}

func TestGenerator_TextReportIncludesSummaryAndGroups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")

	g := report.NewGenerator(nil)
	require.NoError(t, g.TextReport(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Assets scanned: 10")
	assert.Contains(t, text, "Group 1: g1")
	assert.Contains(t, text, "checksum match")
}

func TestGenerator_TextReportFlagsIncompleteGroup(t *testing.T) {
	r := sampleReport()
	r.Groups[0].Incomplete = true

	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	g := report.NewGenerator(nil)
	require.NoError(t, g.TextReport(r, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "may be incomplete")
}

func TestMergeResultText_FormatsSummary(t *testing.T) {
	text := report.MergeResultText(api.MergeResult{
		TransactionID: "t1",
		KeeperID:      "keep",
		RemovedIDs:    []string{"a", "b"},
		MergedFields:  []api.FieldChange{{Field: "camera_model"}},
	})
	assert.Contains(t, text, "kept keep")
	assert.Contains(t, text, "removed 2 file(s)")
	assert.Contains(t, text, "backfilled 1 field(s)")
	assert.Contains(t, text, "t1")
}

func TestUndoResultText_FailureMessage(t *testing.T) {
	assert.Equal(t, "undo did not complete", report.UndoResultText(api.UndoResult{Success: false}))
}

func TestUndoResultText_SuccessMessage(t *testing.T) {
	text := report.UndoResultText(api.UndoResult{
		Success:        true,
		RestoredIDs:    []string{"a"},
		RevertedFields: []api.FieldChange{{Field: "camera_model"}, {Field: "gps"}},
	})
	assert.Contains(t, text, "restored 1 file(s)")
	assert.Contains(t, text, "reverted 2 field(s)")
}
