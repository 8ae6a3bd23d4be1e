// Package report renders scoring, merge and undo results as JSON or
// human-readable text.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/sirupsen/logrus"
)

// ScoringReport bundles a scoring run's assets, groups and metrics for
// rendering and for replay by a later merge command.
type ScoringReport struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Metrics     api.ScoringMetrics   `json:"metrics"`
	Groups      []api.DuplicateGroup `json:"groups"`
	Assets      []api.Asset          `json:"assets"`
}

// Generator renders ScoringReport, MergePlan and MergeResult values to
// JSON or text files.
type Generator struct {
	logger *logrus.Logger
}

// NewGenerator returns a Generator.
func NewGenerator(logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Generator{logger: logger}
}

// JSONReport marshals v as indented JSON to outputPath.
func (g *Generator) JSONReport(v any, outputPath string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}
	g.logger.WithField("path", outputPath).Info("JSON report written")
	return nil
}

// TextReport writes a human-readable rendering of a ScoringReport.
func (g *Generator) TextReport(r ScoringReport, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create text report: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(renderScoringText(r)); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	g.logger.WithField("path", outputPath).Info("text report written")
	return nil
}

func renderScoringText(r ScoringReport) string {
	var content string

	content += "MEDIA DEDUPLICATION REPORT\n"
	content += "==========================\n\n"

	content += "SUMMARY\n"
	content += "-------\n"
	content += fmt.Sprintf("Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	content += fmt.Sprintf("Assets scanned: %d\n", r.Metrics.TotalAssets)
	content += fmt.Sprintf("Buckets created: %d\n", r.Metrics.BucketsCreated)
	content += fmt.Sprintf("Comparisons: %d (of %d naive, %.1f%% reduction)\n",
		r.Metrics.TotalComparisons, r.Metrics.NaiveComparisons, r.Metrics.ReductionPercentage)
	content += fmt.Sprintf("Duplicate groups: %d\n\n", len(r.Groups))

	if len(r.Groups) > 0 {
		content += "DUPLICATE GROUPS\n"
		content += "-----------------\n"
		for i, grp := range r.Groups {
			content += fmt.Sprintf("Group %d: %s\n", i+1, grp.GroupID)
			content += fmt.Sprintf("  Confidence: %.2f\n", grp.Confidence)
			content += fmt.Sprintf("  Keeper suggestion: %s\n", grp.KeeperSuggestion)
			content += fmt.Sprintf("  Members: %d\n", len(grp.Members))
			if grp.Incomplete {
				content += "  NOTE: scoring limits were hit — this group may be incomplete\n"
			}
			for _, line := range grp.RationaleLines {
				content += fmt.Sprintf("  - %s\n", line)
			}
			content += "\n"
		}
	}

	return content
}

// MergeResultText renders a MergeResult as a short human summary line,
// used by the CLI after a merge completes.
func MergeResultText(res api.MergeResult) string {
	return fmt.Sprintf("merged group: kept %s, removed %d file(s), backfilled %d field(s) (transaction %s)",
		res.KeeperID, len(res.RemovedIDs), len(res.MergedFields), res.TransactionID)
}

// UndoResultText renders an UndoResult as a short human summary line.
func UndoResultText(res api.UndoResult) string {
	if !res.Success {
		return "undo did not complete"
	}
	return fmt.Sprintf("restored %d file(s), reverted %d field(s)", len(res.RestoredIDs), len(res.RevertedFields))
}
