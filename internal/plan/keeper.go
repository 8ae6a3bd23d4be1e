// Package plan selects a keeper within a duplicate group and computes the
// merge plan (what to trash, what metadata to backfill) for executing it.
package plan

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/darianrosebrook/deduper/internal/api"
)

// FormatPreference scores a file extension by how desirable it is to keep,
// per the fixed ranking RAW > PNG > JPEG > HEIC > everything else.
func FormatPreference(path string) float64 {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "raw", "cr2", "nef", "arw", "dng", "orf", "rw2":
		return 1.0
	case "png":
		return 0.9
	case "jpg", "jpeg":
		return 0.7
	case "heic", "heif":
		return 0.5
	default:
		return 0.0
	}
}

// CompletenessScore is the fraction of optional metadata fields populated
// on asset, out of {dimensions, capture_time, camera_model, gps, keywords,
// tags}.
func CompletenessScore(a api.Asset) float64 {
	total := 6.0
	var filled float64
	if a.HasDimensions {
		filled++
	}
	if a.HasCaptureTime {
		filled++
	}
	if a.CameraModel != "" {
		filled++
	}
	if a.HasGPS {
		filled++
	}
	if len(a.Keywords) > 0 {
		filled++
	}
	if len(a.Tags) > 0 {
		filled++
	}
	return filled / total
}

// rank is the lexicographic tuple keeper selection maximizes. Go compares
// structs of comparable fields fine, but we need ordered comparison, so
// rank implements a Less-style comparator instead of relying on ==.
type rank struct {
	formatPreference  float64
	completeness      float64
	effectiveResolution int64
	fileSize          int64
	negAgeOfModNanos  int64 // -age: larger (more recently modified) ranks higher
	fileID            string
}

func rankOf(a api.Asset) rank {
	var resolution int64
	if a.HasDimensions {
		resolution = int64(a.Width) * int64(a.Height)
	}
	return rank{
		formatPreference:    FormatPreference(a.Path),
		completeness:        CompletenessScore(a),
		effectiveResolution: resolution,
		fileSize:            a.FileSize,
		negAgeOfModNanos:    a.ModifiedAt.UnixNano(),
		fileID:              a.ID,
	}
}

// greater reports whether r outranks other under the keeper tuple. Ties at
// every numeric field fall back to ascending file id — a deterministic,
// arbitrary tie-break documented as an explicit design decision.
func (r rank) greater(other rank) bool {
	if r.formatPreference != other.formatPreference {
		return r.formatPreference > other.formatPreference
	}
	if r.completeness != other.completeness {
		return r.completeness > other.completeness
	}
	if r.effectiveResolution != other.effectiveResolution {
		return r.effectiveResolution > other.effectiveResolution
	}
	if r.fileSize != other.fileSize {
		return r.fileSize > other.fileSize
	}
	if r.negAgeOfModNanos != other.negAgeOfModNanos {
		return r.negAgeOfModNanos > other.negAgeOfModNanos
	}
	return r.fileID < other.fileID
}

// SuggestKeeper returns the id of the member that outranks every other
// member under the keeper tuple. Callers may override this and supply any
// member id to Plan — the planner accepts it unconditionally as long as it
// belongs to the group.
func SuggestKeeper(members []api.Asset) string {
	if len(members) == 0 {
		return ""
	}
	best := members[0]
	bestRank := rankOf(best)
	for _, m := range members[1:] {
		r := rankOf(m)
		if r.greater(bestRank) {
			best = m
			bestRank = r
		}
	}
	return best.ID
}

// RankOrder returns member ids sorted from most to least preferred keeper,
// used by Plan when backfilling fields from trash members.
func RankOrder(members []api.Asset) []string {
	sorted := append([]api.Asset(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rankOf(sorted[i]).greater(rankOf(sorted[j]))
	})
	ids := make([]string, len(sorted))
	for i, a := range sorted {
		ids[i] = a.ID
	}
	return ids
}
