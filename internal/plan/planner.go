package plan

import (
	"math"

	"github.com/darianrosebrook/deduper/internal/api"
)

// Planner computes MergePlans from duplicate groups.
type Planner struct{}

// NewPlanner returns a Planner.
func NewPlanner() *Planner { return &Planner{} }

// Plan computes the merge plan for group with keeperID as the chosen
// survivor. keeperID need not be the suggested keeper — any member id is
// accepted.
func (p *Planner) Plan(group api.DuplicateGroup, members []api.Asset, keeperID string) (api.MergePlan, error) {
	memberByID := make(map[string]api.Asset, len(members))
	for _, a := range members {
		memberByID[a.ID] = a
	}

	keeper, ok := memberByID[keeperID]
	if !ok {
		return api.MergePlan{}, api.ErrKeeperNotFound
	}

	inGroup := false
	for _, m := range group.Members {
		if m.FileID == keeperID {
			inGroup = true
			break
		}
	}
	if !inGroup {
		return api.MergePlan{}, api.ErrKeeperNotInGroup
	}

	trashList := make([]string, 0, len(members)-1)
	var spaceFreed int64
	for _, m := range group.Members {
		if m.FileID == keeperID {
			continue
		}
		trashList = append(trashList, m.FileID)
		if a, ok := memberByID[m.FileID]; ok {
			spaceFreed += a.FileSize
		}
	}

	rankOrder := RankOrder(members)
	changes := backfillFields(keeper, memberByID, rankOrder)

	return api.MergePlan{
		GroupID:             group.GroupID,
		KeeperID:            keeperID,
		TrashList:           trashList,
		FieldChanges:        changes,
		Atomic:              true,
		EstimatedSpaceFreed: spaceFreed,
	}, nil
}

// backfillFields walks the fixed field list, and for each field empty on
// the keeper, picks the first non-empty value among the other members in
// rank order.
func backfillFields(keeper api.Asset, memberByID map[string]api.Asset, rankOrder []string) []api.FieldChange {
	var changes []api.FieldChange

	if !keeper.HasCaptureTime {
		for _, id := range rankOrder {
			if id == keeper.ID {
				continue
			}
			if src, ok := memberByID[id]; ok && src.HasCaptureTime {
				changes = append(changes, api.FieldChange{Field: "capture_time", SourceID: id, NewValue: src.CaptureTime})
				break
			}
		}
	}

	if !keeper.HasGPS {
		for _, id := range rankOrder {
			if id == keeper.ID {
				continue
			}
			if src, ok := memberByID[id]; ok && src.HasGPS {
				lat, lon := NormalizeGPS(src.GPSLat, src.GPSLon)
				changes = append(changes, api.FieldChange{Field: "gps", SourceID: id, NewValue: [2]float64{lat, lon}})
				break
			}
		}
	}

	if keeper.CameraModel == "" {
		for _, id := range rankOrder {
			if id == keeper.ID {
				continue
			}
			if src, ok := memberByID[id]; ok && src.CameraModel != "" {
				changes = append(changes, api.FieldChange{Field: "camera_model", SourceID: id, NewValue: src.CameraModel})
				break
			}
		}
	}

	if len(keeper.Keywords) == 0 {
		for _, id := range rankOrder {
			if id == keeper.ID {
				continue
			}
			if src, ok := memberByID[id]; ok && len(src.Keywords) > 0 {
				changes = append(changes, api.FieldChange{Field: "keywords", SourceID: id, NewValue: src.Keywords})
				break
			}
		}
	}

	if len(keeper.Tags) == 0 {
		for _, id := range rankOrder {
			if id == keeper.ID {
				continue
			}
			if src, ok := memberByID[id]; ok && len(src.Tags) > 0 {
				changes = append(changes, api.FieldChange{Field: "tags", SourceID: id, NewValue: src.Tags})
				break
			}
		}
	}

	return changes
}

// NormalizeGPS clamps lat/lon to valid ranges and rounds to 6 decimal
// places, so the same coordinate always compares and serializes the same
// way regardless of source precision.
func NormalizeGPS(lat, lon float64) (float64, float64) {
	lat = clamp(lat, -90, 90)
	lon = clamp(lon, -180, 180)
	return round6(lat), round6(lon)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round6(v float64) float64 {
	const factor = 1e6
	return math.Round(v*factor) / factor
}
