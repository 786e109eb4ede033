// Package meta post-processes raw detections: duplicate collapsing,
// enrichment, ordering, and aggregation into per-dependency records.
package meta

import (
	"sort"

	"github.com/garagon/cppdeps/internal/types"
)

// Deduplicate removes detections sharing the same (FilePath, LineNumber,
// SourceKind, Name, Detector) composite key, keeping the first instance.
// A detection carrying a version wins over a versionless duplicate.
func Deduplicate(detections []types.Detection) []types.Detection {
	index := make(map[string]int, len(detections))
	result := make([]types.Detection, 0, len(detections))
	for _, d := range detections {
		k := d.Key()
		if i, ok := index[k]; ok {
			if result[i].Version == "" && d.Version != "" {
				result[i] = d
			}
			continue
		}
		index[k] = len(result)
		result = append(result, d)
	}
	return result
}

// SortDetections orders detections by file, line, kind, name, and detector.
func SortDetections(detections []types.Detection) {
	sort.SliceStable(detections, func(i, j int) bool {
		a, b := detections[i], detections[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.LineNumber != b.LineNumber {
			return a.LineNumber < b.LineNumber
		}
		if a.SourceKind != b.SourceKind {
			return a.SourceKind < b.SourceKind
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Detector < b.Detector
	})
}
