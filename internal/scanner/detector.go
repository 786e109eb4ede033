// Package scanner orchestrates file discovery, per-file detector execution,
// enrichment, and aggregation for C/C++ dependency detection.
package scanner

import "context"

// Detector maps the content of one file to zero or more detections of a
// single ecosystem. Detectors never see the directory tree.
type Detector interface {
	Name() string
	Detect(ctx context.Context, target *Target) ([]Detection, error)
}

// DetectorSet is implemented by detectors that evaluate several rules and
// label each detection with the rule's own ID.
type DetectorSet interface {
	DetectorIDs() []string
}

// Enricher annotates a detection after all detectors have run.
type Enricher interface {
	Name() string
	Enrich(d *Detection)
}
