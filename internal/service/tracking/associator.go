// Package tracking assigns stable identities to per-frame person detections
// by matching boxes across frames (SORT-style IoU association).
package tracking

import (
	"sort"

	"dwellwatch/internal/model"
)

const (
	// DefaultIoUThreshold is the minimum overlap for a detection to continue a track.
	DefaultIoUThreshold = 0.3
	// DefaultMaxAge is how many frames a track survives without a match.
	DefaultMaxAge = 30
)

// Candidate is an unlabelled detection from the detector.
type Candidate struct {
	Box        model.BoundingBox
	Confidence float64
}

type track struct {
	id              model.IdentityID
	box             model.BoundingBox
	hits            int
	timeSinceUpdate int
}

// Associator keeps the tracks of one video. It is not safe for concurrent use;
// each session owns its own.
type Associator struct {
	tracks       []*track
	nextID       model.IdentityID
	iouThreshold float64
	maxAge       int
}

// NewAssociator creates an associator. Non-positive arguments select the defaults.
func NewAssociator(iouThreshold float64, maxAge int) *Associator {
	if iouThreshold <= 0 {
		iouThreshold = DefaultIoUThreshold
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Associator{
		nextID:       1,
		iouThreshold: iouThreshold,
		maxAge:       maxAge,
	}
}

// Update matches candidates to live tracks, opens tracks for the rest and
// returns the labelled detections in candidate order.
func (a *Associator) Update(candidates []Candidate) []model.Detection {
	for _, tr := range a.tracks {
		tr.timeSinceUpdate++
	}

	type pair struct {
		track, candidate int
		iou              float64
	}
	var pairs []pair
	for ti, tr := range a.tracks {
		for ci, c := range candidates {
			if v := IoU(tr.box, c.Box); v > a.iouThreshold {
				pairs = append(pairs, pair{ti, ci, v})
			}
		}
	}
	// Best overlaps first; ties resolved by the older track.
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].iou != pairs[j].iou {
			return pairs[i].iou > pairs[j].iou
		}
		return pairs[i].track < pairs[j].track
	})

	assigned := make([]*track, len(candidates))
	trackUsed := make([]bool, len(a.tracks))
	for _, p := range pairs {
		if trackUsed[p.track] || assigned[p.candidate] != nil {
			continue
		}
		trackUsed[p.track] = true
		assigned[p.candidate] = a.tracks[p.track]
	}

	detections := make([]model.Detection, 0, len(candidates))
	for ci, c := range candidates {
		tr := assigned[ci]
		if tr == nil {
			tr = &track{id: a.nextID}
			a.nextID++
			a.tracks = append(a.tracks, tr)
		}
		tr.box = c.Box
		tr.hits++
		tr.timeSinceUpdate = 0

		detections = append(detections, model.Detection{
			IdentityID: tr.id,
			Box:        c.Box,
			Confidence: c.Confidence,
		})
	}

	// Remove stale tracks
	live := a.tracks[:0]
	for _, tr := range a.tracks {
		if tr.timeSinceUpdate <= a.maxAge {
			live = append(live, tr)
		}
	}
	a.tracks = live

	return detections
}

// TrackCount returns the number of live tracks.
func (a *Associator) TrackCount() int {
	return len(a.tracks)
}

// IoU is the intersection over union of two boxes.
func IoU(a, b model.BoundingBox) float64 {
	inter := model.BoundingBox{
		X1: max(a.X1, b.X1),
		Y1: max(a.Y1, b.Y1),
		X2: min(a.X2, b.X2),
		Y2: min(a.Y2, b.Y2),
	}.Area()
	if inter == 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
