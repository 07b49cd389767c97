package tracking

import (
	"math"

	"github.com/theoremus-urban-solutions/bus-tracker/utils"
)

// ComputeProgress estimates how far fix is along route. When there is
// nothing to compute (fewer than two stops, no fix, or a non-finite
// coordinate) previous is returned unchanged.
func ComputeProgress(route Route, fix *VehicleFix, previous ProgressResult) ProgressResult {
	if fix == nil {
		return previous
	}
	res, ok := EstimateProgress(route, fix.Coordinate)
	if !ok {
		return previous
	}
	return res
}

// EstimateProgress walks the route segments in order. A vehicle no farther
// from a segment's start than the segment is long is placed in that segment
// and its distance from the start is counted; otherwise the whole segment
// counts as covered. The vehicle is never projected onto the segment, so a
// vehicle behind the first stop still lands in the first segment.
//
// The second return value is false when no estimate could be made.
func EstimateProgress(route Route, at Coordinate) (ProgressResult, bool) {
	if len(route) < 2 || !at.finite() {
		return ProgressResult{}, false
	}
	for _, p := range route {
		if !p.finite() {
			return ProgressResult{}, false
		}
	}

	segments := make([]float64, len(route)-1)
	total := 0.0
	for i := range segments {
		segments[i] = route[i].DistanceKM(route[i+1].Coordinate)
		total += segments[i]
	}

	covered := 0.0
	segIdx := len(segments)
	for i, segKM := range segments {
		fromStart := route[i].DistanceKM(at)
		if fromStart <= segKM {
			covered += fromStart
			segIdx = i
			break
		}
		covered += segKM
	}

	// All stops coincide: nothing to divide by.
	if total == 0 {
		return ProgressResult{Ratio: 0, CoveredDistanceKM: 0, SegmentIndex: segIdx, Estimated: true}, true
	}

	return ProgressResult{
		Ratio:             math.Min(covered/total, 1),
		CoveredDistanceKM: utils.RoundKM(covered),
		SegmentIndex:      segIdx,
		Estimated:         true,
	}, true
}

// NextStop returns the stop the vehicle is heading to, or nil when there is
// no estimate or the vehicle has passed the final stop.
func NextStop(route Route, res ProgressResult) *RoutePoint {
	if !res.Estimated {
		return nil
	}
	next := res.SegmentIndex + 1
	if next <= 0 || next >= len(route) {
		return nil
	}
	return &route[next]
}

// RemainingKM is the route length left after res, at the two-decimal
// precision of CoveredDistanceKM.
func RemainingKM(route Route, res ProgressResult) float64 {
	rem := utils.RoundKM(utils.RoundKM(route.LengthKM()) - res.CoveredDistanceKM)
	if rem < 0 {
		return 0
	}
	return rem
}
