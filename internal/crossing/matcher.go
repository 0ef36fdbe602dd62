package crossing

import (
	"sort"
	"time"

	"LeverageLens/internal/model"
)

// Match pairs every A event with the nearest B event no more than
// toleranceDays calendar days away. A events without such a partner are
// dropped. When two B events are equally near, the earlier one wins. A B
// event may serve several A events. Both inputs must be sorted.
func Match(a, b []time.Time, toleranceDays int) []model.MatchedPair {
	if toleranceDays < 0 || len(b) == 0 {
		return nil
	}
	var pairs []model.MatchedPair
	for _, ev := range a {
		lo := ev.AddDate(0, 0, -toleranceDays)
		i := sort.Search(len(b), func(k int) bool { return !model.Day(b[k]).Before(model.Day(lo)) })

		best, bestDist := -1, 0
		for ; i < len(b); i++ {
			off := model.DaysBetween(ev, b[i])
			if off > toleranceDays {
				break
			}
			dist := off
			if dist < 0 {
				dist = -dist
			}
			// strict < keeps the earlier candidate on ties
			if best < 0 || dist < bestDist {
				best, bestDist = i, dist
			}
		}
		if best < 0 {
			continue
		}
		pairs = append(pairs, model.MatchedPair{
			A:          ev,
			B:          b[best],
			OffsetDays: model.DaysBetween(ev, b[best]),
		})
	}
	return pairs
}

// Offsets extracts the signed day offsets of pairs.
func Offsets(pairs []model.MatchedPair) []int {
	out := make([]int, len(pairs))
	for i, p := range pairs {
		out[i] = p.OffsetDays
	}
	return out
}
