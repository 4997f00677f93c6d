package engine

import "sort"

const (
	// maxTypeStreak is the longest run of one content type streak-rewrite allows.
	maxTypeStreak = 3
	// streakMinItems: lists this short are returned unchanged.
	streakMinItems = 5
	// decayMinItems: score-decay skips lists this short.
	decayMinItems = 3
	// decayFromNth is the per-type occurrence at which score-decay starts.
	decayFromNth = 3
)

// StreakRewrite reorders items so no more than three of the same type run
// consecutively whenever a later item of another type exists. The first
// unplaced item of a different type is pulled forward. The result is a
// permutation of items. Lists of five or fewer are returned as is.
func StreakRewrite(items []ScoredItem) []ScoredItem {
	if len(items) <= streakMinItems {
		return items
	}

	out := make([]ScoredItem, 0, len(items))
	placed := make([]bool, len(items))
	var (
		runType ContentType
		run     int
	)
	place := func(i int) {
		placed[i] = true
		out = append(out, items[i])
		if items[i].Type == runType {
			run++
		} else {
			runType, run = items[i].Type, 1
		}
	}

	for i := range items {
		for !placed[i] {
			if run >= maxTypeStreak && items[i].Type == runType {
				if alt := nextOtherType(items, placed, i+1, runType); alt >= 0 {
					place(alt)
					continue
				}
			}
			place(i)
		}
	}
	return out
}

func nextOtherType(items []ScoredItem, placed []bool, from int, t ContentType) int {
	for j := from; j < len(items); j++ {
		if !placed[j] && items[j].Type != t {
			return j
		}
	}
	return -1
}

// ScoreDecay multiplies the third and later item of each type by
// (1 - factor*0.5), walking items in their current order, then re-sorts by
// score descending. Ties keep their prior order. The input is not modified.
func ScoreDecay(items []ScoredItem, factor float64) []ScoredItem {
	out := make([]ScoredItem, len(items))
	copy(out, items)
	if len(out) <= decayMinItems || factor <= 0 {
		return out
	}

	multiplier := 1 - factor*0.5
	seen := make(map[ContentType]int)
	for i := range out {
		seen[out[i].Type]++
		if seen[out[i].Type] >= decayFromNth {
			out[i].Score = round2(out[i].Score * multiplier)
		}
	}

	sortByScore(out)
	return out
}

func sortByScore(items []ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
}
