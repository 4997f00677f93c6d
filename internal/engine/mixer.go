package engine

import "math"

const (
	BucketSponsored = "sponsored"

	defaultSponsoredRatio = 0.1
)

// MixBuckets builds a page of at most pageSize items from score-ordered
// organic items, inserting sponsored items every step positions:
//
//	slots = max(1, floor(pageSize * ratios["sponsored"]))
//	step  = pageSize / slots
//
// Position i (1-based) takes the next sponsored item when fewer than slots
// have been placed, i is a multiple of step and one is left. Otherwise it
// takes the next organic item, or stays empty once organic items run out.
func MixBuckets(items []ScoredItem, ratios MixRatios, pageSize int) []ScoredItem {
	if pageSize <= 0 || len(items) == 0 {
		return []ScoredItem{}
	}

	ordered := make([]ScoredItem, len(items))
	copy(ordered, items)
	sortByScore(ordered)

	var sponsored, organic []ScoredItem
	for _, it := range ordered {
		if it.Sponsored {
			sponsored = append(sponsored, it)
		} else {
			organic = append(organic, it)
		}
	}

	ratio, ok := ratios[BucketSponsored]
	if !ok {
		ratio = defaultSponsoredRatio
	}
	slots := int(math.Floor(float64(pageSize) * ratio))
	if slots < 1 {
		slots = 1
	}
	step := pageSize / slots
	if step < 1 {
		step = 1
	}

	limit := pageSize
	if len(ordered) < limit {
		limit = len(ordered)
	}

	out := make([]ScoredItem, 0, limit)
	var si, oi int
	for i := 1; i <= limit; i++ {
		if si < slots && si < len(sponsored) && i%step == 0 {
			out = append(out, sponsored[si])
			si++
			continue
		}
		if oi < len(organic) {
			out = append(out, organic[oi])
			oi++
		}
	}
	return out
}
