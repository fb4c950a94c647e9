package attention

import "sort"

// priorityRank orders priorities for sorting; unknown values sink to the end.
func priorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 999
	}
}

// resolve deduplicates findings by reason code, orders them, and caps the
// list.
//
// Deduplication is upgrade-only: the standing keeper for a reason code is
// replaced only when the incoming finding is CRITICAL, or is HIGH while the
// keeper is not CRITICAL. A later MEDIUM never displaces an earlier HIGH, but
// a later HIGH displaces an earlier HIGH. This is not plain max-priority
// selection and must stay that way.
func resolve(findings []Item) []Item {
	var kept []Item
	index := make(map[ReasonCode]int)
	for _, f := range findings {
		i, seen := index[f.ReasonCode]
		if !seen {
			index[f.ReasonCode] = len(kept)
			kept = append(kept, f)
			continue
		}
		switch {
		case f.Priority == PriorityCritical:
			kept[i] = f
		case f.Priority == PriorityHigh && kept[i].Priority != PriorityCritical:
			kept[i] = f
		}
	}
	sort.SliceStable(kept, func(a, b int) bool {
		ra, rb := priorityRank(kept[a].Priority), priorityRank(kept[b].Priority)
		if ra != rb {
			return ra < rb
		}
		return kept[a].SortWeight > kept[b].SortWeight
	})
	if len(kept) > maxItems {
		kept = kept[:maxItems]
	}
	if kept == nil {
		kept = []Item{}
	}
	return kept
}
