package indicator

// ExtractHistory returns the last limit non-NEUTRAL results, most recent
// first. The input is not modified.
func ExtractHistory(results []CompositeResult, limit int) []CompositeResult {
	if limit <= 0 {
		return []CompositeResult{}
	}
	out := make([]CompositeResult, 0, min(limit, len(results)))
	for i := len(results) - 1; i >= 0 && len(out) < limit; i-- {
		if results[i].Signal != SignalNeutral {
			out = append(out, results[i])
		}
	}
	return out
}
