package crossing

import "LeverageLens/internal/model"

// Classify buckets offsets (B date minus A date) into A leads, B leads and
// simultaneous. Under the consistent convention a positive offset means A
// crossed first; the flip-downward convention inverts that for downward
// crossings only.
func Classify(offsets []int, dir model.Direction, conv model.SignConvention) model.LeadLag {
	ll := model.LeadLag{Direction: dir, Matched: len(offsets)}
	flip := conv == model.ConventionFlipDownward && dir == model.Downward
	for _, off := range offsets {
		switch {
		case off == 0:
			ll.Simultaneous++
		case (off > 0) != flip:
			ll.ALeads++
		default:
			ll.BLeads++
		}
	}
	if ll.Matched == 0 {
		return ll
	}
	total := float64(ll.Matched)
	ll.ALeadsPct = pct(ll.ALeads, total)
	ll.BLeadsPct = pct(ll.BLeads, total)
	ll.SimultaneousPct = pct(ll.Simultaneous, total)
	return ll
}

func pct(n int, total float64) *float64 {
	v := float64(n) / total * 100
	return &v
}
