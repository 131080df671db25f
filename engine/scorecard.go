package engine

import "math"

// applyScorecard sums one scorecard's parameters into the running score and
// applies its thresholds to the case type.
//
// Per parameter: the first band whose closed [min, max] interval contains
// the resolved value contributes floor(score × weight); later bands are not
// consulted. An absent or non-numeric value contributes nothing.
//
// Thresholds compare against the running score accumulated so far across
// the whole evaluation, not just this scorecard. At or above the
// direct-accept threshold the case type is upgraded — but only from NORMAL,
// so a more specific earlier outcome survives. Below the refer threshold
// the case type is forced to GCRP unconditionally. The asymmetry makes the
// final case type depend on scorecard order; that ordering is significant
// and deliberately preserved.
func applyScorecard(dc *decisionContext, sc *Scorecard, proposal Proposal) {
	for _, param := range sc.Parameters {
		value, ok := toFloat(ResolveField(proposal, param.Field))
		if !ok {
			continue
		}
		for _, band := range param.Bands {
			if bandContains(band, value) {
				dc.score += int(math.Floor(band.Score * param.Weight))
				break
			}
		}
	}

	if dc.score >= sc.ThresholdDirectAccept {
		if dc.caseType == CaseNormal {
			dc.caseType = CaseDirectAccept
		}
	} else if dc.score < sc.ThresholdRefer {
		dc.caseType = CaseGCRP
	}
}

func bandContains(band Band, value float64) bool {
	min := math.Inf(-1)
	if band.Min != nil {
		min = *band.Min
	}
	max := math.Inf(1)
	if band.Max != nil {
		max = *band.Max
	}
	return min <= value && value <= max
}
