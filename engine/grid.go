package engine

import "fmt"

// applyGrid resolves the proposal into a row/column bucket pair and merges
// the matching cell's outcome into the context. Bucket values are opaque
// strings matched exactly; the first matching cell wins. No match means no
// effect, and an absent row or column value never matches anything.
func applyGrid(dc *decisionContext, grid *Grid, proposal Proposal) {
	rowValue := formatValue(ResolveField(proposal, grid.RowField))
	colValue := formatValue(ResolveField(proposal, grid.ColField))
	if rowValue == "" || colValue == "" {
		return
	}

	for _, cell := range grid.Cells {
		if cell.RowValue != rowValue || cell.ColValue != colValue {
			continue
		}

		switch cell.Result {
		case GridDecline:
			dc.stpDecision = DecisionFail
			dc.caseType = CaseDirectFail
			dc.reasonFlag = ReasonFlagFailPrint
			dc.reasonMessages = append(dc.reasonMessages,
				fmt.Sprintf("Grid %s: %s × %s = DECLINE", grid.Name, rowValue, colValue))
		case GridRefer:
			dc.caseType = CaseGCRP
			dc.reasonMessages = append(dc.reasonMessages,
				fmt.Sprintf("Grid %s: %s × %s = REFER", grid.Name, rowValue, colValue))
		}

		if cell.ScoreImpact != 0 {
			dc.score += cell.ScoreImpact
		}
		return
	}
}
