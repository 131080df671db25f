package engine

import "testing"

func TestApplyActionFailDecision(t *testing.T) {
	dc := newDecisionContext()

	dc.applyAction("High Sum Assured Check", CategorySTPDecision, RuleAction{
		Decision:      DecisionFail,
		ReasonCode:    "STP001",
		ReasonMessage: "Sum assured exceeds STP limit",
	})

	if dc.stpDecision != DecisionFail {
		t.Errorf("stpDecision = %q, want FAIL", dc.stpDecision)
	}
	if dc.reasonFlag != ReasonFlagFailPrint {
		t.Errorf("reasonFlag = %d, want %d", dc.reasonFlag, ReasonFlagFailPrint)
	}
	// A plain FAIL does not touch the case type
	if dc.caseType != CaseNormal {
		t.Errorf("caseType = %d, want NORMAL", dc.caseType)
	}
	if len(dc.triggeredRules) != 1 || dc.triggeredRules[0] != "High Sum Assured Check" {
		t.Errorf("triggeredRules = %v", dc.triggeredRules)
	}
}

func TestApplyActionHardStop(t *testing.T) {
	dc := newDecisionContext()

	dc.applyAction("Missing Income Validation", CategoryValidation, RuleAction{
		Decision:      DecisionFail,
		ReasonCode:    "VAL001",
		ReasonMessage: "Applicant income is missing or invalid",
		IsHardStop:    true,
	})

	if dc.caseType != CaseDirectFail {
		t.Errorf("caseType = %d, want DIRECT_FAIL", dc.caseType)
	}
	if len(dc.validationErrors) != 1 {
		t.Fatalf("validationErrors = %v, want one entry", dc.validationErrors)
	}
	if dc.validationErrors[0] != "Applicant income is missing or invalid" {
		t.Errorf("validationErrors[0] = %q", dc.validationErrors[0])
	}
}

func TestApplyActionCaseTypeOverwrites(t *testing.T) {
	dc := newDecisionContext()
	accept := CaseDirectAccept
	gcrp := CaseGCRP

	dc.applyAction("first", CategoryCaseType, RuleAction{CaseType: &accept})
	dc.applyAction("second", CategoryCaseType, RuleAction{CaseType: &gcrp})

	if dc.caseType != CaseGCRP {
		t.Errorf("caseType = %d, want GCRP (last writer wins)", dc.caseType)
	}
}

func TestApplyActionScoreAccumulates(t *testing.T) {
	dc := newDecisionContext()
	plus15 := 15
	minus5 := -5

	dc.applyAction("bonus", CategoryScorecard, RuleAction{ScoreImpact: &plus15})
	dc.applyAction("penalty", CategoryScorecard, RuleAction{ScoreImpact: &minus5})

	if dc.score != 10 {
		t.Errorf("score = %d, want 10", dc.score)
	}
}

// Non-validation categories never contribute to validationErrors, even when
// their decision is FAIL.
func TestApplyActionValidationErrorsScopedToCategory(t *testing.T) {
	dc := newDecisionContext()

	dc.applyAction("stp", CategorySTPDecision, RuleAction{
		Decision:      DecisionFail,
		ReasonMessage: "Medical history present",
	})

	if len(dc.validationErrors) != 0 {
		t.Errorf("validationErrors = %v, want empty", dc.validationErrors)
	}
	if len(dc.reasonMessages) != 1 {
		t.Errorf("reasonMessages = %v, want one entry", dc.reasonMessages)
	}
}

func TestDedupePreservesFirstOccurrenceOrder(t *testing.T) {
	got := dedupe([]string{"VAL001", "STP001", "VAL001", "CT001", "STP001"})

	want := []string{"VAL001", "STP001", "CT001"}
	if len(got) != len(want) {
		t.Fatalf("dedupe() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupe()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
