// Package seed builds the reference underwriting configuration: three
// products, four execution stages, the starter rule set, the term-life
// scorecard and the two risk grids. It exists so a fresh deployment (and the
// test suite) has a realistic dataset to evaluate against.
package seed

import (
	"time"

	"github.com/google/uuid"

	"github.com/insurestp/insurestp/engine"
)

// Data is the complete reference configuration.
type Data struct {
	Products   []*engine.Product
	Stages     []*engine.Stage
	Rules      []*engine.Rule
	Scorecards []*engine.Scorecard
	Grids      []*engine.Grid
}

// New builds a fresh reference configuration. IDs are regenerated on every
// call; everything else is deterministic.
func New() *Data {
	now := time.Now().UTC()

	stageValidation := &engine.Stage{
		ID:             uuid.NewString(),
		Name:           "Validation",
		Description:    "Data completeness and basic eligibility checks",
		ExecutionOrder: 10,
		StopOnFail:     true,
		Color:          "#ef4444",
		IsEnabled:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	stageSTP := &engine.Stage{
		ID:             uuid.NewString(),
		Name:           "STP Decision",
		Description:    "Straight-through-processing eligibility rules",
		ExecutionOrder: 20,
		StopOnFail:     false,
		Color:          "#f59e0b",
		IsEnabled:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	stageCaseType := &engine.Stage{
		ID:             uuid.NewString(),
		Name:           "Case Type",
		Description:    "Case routing rules",
		ExecutionOrder: 30,
		StopOnFail:     false,
		Color:          "#3b82f6",
		IsEnabled:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	stageScorecard := &engine.Stage{
		ID:             uuid.NewString(),
		Name:           "Scorecard",
		Description:    "Score adjustment rules",
		ExecutionOrder: 40,
		StopOnFail:     false,
		Color:          "#22c55e",
		IsEnabled:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	return &Data{
		Products:   products(now),
		Stages:     []*engine.Stage{stageValidation, stageSTP, stageCaseType, stageScorecard},
		Rules:      rules(now, stageValidation.ID, stageSTP.ID, stageCaseType.ID, stageScorecard.ID),
		Scorecards: scorecards(now),
		Grids:      grids(now),
	}
}

func products(now time.Time) []*engine.Product {
	return []*engine.Product{
		{
			ID:            uuid.NewString(),
			Code:          "TERM001",
			Name:          "Term Life Protect",
			ProductType:   engine.ProductTermLife,
			Description:   "Pure term life insurance with death benefit",
			MinAge:        18,
			MaxAge:        65,
			MinSumAssured: 500_000,
			MaxSumAssured: 50_000_000,
			MinPremium:    5_000,
			IsEnabled:     true,
			CreatedAt:     now,
		},
		{
			ID:            uuid.NewString(),
			Code:          "ENDOW001",
			Name:          "Endowment Savings Plan",
			ProductType:   engine.ProductEndowment,
			Description:   "Endowment plan with maturity benefit",
			MinAge:        18,
			MaxAge:        55,
			MinSumAssured: 100_000,
			MaxSumAssured: 10_000_000,
			MinPremium:    10_000,
			IsEnabled:     true,
			CreatedAt:     now,
		},
		{
			ID:            uuid.NewString(),
			Code:          "ULIP001",
			Name:          "ULIP Growth Fund",
			ProductType:   engine.ProductULIP,
			Description:   "Unit linked insurance plan with market-linked returns",
			MinAge:        18,
			MaxAge:        60,
			MinSumAssured: 250_000,
			MaxSumAssured: 25_000_000,
			MinPremium:    25_000,
			IsEnabled:     true,
			CreatedAt:     now,
		},
	}
}

func rules(now time.Time, validationStage, stpStage, caseTypeStage, scorecardStage string) []*engine.Rule {
	allProducts := []engine.ProductType{engine.ProductTermLife, engine.ProductEndowment, engine.ProductULIP}

	leaf := func(field string, op engine.Operator, value any) engine.ConditionNode {
		return engine.ConditionNode{Leaf: &engine.Condition{Field: field, Operator: op, Value: value}}
	}
	between := func(field string, lo, hi any) engine.ConditionNode {
		return engine.ConditionNode{Leaf: &engine.Condition{Field: field, Operator: engine.OpBetween, Value: lo, Value2: hi}}
	}

	directAccept := engine.CaseDirectAccept
	gcrp := engine.CaseGCRP
	score15 := 15
	score20 := 20

	return []*engine.Rule{
		{
			ID:          uuid.NewString(),
			Name:        "Missing Income Validation",
			Description: "Check if applicant income is provided",
			Category:    engine.CategoryValidation,
			StageID:     validationStage,
			ConditionGroup: engine.ConditionGroup{
				LogicalOperator: engine.LogicalOr,
				Conditions: []engine.ConditionNode{
					leaf("applicant_income", engine.OpIsEmpty, nil),
					leaf("applicant_income", engine.OpLessThanOrEqual, 0),
				},
			},
			Action: engine.RuleAction{
				Decision:      engine.DecisionFail,
				ReasonCode:    "VAL001",
				ReasonMessage: "Applicant income is missing or invalid",
				IsHardStop:    true,
			},
			Priority:  10,
			IsEnabled: true,
			Products:  allProducts,
			CaseTypes: []engine.CaseType{},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Missing Premium Validation",
			Description: "Check if premium is provided and valid",
			Category:    engine.CategoryValidation,
			StageID:     validationStage,
			ConditionGroup: engine.ConditionGroup{
				LogicalOperator: engine.LogicalOr,
				Conditions: []engine.ConditionNode{
					leaf("premium", engine.OpIsEmpty, nil),
					leaf("premium", engine.OpLessThanOrEqual, 0),
				},
			},
			Action: engine.RuleAction{
				Decision:      engine.DecisionFail,
				ReasonCode:    "VAL002",
				ReasonMessage: "Premium amount is missing or invalid",
				IsHardStop:    true,
			},
			Priority:  10,
			IsEnabled: true,
			Products:  allProducts,
			CaseTypes: []engine.CaseType{},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Age Eligibility Check",
			Description: "Validate applicant age is within acceptable range",
			Category:    engine.CategoryValidation,
			StageID:     validationStage,
			ConditionGroup: engine.ConditionGroup{
				LogicalOperator: engine.LogicalOr,
				Conditions: []engine.ConditionNode{
					leaf("applicant_age", engine.OpLessThan, 18),
					leaf("applicant_age", engine.OpGreaterThan, 70),
				},
			},
			Action: engine.RuleAction{
				Decision:      engine.DecisionFail,
				ReasonCode:    "VAL003",
				ReasonMessage: "Applicant age must be between 18 and 70 years",
				IsHardStop:    true,
			},
			Priority:  10,
			IsEnabled: true,
			Products:  allProducts,
			CaseTypes: []engine.CaseType{},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "High Sum Assured Check",
			Description: "Flag high sum assured for medical underwriting",
			Category:    engine.CategorySTPDecision,
			StageID:     stpStage,
			ConditionGroup: engine.ConditionGroup{
				LogicalOperator: engine.LogicalAnd,
				Conditions: []engine.ConditionNode{
					leaf("sum_assured", engine.OpGreaterThan, 10_000_000),
				},
			},
			Action: engine.RuleAction{
				Decision:      engine.DecisionFail,
				ReasonCode:    "STP001",
				ReasonMessage: "Sum assured exceeds STP limit - Medical required",
			},
			Priority:  20,
			IsEnabled: true,
			Products:  []engine.ProductType{engine.ProductTermLife},
			CaseTypes: []engine.CaseType{},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Smoker High Risk",
			Description: "Flag smokers with high sum assured",
			Category:    engine.CategorySTPDecision,
			StageID:     stpStage,
			ConditionGroup: engine.ConditionGroup{
				LogicalOperator: engine.LogicalAnd,
				Conditions: []engine.ConditionNode{
					leaf("is_smoker", engine.OpEquals, true),
					leaf("sum_assured", engine.OpGreaterThan, 5_000_000),
				},
			},
			Action: engine.RuleAction{
				Decision:      engine.DecisionFail,
				ReasonCode:    "STP002",
				ReasonMessage: "Smoker with high coverage - Additional underwriting required",
			},
			Priority:  25,
			IsEnabled: true,
			Products:  []engine.ProductType{engine.ProductTermLife, engine.ProductEndowment},
			CaseTypes: []engine.CaseType{},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Medical History Check",
			Description: "Flag applicants with medical history",
			Category:    engine.CategorySTPDecision,
			StageID:     stpStage,
			ConditionGroup: engine.ConditionGroup{
				LogicalOperator: engine.LogicalAnd,
				Conditions: []engine.ConditionNode{
					leaf("has_medical_history", engine.OpEquals, true),
				},
			},
			Action: engine.RuleAction{
				Decision:      engine.DecisionFail,
				ReasonCode:    "STP003",
				ReasonMessage: "Medical history present - Underwriter review required",
			},
			Priority:  30,
			IsEnabled: true,
			Products:  allProducts,
			CaseTypes: []engine.CaseType{},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Low Risk Direct Accept",
			Description: "Direct accept for low risk profiles",
			Category:    engine.CategoryCaseType,
			StageID:     caseTypeStage,
			ConditionGroup: engine.ConditionGroup{
				LogicalOperator: engine.LogicalAnd,
				Conditions: []engine.ConditionNode{
					between("applicant_age", 25, 45),
					leaf("is_smoker", engine.OpEquals, false),
					leaf("has_medical_history", engine.OpEquals, false),
					leaf("sum_assured", engine.OpLessThanOrEqual, 5_000_000),
				},
			},
			Action: engine.RuleAction{
				CaseType:      &directAccept,
				ReasonCode:    "CT001",
				ReasonMessage: "Low risk profile - Direct Accept",
			},
			Priority:  50,
			IsEnabled: true,
			Products:  []engine.ProductType{engine.ProductTermLife, engine.ProductEndowment},
			CaseTypes: []engine.CaseType{engine.CaseNormal},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "GCRP Referral",
			Description: "Refer to GCRP for specific conditions",
			Category:    engine.CategoryCaseType,
			StageID:     caseTypeStage,
			ConditionGroup: engine.ConditionGroup{
				LogicalOperator: engine.LogicalOr,
				Conditions: []engine.ConditionNode{
					leaf("occupation_risk", engine.OpEquals, "high"),
					leaf("applicant_age", engine.OpGreaterThan, 55),
				},
			},
			Action: engine.RuleAction{
				CaseType:      &gcrp,
				ReasonCode:    "CT002",
				ReasonMessage: "Referred to GCRP for additional review",
			},
			Priority:  60,
			IsEnabled: true,
			Products:  allProducts,
			CaseTypes: []engine.CaseType{engine.CaseNormal},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Age Score - Young Adult Bonus",
			Description: "Bonus score for young adults",
			Category:    engine.CategoryScorecard,
			StageID:     scorecardStage,
			ConditionGroup: engine.ConditionGroup{
				LogicalOperator: engine.LogicalAnd,
				Conditions: []engine.ConditionNode{
					between("applicant_age", 25, 35),
				},
			},
			Action: engine.RuleAction{
				ScoreImpact:   &score15,
				ReasonCode:    "SC001",
				ReasonMessage: "Age bonus: 25-35 years",
			},
			Priority:  100,
			IsEnabled: true,
			Products:  allProducts,
			CaseTypes: []engine.CaseType{},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Non-Smoker Bonus",
			Description: "Bonus score for non-smokers",
			Category:    engine.CategoryScorecard,
			StageID:     scorecardStage,
			ConditionGroup: engine.ConditionGroup{
				LogicalOperator: engine.LogicalAnd,
				Conditions: []engine.ConditionNode{
					leaf("is_smoker", engine.OpEquals, false),
				},
			},
			Action: engine.RuleAction{
				ScoreImpact:   &score20,
				ReasonCode:    "SC002",
				ReasonMessage: "Non-smoker bonus",
			},
			Priority:  100,
			IsEnabled: true,
			Products:  []engine.ProductType{engine.ProductTermLife, engine.ProductEndowment},
			CaseTypes: []engine.CaseType{},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func scorecards(now time.Time) []*engine.Scorecard {
	f := func(v float64) *float64 { return &v }

	return []*engine.Scorecard{
		{
			ID:          uuid.NewString(),
			Name:        "Term Life Scorecard",
			Description: "Primary scorecard for term life products",
			Product:     engine.ProductTermLife,
			Parameters: []engine.ScorecardParameter{
				{
					ID:     uuid.NewString(),
					Name:   "Age Band",
					Field:  "applicant_age",
					Weight: 1.0,
					Bands: []engine.Band{
						{Min: f(18), Max: f(30), Score: 20, Label: "18-30"},
						{Min: f(31), Max: f(40), Score: 15, Label: "31-40"},
						{Min: f(41), Max: f(50), Score: 10, Label: "41-50"},
						{Min: f(51), Max: f(60), Score: 5, Label: "51-60"},
						{Min: f(61), Max: f(70), Score: 0, Label: "61-70"},
					},
				},
				{
					ID:     uuid.NewString(),
					Name:   "Income Band",
					Field:  "applicant_income",
					Weight: 1.0,
					Bands: []engine.Band{
						{Min: f(0), Max: f(500_000), Score: 5, Label: "0-5L"},
						{Min: f(500_001), Max: f(1_000_000), Score: 10, Label: "5L-10L"},
						{Min: f(1_000_001), Max: f(2_500_000), Score: 15, Label: "10L-25L"},
						{Min: f(2_500_001), Max: f(5_000_000), Score: 18, Label: "25L-50L"},
						{Min: f(5_000_001), Max: f(999_999_999), Score: 20, Label: "50L+"},
					},
				},
				{
					ID:     uuid.NewString(),
					Name:   "BMI Band",
					Field:  "bmi",
					Weight: 0.8,
					Bands: []engine.Band{
						{Min: f(0), Max: f(18.5), Score: 5, Label: "Underweight"},
						{Min: f(18.5), Max: f(25), Score: 15, Label: "Normal"},
						{Min: f(25), Max: f(30), Score: 10, Label: "Overweight"},
						{Min: f(30), Max: f(35), Score: 5, Label: "Obese I"},
						{Min: f(35), Max: f(100), Score: 0, Label: "Obese II+"},
					},
				},
			},
			ThresholdDirectAccept: 80,
			ThresholdNormal:       50,
			ThresholdRefer:        30,
			IsEnabled:             true,
			CreatedAt:             now,
			UpdatedAt:             now,
		},
	}
}

func grids(now time.Time) []*engine.Grid {
	allProducts := []engine.ProductType{engine.ProductTermLife, engine.ProductEndowment, engine.ProductULIP}

	return []*engine.Grid{
		{
			ID:          uuid.NewString(),
			Name:        "BMI Risk Grid",
			Description: "BMI-based risk assessment grid",
			GridType:    "bmi",
			RowField:    "bmi",
			ColField:    "applicant_age",
			RowLabels:   []string{"<18.5", "18.5-25", "25-30", "30-35", ">35"},
			ColLabels:   []string{"18-30", "31-45", "46-55", "56-65", ">65"},
			Cells: []engine.GridCell{
				{RowValue: "<18.5", ColValue: "18-30", Result: engine.GridAccept, ScoreImpact: 0},
				{RowValue: "18.5-25", ColValue: "18-30", Result: engine.GridAccept, ScoreImpact: 10},
				{RowValue: "25-30", ColValue: "18-30", Result: engine.GridAccept, ScoreImpact: 5},
				{RowValue: "30-35", ColValue: "18-30", Result: engine.GridRefer, ScoreImpact: -5},
				{RowValue: ">35", ColValue: "18-30", Result: engine.GridDecline, ScoreImpact: -20},
			},
			Products:  allProducts,
			IsEnabled: true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Income × Sum Assured Grid",
			Description: "Income to Sum Assured eligibility grid",
			GridType:    "income_sa",
			RowField:    "applicant_income",
			ColField:    "sum_assured",
			RowLabels:   []string{"<5L", "5L-10L", "10L-25L", "25L-50L", ">50L"},
			ColLabels:   []string{"<25L", "25L-50L", "50L-1Cr", "1Cr-2Cr", ">2Cr"},
			Cells: []engine.GridCell{
				{RowValue: "<5L", ColValue: "<25L", Result: engine.GridAccept, ScoreImpact: 0},
				{RowValue: "<5L", ColValue: "25L-50L", Result: engine.GridRefer, ScoreImpact: -5},
				{RowValue: "<5L", ColValue: "50L-1Cr", Result: engine.GridDecline, ScoreImpact: -20},
				{RowValue: "5L-10L", ColValue: "<25L", Result: engine.GridAccept, ScoreImpact: 5},
				{RowValue: "5L-10L", ColValue: "25L-50L", Result: engine.GridAccept, ScoreImpact: 0},
				{RowValue: "5L-10L", ColValue: "50L-1Cr", Result: engine.GridRefer, ScoreImpact: -5},
			},
			Products:  allProducts,
			IsEnabled: true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
