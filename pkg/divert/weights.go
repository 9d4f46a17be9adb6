package divert

// ScoringWeights holds the multi-criteria scoring constants. These are
// configuration, not hardwired constants: callers can re-weight per
// emergency category at call time without code changes.
type ScoringWeights struct {
	// Medical adequacy weights
	MedicalExcellent float64 `json:"medical_excellent"`
	MedicalGood      float64 `json:"medical_good"`
	MedicalBasic     float64 `json:"medical_basic"`
	MedicalNone      float64 `json:"medical_none"`

	// DistanceDivisor scales the distance penalty: penalty = distance / divisor
	DistanceDivisor float64 `json:"distance_divisor"`

	// FuelMarginThresholdKg is the margin above which FuelBonus applies
	FuelMarginThresholdKg float64 `json:"fuel_margin_threshold_kg"`

	// FuelBonus rewards a comfortable fuel margin
	FuelBonus float64 `json:"fuel_bonus"`

	// OpsBonus rewards 24/7 operations
	OpsBonus float64 `json:"ops_bonus"`

	// RunwayBonus rewards excellent runway compatibility
	RunwayBonus float64 `json:"runway_bonus"`
}

// DefaultScoringWeights returns the default scoring constants.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		MedicalExcellent:      50,
		MedicalGood:           35,
		MedicalBasic:          15,
		MedicalNone:           0,
		DistanceDivisor:       8,
		FuelMarginThresholdKg: 20000,
		FuelBonus:             25,
		OpsBonus:              15,
		RunwayBonus:           10,
	}
}

// medicalWeight returns the weight for a medical adequacy grade.
func (w ScoringWeights) medicalWeight(adequacy MedicalAdequacy) float64 {
	switch adequacy {
	case MedicalExcellent:
		return w.MedicalExcellent
	case MedicalGood:
		return w.MedicalGood
	case MedicalBasic:
		return w.MedicalBasic
	default:
		return w.MedicalNone
	}
}

// CostModel holds the cost estimation coefficients. The values are the
// source system's operational heuristics preserved as configuration:
// placeholders pending domain sign-off, not validated business rules.
type CostModel struct {
	// FuelPricePerNM converts distance to fuel cost
	FuelPricePerNM float64 `json:"fuel_price_per_nm"`

	// DelayPerPassengerMinute is the per-passenger per-minute delay cost
	DelayPerPassengerMinute float64 `json:"delay_per_passenger_minute"`

	// CompensationByCondition maps medical conditions to compensation
	// cost tiers
	CompensationByCondition map[string]float64 `json:"compensation_by_condition"`

	// CompensationDefault applies when the condition has no tier
	CompensationDefault float64 `json:"compensation_default"`

	// CrewCost is the fixed crew disruption cost per diversion
	CrewCost float64 `json:"crew_cost"`

	// LandingFee is the fixed unscheduled-landing fee
	LandingFee float64 `json:"landing_fee"`
}

// DefaultCostModel returns the default cost coefficients.
func DefaultCostModel() CostModel {
	return CostModel{
		FuelPricePerNM:          85,
		DelayPerPassengerMinute: 1.5,
		CompensationByCondition: map[string]float64{
			"cardiac": 125000,
			"stroke":  150000,
			"trauma":  200000,
		},
		CompensationDefault: 75000,
		CrewCost:            15000,
		LandingFee:          8500,
	}
}

// Compensation returns the medical/compensation cost tier for an emergency.
func (c CostModel) Compensation(emergency EmergencyContext) float64 {
	if cost, ok := c.CompensationByCondition[emergency.Condition]; ok {
		return cost
	}
	return c.CompensationDefault
}

// Estimate computes the total diversion cost for one candidate.
// Sum of fuel cost, delay cost, compensation tier, crew cost, and fixed
// landing fees.
func (c CostModel) Estimate(distanceNM, flightTimeHr float64, passengers int, emergency EmergencyContext) float64 {
	fuelCost := distanceNM * c.FuelPricePerNM
	delayCost := flightTimeHr * 60 * float64(passengers) * c.DelayPerPassengerMinute
	return fuelCost + delayCost + c.Compensation(emergency) + c.CrewCost + c.LandingFee
}
