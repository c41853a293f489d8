// Package domain provides core business rules for the leads bounded context.
package domain

// Earnings projection rates per scenario. The calculator multiplies a
// creator's monthly affiliate clicks through a fixed conversion rate and
// average commission, then applies the partner revenue share.
const (
	partnerRevenueShare = 0.65

	conservativeConversionRate = 0.02
	conservativeAvgCommission  = 80.0

	realisticConversionRate = 0.04
	realisticAvgCommission  = 100.0

	optimisticConversionRate = 0.06
	optimisticAvgCommission  = 120.0
)

// Projection is one earnings scenario for a lead.
type Projection struct {
	MonthlyApprovals float64 `json:"monthlyApprovals"`
	GrossMonthly     float64 `json:"grossMonthly"`
	PartnerMonthly   float64 `json:"partnerMonthly"`
	AnnualEarnings   float64 `json:"annualEarnings"`
}

// ProjectionSet holds the three calculator scenarios.
type ProjectionSet struct {
	Conservative Projection `json:"conservative"`
	Realistic    Projection `json:"realistic"`
	Optimistic   Projection `json:"optimistic"`
}

func project(monthlyClicks int64, conversionRate, avgCommission float64) Projection {
	approvals := float64(monthlyClicks) * conversionRate
	gross := approvals * avgCommission
	partner := gross * partnerRevenueShare
	return Projection{
		MonthlyApprovals: approvals,
		GrossMonthly:     gross,
		PartnerMonthly:   partner,
		AnnualEarnings:   partner * 12,
	}
}

// Project computes all three earnings scenarios from monthly clicks.
func Project(monthlyClicks int64) ProjectionSet {
	if monthlyClicks < 0 {
		monthlyClicks = 0
	}
	return ProjectionSet{
		Conservative: project(monthlyClicks, conservativeConversionRate, conservativeAvgCommission),
		Realistic:    project(monthlyClicks, realisticConversionRate, realisticAvgCommission),
		Optimistic:   project(monthlyClicks, optimisticConversionRate, optimisticAvgCommission),
	}
}

// Tier buckets a lead's projected annual earnings.
type Tier string

const (
	TierStarter    Tier = "starter"
	TierGrowth     Tier = "growth"
	TierScale      Tier = "scale"
	TierEnterprise Tier = "enterprise"
)

// TierFor maps projected annual earnings to a tier. Thresholds are fixed:
// below 5,000 starter, below 25,000 growth, below 100,000 scale,
// otherwise enterprise.
func TierFor(projectedAnnualEarnings float64) Tier {
	switch {
	case projectedAnnualEarnings < 5_000:
		return TierStarter
	case projectedAnnualEarnings < 25_000:
		return TierGrowth
	case projectedAnnualEarnings < 100_000:
		return TierScale
	default:
		return TierEnterprise
	}
}

// IsKnownTier reports whether the value is a recognized earnings tier.
func IsKnownTier(tier string) bool {
	switch Tier(tier) {
	case TierStarter, TierGrowth, TierScale, TierEnterprise:
		return true
	}
	return false
}
