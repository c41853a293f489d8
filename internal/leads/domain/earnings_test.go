package domain

import "testing"

func TestProjectRealisticScenario(t *testing.T) {
	// 3500 clicks/month at the realistic 4% conversion and $100 commission
	// with the 65% partner share.
	set := Project(3500)

	r := set.Realistic
	if r.MonthlyApprovals != 140 {
		t.Fatalf("expected 140 monthly approvals, got %v", r.MonthlyApprovals)
	}
	if r.GrossMonthly != 14000 {
		t.Fatalf("expected gross monthly 14000, got %v", r.GrossMonthly)
	}
	if r.PartnerMonthly != 9100 {
		t.Fatalf("expected partner monthly 9100, got %v", r.PartnerMonthly)
	}
	if r.AnnualEarnings != 109200 {
		t.Fatalf("expected annual earnings 109200, got %v", r.AnnualEarnings)
	}
}

func TestProjectScenarioOrdering(t *testing.T) {
	set := Project(1000)

	if !(set.Conservative.AnnualEarnings < set.Realistic.AnnualEarnings) {
		t.Errorf("conservative %v should be below realistic %v",
			set.Conservative.AnnualEarnings, set.Realistic.AnnualEarnings)
	}
	if !(set.Realistic.AnnualEarnings < set.Optimistic.AnnualEarnings) {
		t.Errorf("realistic %v should be below optimistic %v",
			set.Realistic.AnnualEarnings, set.Optimistic.AnnualEarnings)
	}
}

func TestProjectNegativeClicks(t *testing.T) {
	set := Project(-50)
	if set.Realistic.AnnualEarnings != 0 {
		t.Fatalf("negative clicks should project zero, got %v", set.Realistic.AnnualEarnings)
	}
}

func TestTierForThresholds(t *testing.T) {
	cases := []struct {
		annual float64
		want   Tier
	}{
		{0, TierStarter},
		{4999, TierStarter},
		{5000, TierGrowth},
		{24999, TierGrowth},
		{25000, TierScale},
		{99999, TierScale},
		{100000, TierEnterprise},
		{109200, TierEnterprise},
	}

	for _, tc := range cases {
		if got := TierFor(tc.annual); got != tc.want {
			t.Errorf("TierFor(%v) = %q, want %q", tc.annual, got, tc.want)
		}
	}
}

func TestTierForMonotonic(t *testing.T) {
	rank := map[Tier]int{TierStarter: 0, TierGrowth: 1, TierScale: 2, TierEnterprise: 3}

	prev := TierStarter
	for annual := float64(0); annual <= 150_000; annual += 500 {
		got := TierFor(annual)
		if rank[got] < rank[prev] {
			t.Fatalf("tier decreased from %q to %q at annual=%v", prev, got, annual)
		}
		prev = got
	}
}
