package domain

import "testing"

func TestEngagementDeltaTable(t *testing.T) {
	cases := []struct {
		event EngagementEvent
		want  int
	}{
		{EngagementReply, 10},
		{EngagementClick, 5},
		{EngagementApplication, 15},
		{EngagementUnsubscribe, -20},
	}

	for _, tc := range cases {
		got, ok := EngagementDelta(tc.event)
		if !ok {
			t.Fatalf("EngagementDelta(%q) not found", tc.event)
		}
		if got != tc.want {
			t.Errorf("EngagementDelta(%q) = %d, want %d", tc.event, got, tc.want)
		}
	}

	if _, ok := EngagementDelta("open"); ok {
		t.Error("unknown event kind should not resolve to a delta")
	}
}

func TestSeedScoreByTier(t *testing.T) {
	cases := []struct {
		tier Tier
		want int
	}{
		{TierStarter, 5},
		{TierGrowth, 10},
		{TierScale, 15},
		{TierEnterprise, 20},
	}

	for _, tc := range cases {
		if got := SeedScore(tc.tier); got != tc.want {
			t.Errorf("SeedScore(%q) = %d, want %d", tc.tier, got, tc.want)
		}
	}
}

func TestLevelOf(t *testing.T) {
	cases := []struct {
		score int
		want  EngagementLevel
	}{
		{-30, LevelCold},
		{0, LevelCold},
		{9, LevelCold},
		{10, LevelWarm},
		{19, LevelWarm},
		{20, LevelHot},
		{25, LevelHot},
	}

	for _, tc := range cases {
		if got := LevelOf(tc.score); got != tc.want {
			t.Errorf("LevelOf(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestReplyMovesWarmLeadToHot(t *testing.T) {
	score := 15
	delta, _ := EngagementDelta(EngagementReply)
	score += delta

	if score != 25 {
		t.Fatalf("expected score 25 after reply, got %d", score)
	}
	if LevelOf(score) != LevelHot {
		t.Fatalf("expected hot at score %d, got %q", score, LevelOf(score))
	}
}
