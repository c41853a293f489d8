package domain

// EngagementEvent is a discrete signal that moves a lead's engagement score.
type EngagementEvent string

const (
	EngagementReply       EngagementEvent = "reply"
	EngagementClick       EngagementEvent = "click"
	EngagementApplication EngagementEvent = "application"
	EngagementUnsubscribe EngagementEvent = "unsubscribe"
)

// engagementDeltas is the fixed per-event score table. Scores are not
// clamped; repeated unsubscribe-class events may drive a score negative.
var engagementDeltas = map[EngagementEvent]int{
	EngagementReply:       10,
	EngagementClick:       5,
	EngagementApplication: 15,
	EngagementUnsubscribe: -20,
}

// EngagementDelta returns the score delta for an event kind.
// The second return is false for unknown event kinds.
func EngagementDelta(event EngagementEvent) (int, bool) {
	delta, ok := engagementDeltas[event]
	return delta, ok
}

// SeedScore is the initial engagement score assigned on calculator
// submission, keyed by earnings tier.
func SeedScore(tier Tier) int {
	switch tier {
	case TierGrowth:
		return 10
	case TierScale:
		return 15
	case TierEnterprise:
		return 20
	default:
		return 5
	}
}

// EngagementLevel is the coarse bucket shown in the dashboard.
type EngagementLevel string

const (
	LevelHot  EngagementLevel = "hot"
	LevelWarm EngagementLevel = "warm"
	LevelCold EngagementLevel = "cold"
)

// LevelOf buckets a score: 20 and above hot, 10 and above warm, else cold.
// Used only for UI labeling, never for gating sends.
func LevelOf(score int) EngagementLevel {
	switch {
	case score >= 20:
		return LevelHot
	case score >= 10:
		return LevelWarm
	default:
		return LevelCold
	}
}
