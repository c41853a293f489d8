package domain

// Lead lifecycle statuses. Any authenticated admin may set any value;
// there is no enforced transition graph.
const (
	StatusNew            = "new"
	StatusNurturing      = "nurturing"
	StatusEngaged        = "engaged"
	StatusQualified      = "qualified"
	StatusInConversation = "in_conversation"
	StatusSigned         = "signed"
	StatusLost           = "lost"
)

var statusRank = map[string]int{
	StatusNew:            0,
	StatusNurturing:      1,
	StatusEngaged:        2,
	StatusQualified:      3,
	StatusInConversation: 4,
	StatusSigned:         5,
	StatusLost:           5,
}

// IsKnownStatus reports whether the value is a recognized lead status.
func IsKnownStatus(status string) bool {
	_, ok := statusRank[status]
	return ok
}

// UpgradeToEngaged returns the status a lead should carry after a reply:
// new and nurturing leads move to engaged, further-along leads keep
// their current status.
func UpgradeToEngaged(current string) string {
	if rank, ok := statusRank[current]; ok && rank >= statusRank[StatusEngaged] {
		return current
	}
	return StatusEngaged
}
