package jira

// PriorityNames are the priority tiers, lowest to highest.
var PriorityNames = []string{
	"Undefined",
	"Minor",
	"Normal",
	"Major",
	"Critical",
	"Blocker",
}

// PriorityTier returns the tier index of a priority name, lowest first.
// Unknown names map to the lowest tier.
func PriorityTier(name string) int {
	for i, n := range PriorityNames {
		if n == name {
			return i
		}
	}
	return 0
}
