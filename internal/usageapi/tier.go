package usageapi

import "strings"

type Tier string

const (
	TierNone       Tier = ""
	TierFree       Tier = "Free"
	TierPro        Tier = "Pro"
	TierMax        Tier = "Max"
	TierTeam       Tier = "Team"
	TierEnterprise Tier = "Enterprise"
)

var tiersByOrgType = map[string]Tier{
	"claude_free":       TierFree,
	"free":              TierFree,
	"claude_pro":        TierPro,
	"pro":               TierPro,
	"claude_max":        TierMax,
	"max":               TierMax,
	"claude_team":       TierTeam,
	"team":              TierTeam,
	"claude_enterprise": TierEnterprise,
	"enterprise":        TierEnterprise,
}

// ParseTier maps organization_type onto a badge. Unknown types get no
// badge rather than an error.
func ParseTier(orgType string) Tier {
	return tiersByOrgType[strings.ToLower(strings.TrimSpace(orgType))]
}
