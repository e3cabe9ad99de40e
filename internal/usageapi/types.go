package usageapi

// UsagePayload is the body of GET /api/oauth/usage. Every member is
// optional; buckets the account has no quota for are absent or null.
type UsagePayload struct {
	FiveHour   *Bucket     `json:"five_hour"`
	SevenDay   *Bucket     `json:"seven_day"`
	ExtraUsage *ExtraUsage `json:"extra_usage"`
}

type Bucket struct {
	Utilization float64 `json:"utilization"` // 0.0–100.0
	ResetsAt    *string `json:"resets_at"`   // ISO 8601 or null
}

// ExtraUsage is metered overflow billing. Credits are cents; the limit
// may arrive as a float.
type ExtraUsage struct {
	IsEnabled    bool     `json:"is_enabled"`
	MonthlyLimit *float64 `json:"monthly_limit"`
	UsedCredits  *float64 `json:"used_credits"`
	Utilization  *float64 `json:"utilization"`
}

// ProfilePayload is the body of GET /api/oauth/profile.
type ProfilePayload struct {
	Account      ProfileAccount       `json:"account"`
	Organization *ProfileOrganization `json:"organization"`
}

type ProfileAccount struct {
	Email string `json:"email"`
}

type ProfileOrganization struct {
	OrganizationType *string `json:"organization_type"`
}

// Tier returns the subscription tier advertised by the profile.
func (p *ProfilePayload) Tier() Tier {
	if p == nil || p.Organization == nil || p.Organization.OrganizationType == nil {
		return TierNone
	}
	return ParseTier(*p.Organization.OrganizationType)
}
