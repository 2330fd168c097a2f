package domain

// Plan represents an organizer subscription tier
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// IsValid checks if the plan is a known tier
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// String returns the string representation of Plan
func (p Plan) String() string {
	return string(p)
}

// UnlimitedEvents marks a plan with no cap on active events
const UnlimitedEvents = -1

// PlanQuota holds the limits attached to a plan tier
type PlanQuota struct {
	MaxEvents      int     `json:"max_events"` // -1 means unlimited
	MaxFeatured    int     `json:"max_featured"`
	CommissionRate float64 `json:"commission_rate"`
}

// AllowsFeaturing reports whether the plan can feature events at all
func (q PlanQuota) AllowsFeaturing() bool {
	return q.MaxFeatured > 0
}

// defaultQuotas is the built-in quota table; config may override it
var defaultQuotas = map[Plan]PlanQuota{
	PlanFree:       {MaxEvents: 1, MaxFeatured: 0, CommissionRate: 0.10},
	PlanBasic:      {MaxEvents: 5, MaxFeatured: 1, CommissionRate: 0.07},
	PlanPro:        {MaxEvents: 20, MaxFeatured: 5, CommissionRate: 0.05},
	PlanEnterprise: {MaxEvents: UnlimitedEvents, MaxFeatured: 20, CommissionRate: 0.03},
}

// DefaultQuotas returns a copy of the built-in plan quota table
func DefaultQuotas() map[Plan]PlanQuota {
	quotas := make(map[Plan]PlanQuota, len(defaultQuotas))
	for plan, quota := range defaultQuotas {
		quotas[plan] = quota
	}
	return quotas
}

// QuotaFor returns the quota for a plan tier
func QuotaFor(p Plan) (PlanQuota, error) {
	quota, ok := defaultQuotas[p]
	if !ok {
		return PlanQuota{}, ErrInvalidPlan
	}
	return quota, nil
}
