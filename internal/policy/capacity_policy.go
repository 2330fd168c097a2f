package policy

import (
	"github.com/arjul1989/gradanegra-sub001/internal/domain"
)

// EventCapacityPolicy validates event capacity layouts and plan entitlements.
// It is pure: no persistence, no side effects, every input passed explicitly.
type EventCapacityPolicy struct {
	quotas map[domain.Plan]domain.PlanQuota
}

// NewEventCapacityPolicy creates a policy over the given quota table.
// A nil table falls back to the built-in defaults.
func NewEventCapacityPolicy(quotas map[domain.Plan]domain.PlanQuota) *EventCapacityPolicy {
	if quotas == nil {
		quotas = domain.DefaultQuotas()
	}
	return &EventCapacityPolicy{quotas: quotas}
}

// QuotaFor returns the quota for a plan tier
func (p *EventCapacityPolicy) QuotaFor(plan domain.Plan) (domain.PlanQuota, error) {
	quota, ok := p.quotas[plan]
	if !ok {
		return domain.PlanQuota{}, domain.ErrInvalidPlan
	}
	return quota, nil
}

// ValidateCapacityLayout validates an event date capacity against its tier
// specs: capacity within bounds, at most MaxTiersPerDate tiers, and the
// tier totals must fit inside the date capacity.
func (p *EventCapacityPolicy) ValidateCapacityLayout(capacity int, tiers []domain.TierSpec) error {
	if capacity < domain.MinCapacity || capacity > domain.MaxCapacity {
		return domain.ErrInvalidCapacity
	}

	if len(tiers) > domain.MaxTiersPerDate {
		return domain.ErrTooManyTiers
	}

	sum := 0
	for i := range tiers {
		if err := tiers[i].Validate(); err != nil {
			return err
		}
		sum += tiers[i].Total
	}

	if sum > capacity {
		return domain.ErrTierCapacityExceeded
	}

	return nil
}

// ValidateTierAddition validates adding one tier to a date that already
// carries tiers summing to existingTotal.
func (p *EventCapacityPolicy) ValidateTierAddition(capacity, existingTotal, existingTiers int, spec domain.TierSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if existingTiers+1 > domain.MaxTiersPerDate {
		return domain.ErrTooManyTiers
	}
	if existingTotal+spec.Total > capacity {
		return domain.ErrTierCapacityExceeded
	}
	return nil
}

// ValidateEventCreation checks the plan's active-event quota
func (p *EventCapacityPolicy) ValidateEventCreation(plan domain.Plan, activeEvents int) error {
	quota, err := p.QuotaFor(plan)
	if err != nil {
		return err
	}

	if quota.MaxEvents == domain.UnlimitedEvents {
		return nil
	}

	if activeEvents >= quota.MaxEvents {
		return domain.ErrEventQuotaExceeded
	}

	return nil
}

// ValidateFeatureEligibility checks whether the plan allows featuring one
// more event given the organizer's current featured count.
func (p *EventCapacityPolicy) ValidateFeatureEligibility(plan domain.Plan, currentFeatured int) error {
	quota, err := p.QuotaFor(plan)
	if err != nil {
		return err
	}

	if !quota.AllowsFeaturing() {
		return domain.ErrFeaturingNotAllowed
	}

	if currentFeatured >= quota.MaxFeatured {
		return domain.ErrFeaturedQuotaExceeded
	}

	return nil
}

// CommissionFor returns the commission rate for a plan
func (p *EventCapacityPolicy) CommissionFor(plan domain.Plan) (float64, error) {
	quota, err := p.QuotaFor(plan)
	if err != nil {
		return 0, err
	}
	return quota.CommissionRate, nil
}
