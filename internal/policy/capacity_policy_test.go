package policy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
)

func newPolicy() *EventCapacityPolicy {
	return NewEventCapacityPolicy(nil)
}

func TestValidateCapacityLayout(t *testing.T) {
	p := newPolicy()

	t.Run("valid layout passes", func(t *testing.T) {
		err := p.ValidateCapacityLayout(1000, []domain.TierSpec{
			{Name: "General", Price: 25, Total: 500},
			{Name: "VIP", Price: 80, Total: 400},
		})
		assert.NoError(t, err)
	})

	t.Run("capacity above limit rejected", func(t *testing.T) {
		err := p.ValidateCapacityLayout(1001, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidCapacity)
	})

	t.Run("capacity zero rejected", func(t *testing.T) {
		err := p.ValidateCapacityLayout(0, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidCapacity)
	})

	t.Run("eleven tiers rejected", func(t *testing.T) {
		tiers := make([]domain.TierSpec, 11)
		for i := range tiers {
			tiers[i] = domain.TierSpec{Name: fmt.Sprintf("Tier %d", i), Price: 10, Total: 10}
		}
		err := p.ValidateCapacityLayout(1000, tiers)
		assert.ErrorIs(t, err, domain.ErrTooManyTiers)
	})

	t.Run("tier totals over capacity rejected", func(t *testing.T) {
		err := p.ValidateCapacityLayout(1000, []domain.TierSpec{
			{Name: "A", Price: 10, Total: 500},
			{Name: "B", Price: 20, Total: 400},
			{Name: "C", Price: 30, Total: 300},
		})
		assert.ErrorIs(t, err, domain.ErrTierCapacityExceeded)
	})

	t.Run("tier totals exactly at capacity pass", func(t *testing.T) {
		err := p.ValidateCapacityLayout(900, []domain.TierSpec{
			{Name: "A", Price: 10, Total: 500},
			{Name: "B", Price: 20, Total: 400},
		})
		assert.NoError(t, err)
	})

	t.Run("invalid tier spec surfaces", func(t *testing.T) {
		err := p.ValidateCapacityLayout(100, []domain.TierSpec{
			{Name: "A", Price: -1, Total: 10},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	})
}

func TestValidateTierAddition(t *testing.T) {
	p := newPolicy()

	t.Run("fits remaining capacity", func(t *testing.T) {
		err := p.ValidateTierAddition(100, 60, 2, domain.TierSpec{Name: "Late", Price: 5, Total: 40})
		assert.NoError(t, err)
	})

	t.Run("overflows remaining capacity", func(t *testing.T) {
		err := p.ValidateTierAddition(100, 60, 2, domain.TierSpec{Name: "Late", Price: 5, Total: 41})
		assert.ErrorIs(t, err, domain.ErrTierCapacityExceeded)
	})

	t.Run("tier count at limit", func(t *testing.T) {
		err := p.ValidateTierAddition(1000, 10, 10, domain.TierSpec{Name: "Late", Price: 5, Total: 1})
		assert.ErrorIs(t, err, domain.ErrTooManyTiers)
	})
}

func TestValidateEventCreation(t *testing.T) {
	p := newPolicy()

	tests := []struct {
		plan         domain.Plan
		activeEvents int
		wantErr      error
	}{
		{domain.PlanFree, 0, nil},
		{domain.PlanFree, 1, domain.ErrEventQuotaExceeded},
		{domain.PlanBasic, 4, nil},
		{domain.PlanBasic, 5, domain.ErrEventQuotaExceeded},
		{domain.PlanPro, 19, nil},
		{domain.PlanPro, 20, domain.ErrEventQuotaExceeded},
		{domain.PlanEnterprise, 5000, nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.plan, tt.activeEvents), func(t *testing.T) {
			err := p.ValidateEventCreation(tt.plan, tt.activeEvents)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFeatureEligibility(t *testing.T) {
	p := newPolicy()

	tests := []struct {
		plan            domain.Plan
		currentFeatured int
		wantErr         error
	}{
		{domain.PlanFree, 0, domain.ErrFeaturingNotAllowed},
		{domain.PlanBasic, 0, nil},
		{domain.PlanBasic, 1, domain.ErrFeaturedQuotaExceeded},
		{domain.PlanPro, 4, nil},
		{domain.PlanPro, 5, domain.ErrFeaturedQuotaExceeded},
		{domain.PlanEnterprise, 19, nil},
		{domain.PlanEnterprise, 20, domain.ErrFeaturedQuotaExceeded},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.plan, tt.currentFeatured), func(t *testing.T) {
			err := p.ValidateFeatureEligibility(tt.plan, tt.currentFeatured)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUnknownPlan(t *testing.T) {
	p := newPolicy()

	err := p.ValidateEventCreation(domain.Plan("platinum"), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)

	err = p.ValidateFeatureEligibility(domain.Plan("platinum"), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
}

func TestCommissionFor(t *testing.T) {
	p := newPolicy()

	rate, err := p.CommissionFor(domain.PlanPro)
	assert.NoError(t, err)
	assert.Equal(t, 0.05, rate)
}

func TestCustomQuotaTable(t *testing.T) {
	p := NewEventCapacityPolicy(map[domain.Plan]domain.PlanQuota{
		domain.PlanFree: {MaxEvents: 3, MaxFeatured: 1, CommissionRate: 0.12},
	})

	assert.NoError(t, p.ValidateEventCreation(domain.PlanFree, 2))
	assert.NoError(t, p.ValidateFeatureEligibility(domain.PlanFree, 0))

	// Plans absent from the override table are unknown
	err := p.ValidateEventCreation(domain.PlanBasic, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
}
