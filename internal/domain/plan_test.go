package domain

import (
	"errors"
	"testing"
)

func TestQuotaFor(t *testing.T) {
	tests := []struct {
		plan           Plan
		maxEvents      int
		maxFeatured    int
		commissionRate float64
	}{
		{PlanFree, 1, 0, 0.10},
		{PlanBasic, 5, 1, 0.07},
		{PlanPro, 20, 5, 0.05},
		{PlanEnterprise, UnlimitedEvents, 20, 0.03},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			quota, err := QuotaFor(tt.plan)
			if err != nil {
				t.Fatalf("QuotaFor(%s) error = %v", tt.plan, err)
			}
			if quota.MaxEvents != tt.maxEvents {
				t.Errorf("MaxEvents = %d, want %d", quota.MaxEvents, tt.maxEvents)
			}
			if quota.MaxFeatured != tt.maxFeatured {
				t.Errorf("MaxFeatured = %d, want %d", quota.MaxFeatured, tt.maxFeatured)
			}
			if quota.CommissionRate != tt.commissionRate {
				t.Errorf("CommissionRate = %f, want %f", quota.CommissionRate, tt.commissionRate)
			}
		})
	}
}

func TestQuotaFor_UnknownPlan(t *testing.T) {
	if _, err := QuotaFor(Plan("platinum")); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("QuotaFor(platinum) error = %v, want ErrInvalidPlan", err)
	}
}

func TestPlanQuota_AllowsFeaturing(t *testing.T) {
	free, _ := QuotaFor(PlanFree)
	if free.AllowsFeaturing() {
		t.Error("free plan should not allow featuring")
	}

	basic, _ := QuotaFor(PlanBasic)
	if !basic.AllowsFeaturing() {
		t.Error("basic plan should allow featuring")
	}
}

func TestDefaultQuotas_ReturnsCopy(t *testing.T) {
	quotas := DefaultQuotas()
	quotas[PlanFree] = PlanQuota{MaxEvents: 99}

	original, _ := QuotaFor(PlanFree)
	if original.MaxEvents != 1 {
		t.Error("mutating the returned map should not affect the built-in table")
	}
}
