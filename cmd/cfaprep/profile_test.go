package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/cfaprep/internal/domain"
)

func flagsSet(names ...string) func(string) bool {
	return func(name string) bool {
		for _, n := range names {
			if n == name {
				return true
			}
		}
		return false
	}
}

func TestProfileChangeCreatesPaidProfile(t *testing.T) {
	c := profileChange{
		email:     " ana@example.com ",
		plan:      "Pro",
		status:    "active",
		periodEnd: "2026-12-31",
		changed:   flagsSet("email", "plan", "status", "period-end"),
	}
	p, err := c.apply("u1", nil)
	require.NoError(t, err)

	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, domain.PlanPro, p.Plan)
	assert.Equal(t, domain.SubscriptionActive, p.SubscriptionStatus)
	require.NotNil(t, p.CurrentPeriodEnd)
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC), *p.CurrentPeriodEnd)
}

func TestProfileChangeKeepsUnsetFields(t *testing.T) {
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	existing := &domain.Profile{
		ID: "u1", Email: "ana@example.com", Plan: domain.PlanPro,
		SubscriptionStatus: domain.SubscriptionActive, CurrentPeriodEnd: &end,
	}

	p, err := profileChange{status: "canceled", changed: flagsSet("status")}.apply("u1", existing)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, domain.PlanPro, p.Plan)
	assert.Equal(t, domain.SubscriptionCanceled, p.SubscriptionStatus)
	assert.Equal(t, &end, p.CurrentPeriodEnd)

	p, err = profileChange{changed: flagsSet("period-end")}.apply("u1", existing)
	require.NoError(t, err)
	assert.Nil(t, p.CurrentPeriodEnd, "an empty period end clears it")
}

func TestProfileChangeRejectsBadInput(t *testing.T) {
	_, err := profileChange{plan: "pro", changed: flagsSet("plan")}.apply("u1", nil)
	assert.ErrorContains(t, err, "--email is required")

	existing := &domain.Profile{ID: "u1", Email: "a@b.c"}

	_, err = profileChange{plan: "gold", changed: flagsSet("plan")}.apply("u1", existing)
	assert.ErrorContains(t, err, "unknown plan")

	_, err = profileChange{status: "paused", changed: flagsSet("status")}.apply("u1", existing)
	assert.ErrorContains(t, err, "unknown subscription status")

	_, err = profileChange{periodEnd: "next week", changed: flagsSet("period-end")}.apply("u1", existing)
	assert.ErrorContains(t, err, "invalid --period-end")
}

func TestParsePeriodEndRFC3339(t *testing.T) {
	got, err := parsePeriodEnd("2026-03-14T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC), *got)
}
