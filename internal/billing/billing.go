// Package billing derives what a user may do from their subscription state.
// Payment processor webhooks keep profiles current; this package only reads.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pbaille/cfaprep/internal/config"
	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/store"
)

// Features gated by plan
const (
	FeatureQuestionBankSample = "question_bank_sample"
	FeatureQuestionBank       = "question_bank"
	FeatureAIQuestions        = "ai_questions"
	FeatureProgressAnalytics  = "progress_analytics"
	FeatureMockExams          = "mock_exams"
)

// Unlimited is the daily limit reported for paid plans
const Unlimited = -1

var (
	// ErrNotEntitled is returned when the plan lacks a feature
	ErrNotEntitled = errors.New("subscription does not include this feature")
	// ErrDailyLimit is returned when the daily question quota is used up
	ErrDailyLimit = errors.New("daily question limit reached")
)

// Store reads profiles and usage
type Store interface {
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	CountQuestionsCreatedBy(ctx context.Context, userID string, since time.Time) (int, error)
}

// Entitlement is the effective access of one user right now
type Entitlement struct {
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
	Active             bool       `json:"active"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	Features           []string   `json:"features"`
	DailyQuestionLimit int        `json:"daily_question_limit"`
	QuestionsUsedToday int        `json:"questions_used_today"`
	QuestionsRemaining int        `json:"questions_remaining"`
}

// Has reports whether the entitlement includes feature
func (e *Entitlement) Has(feature string) bool {
	for _, f := range e.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Service evaluates entitlements
type Service struct {
	store    Store
	settings config.BillingSettings
	now      func() time.Time
}

// New creates a Service
func New(s Store, settings config.BillingSettings) *Service {
	return &Service{store: s, settings: settings, now: time.Now}
}

// Active reports whether a profile's paid access is live at t
func Active(p *domain.Profile, t time.Time, grace time.Duration) bool {
	if p == nil {
		return false
	}
	if p.Plan == domain.PlanLifetime {
		return true
	}
	if p.Plan == domain.PlanFree || p.Plan == "" {
		return false
	}

	switch p.SubscriptionStatus {
	case domain.SubscriptionActive, domain.SubscriptionTrialing:
		return p.CurrentPeriodEnd == nil || p.CurrentPeriodEnd.After(t)
	case domain.SubscriptionPastDue:
		return p.CurrentPeriodEnd == nil || p.CurrentPeriodEnd.Add(grace).After(t)
	default:
		return false
	}
}

// Entitlement computes the user's current entitlement. Users without a
// profile are treated as free.
func (s *Service) Entitlement(ctx context.Context, userID string) (*Entitlement, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	grace := time.Duration(s.settings.GracePeriodDays) * 24 * time.Hour

	e := &Entitlement{Plan: domain.PlanFree, Status: domain.SubscriptionNone}
	if profile != nil {
		e.Plan = profile.Plan
		e.Status = profile.SubscriptionStatus
		e.CurrentPeriodEnd = profile.CurrentPeriodEnd
	}
	e.Active = Active(profile, now, grace)

	if e.Active {
		e.Features = []string{FeatureQuestionBank, FeatureAIQuestions, FeatureProgressAnalytics, FeatureMockExams}
		e.DailyQuestionLimit = Unlimited
		e.QuestionsRemaining = Unlimited
	} else {
		e.Features = []string{FeatureQuestionBankSample}
		e.DailyQuestionLimit = s.settings.FreeDailyQuestions
		if e.DailyQuestionLimit > 0 {
			e.Features = append(e.Features, FeatureAIQuestions)
		}
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	used, err := s.store.CountQuestionsCreatedBy(ctx, userID, midnight)
	if err != nil {
		return nil, err
	}
	e.QuestionsUsedToday = used
	if e.DailyQuestionLimit != Unlimited {
		e.QuestionsRemaining = max(e.DailyQuestionLimit-used, 0)
	}
	return e, nil
}

// CheckFeature returns ErrNotEntitled unless the user's plan includes feature
func (s *Service) CheckFeature(ctx context.Context, userID, feature string) (*Entitlement, error) {
	e, err := s.Entitlement(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !e.Has(feature) {
		return e, fmt.Errorf("%w: %s", ErrNotEntitled, feature)
	}
	return e, nil
}

// AuthorizeGeneration checks the ai_questions feature and that count
// questions fit in what is left of today's quota
func (s *Service) AuthorizeGeneration(ctx context.Context, userID string, count int) (*Entitlement, error) {
	e, err := s.CheckFeature(ctx, userID, FeatureAIQuestions)
	if err != nil {
		return e, err
	}
	if e.QuestionsRemaining != Unlimited && count > e.QuestionsRemaining {
		return e, fmt.Errorf("%w: %d of %d remaining today", ErrDailyLimit, e.QuestionsRemaining, e.DailyQuestionLimit)
	}
	return e, nil
}
