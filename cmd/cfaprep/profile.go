package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/store"
)

// profileChange holds the flags of `profile set`; only fields whose flag was
// given are applied
type profileChange struct {
	email      string
	fullName   string
	plan       string
	status     string
	periodEnd  string
	customerID string
	changed    func(name string) bool
}

// apply merges the change into p, which is nil for a new profile
func (c profileChange) apply(id string, p *domain.Profile) (*domain.Profile, error) {
	if p == nil {
		if !c.changed("email") || strings.TrimSpace(c.email) == "" {
			return nil, fmt.Errorf("profile %s does not exist yet: --email is required", id)
		}
		p = &domain.Profile{ID: id}
	}

	if c.changed("email") {
		p.Email = strings.TrimSpace(c.email)
	}
	if c.changed("name") {
		p.FullName = strings.TrimSpace(c.fullName)
	}
	if c.changed("plan") {
		plan := strings.ToLower(strings.TrimSpace(c.plan))
		if !domain.ValidPlan(plan) {
			return nil, fmt.Errorf("unknown plan %q (free, pro, lifetime)", c.plan)
		}
		p.Plan = plan
	}
	if c.changed("status") {
		status := strings.ToLower(strings.TrimSpace(c.status))
		if !domain.ValidSubscriptionStatus(status) {
			return nil, fmt.Errorf("unknown subscription status %q", c.status)
		}
		p.SubscriptionStatus = status
	}
	if c.changed("period-end") {
		end, err := parsePeriodEnd(c.periodEnd)
		if err != nil {
			return nil, err
		}
		p.CurrentPeriodEnd = end
	}
	if c.changed("customer") {
		p.PaymentCustomerID = strings.TrimSpace(c.customerID)
	}
	return p, nil
}

// parsePeriodEnd accepts RFC 3339 or a plain date (end of that day, UTC);
// an empty value clears the period end
func parsePeriodEnd(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("invalid --period-end %q: use YYYY-MM-DD or RFC 3339", v)
	}
	t := d.Add(24*time.Hour - time.Second)
	return &t, nil
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage user profiles and subscriptions",
	}

	var change profileChange
	set := &cobra.Command{
		Use:   "set [user-id]",
		Short: "Create or update a profile's plan and subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			existing, err := a.store.GetProfile(ctx, args[0])
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}

			change.changed = func(name string) bool { return cmd.Flags().Changed(name) }
			p, err := change.apply(args[0], existing)
			if err != nil {
				return err
			}
			if err := a.store.UpsertProfile(ctx, p); err != nil {
				return err
			}

			ent, err := a.billing().Entitlement(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Profile %s: plan=%s status=%s active=%t features=%s\n",
				p.ID, ent.Plan, ent.Status, ent.Active, strings.Join(ent.Features, ","))
			return nil
		},
	}
	set.Flags().StringVar(&change.email, "email", "", "account email (required for a new profile)")
	set.Flags().StringVar(&change.fullName, "name", "", "full name")
	set.Flags().StringVar(&change.plan, "plan", "", "plan: free, pro or lifetime")
	set.Flags().StringVar(&change.status, "status", "", "subscription status: none, trialing, active, past_due, canceled")
	set.Flags().StringVar(&change.periodEnd, "period-end", "", "end of the paid period (YYYY-MM-DD or RFC 3339, empty clears)")
	set.Flags().StringVar(&change.customerID, "customer", "", "payment processor customer id")

	show := &cobra.Command{
		Use:   "show [user-id]",
		Short: "Print a user's entitlement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ent, err := a.billing().Entitlement(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ent)
		},
	}

	cmd.AddCommand(set, show)
	return cmd
}
