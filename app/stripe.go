package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"

	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
)

// Billing creates hosted payment pages and applies subscription events.
type Billing interface {
	CheckoutURL(ctx context.Context, user models.User, tier models.SubscriptionTier) (string, error)
	PortalURL(ctx context.Context, user models.User) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// errBadSignature means a webhook payload could not be verified.
var errBadSignature = errors.New("signature verification failed")

func paidTier(tier models.SubscriptionTier) error {
	if tier != models.TierPro && tier != models.TierElite {
		return invalid("tier", "must be pro or elite")
	}
	return nil
}

// MockBilling sends the browser straight back to the dashboard.
type MockBilling struct{}

func (MockBilling) CheckoutURL(_ context.Context, _ models.User, tier models.SubscriptionTier) (string, error) {
	if err := paidTier(tier); err != nil {
		return "", err
	}
	return "/dashboard?mock_upgrade=" + string(tier), nil
}

func (MockBilling) PortalURL(context.Context, models.User) (string, error) {
	return "/settings/billing?mock_portal=1", nil
}

func (MockBilling) HandleWebhook(context.Context, []byte, string) error { return nil }

type StripeBilling struct {
	cfg config.StripeConfig
}

// NewStripeBilling sets the package-wide Stripe key. It returns
// ErrNotConfigured when no secret key is set.
func NewStripeBilling(cfg config.StripeConfig) (*StripeBilling, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY: %w", ErrNotConfigured)
	}
	stripe.Key = cfg.SecretKey
	return &StripeBilling{cfg: cfg}, nil
}

func (b *StripeBilling) priceID(tier models.SubscriptionTier) string {
	if tier == models.TierElite {
		return b.cfg.PriceIDElite
	}
	return b.cfg.PriceIDPro
}

func (b *StripeBilling) CheckoutURL(ctx context.Context, user models.User, tier models.SubscriptionTier) (string, error) {
	if err := paidTier(tier); err != nil {
		return "", err
	}
	priceID := b.priceID(tier)
	frontendURL := strings.TrimRight(b.cfg.FrontendURL, "/")
	if priceID == "" || frontendURL == "" {
		return "", fmt.Errorf("stripe price for %s or frontend url: %w", tier, ErrNotConfigured)
	}

	customerID, err := ensureStripeCustomer(ctx, user)
	if err != nil {
		return "", fmt.Errorf("ensure stripe customer: %w", err)
	}

	meta := map[string]string{"user_id": user.ID, "tier": string(tier)}
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{Metadata: meta},
		SuccessURL:       stripe.String(frontendURL + "/dashboard?upgraded=" + string(tier)),
		CancelURL:        stripe.String(frontendURL + "/pricing"),
	}
	params.Context = ctx
	params.Metadata = meta

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}
	return sess.URL, nil
}

func (b *StripeBilling) PortalURL(ctx context.Context, user models.User) (string, error) {
	if user.StripeCustomerID == "" {
		return "", invalid("stripe_customer", "no subscription to manage")
	}
	frontendURL := strings.TrimRight(b.cfg.FrontendURL, "/")
	if frontendURL == "" {
		return "", fmt.Errorf("FRONTEND_URL: %w", ErrNotConfigured)
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID),
		ReturnURL: stripe.String(frontendURL + "/settings/billing"),
	}
	params.Context = ctx
	sess, err := portal.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe portal session: %w", err)
	}
	return sess.URL, nil
}

func (b *StripeBilling) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if b.cfg.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET: %w", ErrNotConfigured)
	}
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		b.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		logger.Warn().Err(err).Msg("stripe webhook rejected")
		return errBadSignature
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return invalid("payload", "invalid checkout session: %v", err)
		}
		if sess.Customer == nil || sess.Customer.ID == "" {
			return invalid("payload", "checkout session has no customer")
		}
		tier := models.SubscriptionTier(sess.Metadata["tier"])
		if paidTier(tier) != nil {
			tier = models.TierPro
		}
		return updateUserTierByStripeCustomer(ctx, sess.Customer.ID, tier)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return invalid("payload", "invalid subscription: %v", err)
		}
		if sub.Customer == nil || sub.Customer.ID == "" {
			return invalid("payload", "subscription has no customer")
		}
		return updateUserTierByStripeCustomer(ctx, sub.Customer.ID, models.TierFree)

	default:
		logger.Debug().Str("type", string(event.Type)).Msg("ignoring stripe event")
	}
	return nil
}

// ensureStripeCustomer returns the user's Stripe customer, creating one
// tagged with the user id on first checkout.
func ensureStripeCustomer(ctx context.Context, user models.User) (string, error) {
	if db == nil {
		return "", ErrNotConfigured
	}
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{"user_id": user.ID},
	}
	if user.Email != "" {
		params.Email = stripe.String(user.Email)
	}
	params.Context = ctx
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE users
		SET stripe_customer_id = $1
		WHERE id = $2;
	`, cust.ID, user.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}

func updateUserTierByStripeCustomer(ctx context.Context, stripeCustomerID string, tier models.SubscriptionTier) error {
	if db == nil {
		return ErrNotConfigured
	}
	res, err := db.ExecContext(ctx, `
		UPDATE users
		SET tier = $1
		WHERE stripe_customer_id = $2;
	`, string(tier), stripeCustomerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger.Warn().Str("customer", stripeCustomerID).Msg("stripe event for unknown customer")
	}
	return nil
}

// loadBillingUser reads the caller's row including the Stripe customer id.
func loadBillingUser(ctx context.Context, userID string) (models.User, error) {
	if db == nil {
		return models.User{ID: userID, Tier: models.TierFree}, nil
	}
	u, err := getUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ensureUser(ctx, userID)
	}
	return u, err
}
