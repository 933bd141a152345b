package app

import (
	"context"

	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
)

// API holds the dependencies every handler shares.
type API struct {
	cfg      *config.Config
	source   DataSource
	waitlist WaitlistStore
	mailer   Mailer  // nil when email is not configured
	billing  Billing // nil when billing is not configured
}

func NewAPI(cfg *config.Config, source DataSource, waitlist WaitlistStore, mailer Mailer, billing Billing) *API {
	return &API{cfg: cfg, source: source, waitlist: waitlist, mailer: mailer, billing: billing}
}

// NewAPIFromConfig wires the production dependencies for cfg. Services whose
// credentials are missing are logged and left out; the endpoints that need
// them answer 501.
func NewAPIFromConfig(ctx context.Context, cfg *config.Config) (*API, error) {
	var coach Coach
	if c, err := NewAnthropicCoach(cfg.Anthropic); err != nil {
		if cfg.UseRealAPI {
			logger.Warn().Err(err).Msg("coach disabled")
		}
	} else {
		coach = c
	}

	var queue Enqueuer
	if cfg.UseRealAPI && cfg.QueueURL != "" {
		client, err := NewSQSClient(ctx)
		if err != nil {
			return nil, err
		}
		queue = NewSQSEnqueuer(client, cfg.QueueURL)
	}

	var waitlist WaitlistStore = NewMemoryWaitlistStore()
	if cfg.Redis.Addr != "" {
		waitlist = NewRedisWaitlistStore(cfg.Redis)
	}

	var mailer Mailer
	if m, err := NewResendMailer(cfg.Resend); err == nil {
		mailer = m
	} else if !cfg.UseRealAPI {
		mailer = LogMailer{}
	} else {
		logger.Warn().Err(err).Msg("waitlist email disabled")
	}

	var billing Billing = MockBilling{}
	if cfg.UseRealAPI {
		b, err := NewStripeBilling(cfg.Stripe)
		if err != nil {
			logger.Warn().Err(err).Msg("billing disabled")
			billing = nil
		} else {
			billing = b
		}
	}

	return NewAPI(cfg, NewDataSource(cfg, coach, queue), waitlist, mailer, billing), nil
}
