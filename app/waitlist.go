package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/resend/resend-go/v2"

	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
)

const waitlistKey = "chessdebrief:waitlist"

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// normalizeEmail trims and lowercases addr, reporting whether it looks like
// an email address.
func normalizeEmail(addr string) (string, bool) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	return addr, len(addr) <= 254 && reEmail.MatchString(addr)
}

// WaitlistStore records early-access signups.
type WaitlistStore interface {
	// Add stores email and reports whether it was already on the list.
	Add(ctx context.Context, email string) (alreadyPresent bool, err error)
	// Remove drops email; removing an absent address is not an error.
	Remove(ctx context.Context, email string) error
}

type RedisWaitlistStore struct {
	rdb *redis.Client
}

func NewRedisWaitlistStore(cfg config.RedisConfig) *RedisWaitlistStore {
	return &RedisWaitlistStore{rdb: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (s *RedisWaitlistStore) Add(ctx context.Context, email string) (bool, error) {
	added, err := s.rdb.SAdd(ctx, waitlistKey, email).Result()
	if err != nil {
		return false, fmt.Errorf("redis SADD: %w", err)
	}
	return added == 0, nil
}

func (s *RedisWaitlistStore) Remove(ctx context.Context, email string) error {
	if err := s.rdb.SRem(ctx, waitlistKey, email).Err(); err != nil {
		return fmt.Errorf("redis SREM: %w", err)
	}
	return nil
}

func (s *RedisWaitlistStore) Close() error { return s.rdb.Close() }

// MemoryWaitlistStore keeps signups in process memory. It backs mock mode and
// deployments without Redis.
type MemoryWaitlistStore struct {
	mu     sync.Mutex
	emails map[string]struct{}
}

func NewMemoryWaitlistStore() *MemoryWaitlistStore {
	return &MemoryWaitlistStore{emails: map[string]struct{}{}}
}

func (s *MemoryWaitlistStore) Add(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[email]; ok {
		return true, nil
	}
	s.emails[email] = struct{}{}
	return false, nil
}

func (s *MemoryWaitlistStore) Remove(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.emails, email)
	return nil
}

func (s *MemoryWaitlistStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.emails)
}

// Mailer sends the waitlist confirmation.
type Mailer interface {
	SendWaitlistConfirmation(ctx context.Context, to string) error
}

const (
	waitlistSubject = "You're on the ChessDebrief waitlist"
	waitlistBody    = "Hey,\n\n" +
		"Thanks for joining ChessDebrief. You're on the early access list, and we'll email you " +
		"as soon as personalized debriefs go live for your account.\n\n" +
		"We can't wait to show you what we've built.\n\n" +
		"The ChessDebrief Team"
)

type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer returns ErrNotConfigured when no API key is set.
func NewResendMailer(cfg config.ResendConfig) (*ResendMailer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY: %w", ErrNotConfigured)
	}
	return &ResendMailer{client: resend.NewClient(cfg.APIKey), from: cfg.From}, nil
}

func (m *ResendMailer) SendWaitlistConfirmation(ctx context.Context, to string) error {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: waitlistSubject,
		Text:    waitlistBody,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	logger.Debug().Str("email_id", sent.Id).Msg("waitlist confirmation sent")
	return nil
}

// LogMailer logs instead of sending.
type LogMailer struct{}

func (LogMailer) SendWaitlistConfirmation(_ context.Context, to string) error {
	logger.Info().Str("to", to).Str("subject", waitlistSubject).Msg("waitlist confirmation (not sent)")
	return nil
}
