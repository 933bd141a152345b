package config

import (
	"fmt"
	"strings"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

type Config struct {
	Logs       LogConfig
	HTTP       HTTPConfig
	DB         PostgresConfig
	Redis      RedisConfig
	Stripe     StripeConfig
	Auth       AuthConfig
	Anthropic  AnthropicConfig
	Resend     ResendConfig
	Mock       MockConfig
	QueueURL   string
	UseRealAPI bool
}

type LogConfig struct {
	Style string // "console" for human-readable output, anything else for JSON
	Level string
}

type HTTPConfig struct {
	Addr          string
	CORSOrigins   []string
	WaitlistRPS   float64
	WaitlistBurst int
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
	Name     string
	SSLMode  string
}

// DSN returns a lib/pq connection string, or "" when no host is configured.
func (p PostgresConfig) DSN() string {
	if p.URL == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.URL, p.Port, p.Username, p.Password, p.Name, p.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceIDPro    string
	PriceIDElite  string
	FrontendURL   string
}

type AuthConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
}

type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

type ResendConfig struct {
	APIKey string
	From   string
}

type MockConfig struct {
	LatencyMS int
	UserID    string
	UserName  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_style", "json")
	v.SetDefault("log_level", "info")

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("cors_origins", "http://localhost:3000")
	v.SetDefault("waitlist_rps", 1.0)
	v.SetDefault("waitlist_burst", 5)

	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_db", "chessdebrief")
	v.SetDefault("postgres_sslmode", "require")

	v.SetDefault("redis_db", 0)

	v.SetDefault("frontend_url", "http://localhost:3000")

	v.SetDefault("auth_audience", "authenticated")

	v.SetDefault("anthropic_model", "claude-sonnet-4-5")
	v.SetDefault("anthropic_max_tokens", 4096)

	v.SetDefault("resend_from", "ChessDebrief <waitlist@chessdebrief.com>")

	v.SetDefault("mock_latency_ms", 900)
	v.SetDefault("mock_user_id", "mock-user-00000000-0000-0000-0000-000000000001")
	v.SetDefault("mock_user_name", "ChessPlayer42")

	v.SetDefault("use_real_api", false)
}

// LoadConfig reads the environment (and .env, when present) into a Config.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if v.GetInt("waitlist_burst") < 1 {
		return nil, fmt.Errorf("WAITLIST_BURST must be at least 1, got %d", v.GetInt("waitlist_burst"))
	}
	if v.GetInt("mock_latency_ms") < 0 {
		return nil, fmt.Errorf("MOCK_LATENCY_MS must not be negative, got %d", v.GetInt("mock_latency_ms"))
	}

	cfg := &Config{
		QueueURL:   v.GetString("queue_url"),
		UseRealAPI: v.GetBool("use_real_api"),
		Logs: LogConfig{
			Style: v.GetString("log_style"),
			Level: v.GetString("log_level"),
		},
		HTTP: HTTPConfig{
			Addr:          v.GetString("http_addr"),
			CORSOrigins:   splitList(v.GetString("cors_origins")),
			WaitlistRPS:   v.GetFloat64("waitlist_rps"),
			WaitlistBurst: v.GetInt("waitlist_burst"),
		},
		DB: PostgresConfig{
			Username: v.GetString("postgres_user"),
			Password: v.GetString("postgres_pwd"),
			URL:      v.GetString("postgres_url"),
			Port:     v.GetString("postgres_port"),
			Name:     v.GetString("postgres_db"),
			SSLMode:  v.GetString("postgres_sslmode"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("stripe_secret_key"),
			WebhookSecret: v.GetString("stripe_webhook_secret"),
			PriceIDPro:    v.GetString("stripe_price_id_pro"),
			PriceIDElite:  v.GetString("stripe_price_id_elite"),
			FrontendURL:   v.GetString("frontend_url"),
		},
		Auth: AuthConfig{
			Issuer:   v.GetString("auth_issuer"),
			Audience: v.GetString("auth_audience"),
			JWKSURL:  v.GetString("auth_jwks_url"),
		},
		Anthropic: AnthropicConfig{
			APIKey:    v.GetString("anthropic_api_key"),
			Model:     v.GetString("anthropic_model"),
			MaxTokens: v.GetInt64("anthropic_max_tokens"),
		},
		Resend: ResendConfig{
			APIKey: v.GetString("resend_api_key"),
			From:   v.GetString("resend_from"),
		},
		Mock: MockConfig{
			LatencyMS: v.GetInt("mock_latency_ms"),
			UserID:    v.GetString("mock_user_id"),
			UserName:  v.GetString("mock_user_name"),
		},
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
