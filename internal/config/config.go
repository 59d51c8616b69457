package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	Currency      string `yaml:"currency"`
}

type SupabaseConfig struct {
	URL            string `yaml:"url"`
	AnonKey        string `yaml:"anon_key"`
	ServiceRoleKey string `yaml:"service_role_key"`
	JWTSecret      string `yaml:"jwt_secret"`
}

type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       int    `yaml:"smtp_port"`
	SMTPUser       string `yaml:"smtp_user"`
	SMTPPassword   string `yaml:"smtp_password"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// PDFConfig: шрифт с диакритикой для подтверждений об оплате.
type PDFConfig struct {
	FontPath string `yaml:"font_path"`
	Seller   string `yaml:"seller"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PlanConfig: тариф для create-payment-intent. Price в кронах, PeriodDays=0 значит бессрочно.
type PlanConfig struct {
	Price      string `yaml:"price"`
	PeriodDays int    `yaml:"period_days"`
	Label      string `yaml:"label"`
}

type Config struct {
	Env     string `yaml:"env"`
	SiteURL string `yaml:"site_url"`
	Server  struct {
		Port       int    `yaml:"port"`
		CORSOrigin string `yaml:"cors_origin"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Stripe   StripeConfig          `yaml:"stripe"`
	Supabase SupabaseConfig        `yaml:"supabase"`
	Email    EmailConfig           `yaml:"email"`
	Telegram TelegramConfig        `yaml:"telegram"`
	PDF      PDFConfig             `yaml:"pdf"`
	Log      LogConfig             `yaml:"log"`
	Plans    map[string]PlanConfig `yaml:"plans"`
}

// LoadConfig: без файла тоже работает (всё из ENV).
func LoadConfig() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := Load(path)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

// Load читает YAML (если есть), .env (если есть) и применяет переопределения из окружения.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// ок: конфигурация целиком из окружения
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.SiteURL, "SITE_URL")
	setInt(&cfg.Server.Port, "PORT")
	setString(&cfg.Database.DSN, "DATABASE_URL")

	setString(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&cfg.Stripe.Currency, "STRIPE_CURRENCY")

	setString(&cfg.Supabase.URL, "SUPABASE_URL")
	setString(&cfg.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	setString(&cfg.Supabase.ServiceRoleKey, "SUPABASE_SERVICE_ROLE_KEY")
	setString(&cfg.Supabase.JWTSecret, "SUPABASE_JWT_SECRET")

	setString(&cfg.Email.SendGridAPIKey, "SENDGRID_API_KEY")
	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.SMTPUser, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Email.FromEmail, "EMAIL_FROM")
	setString(&cfg.Email.FromName, "EMAIL_FROM_NAME")

	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	if v, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}

	setString(&cfg.Server.CORSOrigin, "CORS_ORIGIN")
	setString(&cfg.PDF.FontPath, "PDF_FONT_PATH")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = "http://localhost:5173"
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}
	if cfg.PDF.FontPath == "" {
		cfg.PDF.FontPath = "assets/fonts/DejaVuSans.ttf"
	}
	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "czk"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "Fyzio Akademie"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if len(cfg.Plans) == 0 {
		cfg.Plans = DefaultPlans()
	}
}

func DefaultPlans() map[string]PlanConfig {
	return map[string]PlanConfig{
		"monthly":  {Price: "490", PeriodDays: 30, Label: "Měsíční předplatné"},
		"yearly":   {Price: "4900", PeriodDays: 365, Label: "Roční předplatné"},
		"lifetime": {Price: "9900", PeriodDays: 0, Label: "Doživotní přístup"},
	}
}

// Validate: минимально необходимое для старта сервера.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database url is required")
	}
	if strings.TrimSpace(c.Stripe.SecretKey) == "" {
		return errors.New("config: stripe secret key is required")
	}
	if strings.TrimSpace(c.Supabase.URL) == "" {
		return errors.New("config: supabase url is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}
