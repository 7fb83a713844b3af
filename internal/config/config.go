package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	DBDSN    string `mapstructure:"DB_DSN"`
	MediaDir string `mapstructure:"MEDIA_DIR"`
	LogFile  string `mapstructure:"LOG_FILE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Public base used when building absolute links (media URLs, payment callback).
	BaseURL      string   `mapstructure:"BASE_URL"`
	CORSOrigins  string   `mapstructure:"CORS_ORIGINS"`
	CookieSecure bool     `mapstructure:"COOKIE_SECURE"`
	SeedDemo     bool     `mapstructure:"SEED_DEMO"`
	AdminEmails  []string `mapstructure:"-"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	MaxUploadMB     int    `mapstructure:"MAX_UPLOAD_MB"`
	RateLimitPerMin int    `mapstructure:"RATE_LIMIT_PER_MIN"`
	CloudinaryURL   string `mapstructure:"CLOUDINARY_URL"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	MailFrom string `mapstructure:"MAIL_FROM"`

	PaystackSecret  string `mapstructure:"PAYSTACK_SECRET_KEY"`
	PaystackBaseURL string `mapstructure:"PAYSTACK_BASE_URL"`
	Currency        string `mapstructure:"CURRENCY"`
	PlatformFeePct  string `mapstructure:"PLATFORM_FEE_PERCENT"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	EscrowAutoRelease    time.Duration `mapstructure:"ESCROW_AUTO_RELEASE"`
	PaymentAbandonAfter  time.Duration `mapstructure:"PAYMENT_ABANDON_AFTER"`
	PayoutSummaryTimeout time.Duration `mapstructure:"PAYOUT_SUMMARY_TIMEOUT"`
	EscrowJobSchedule    string        `mapstructure:"ESCROW_JOB_SCHEDULE"`
	PaymentJobSchedule   string        `mapstructure:"PAYMENT_JOB_SCHEDULE"`
	CleanupJobSchedule   string        `mapstructure:"CLEANUP_JOB_SCHEDULE"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DSN", "campusmart.db") // sqlite file in project root
	v.SetDefault("MEDIA_DIR", "./web/media")
	v.SetDefault("LOG_FILE", "./campusmart.log")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("SEED_DEMO", true)
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "72h")
	v.SetDefault("MAX_UPLOAD_MB", 5)
	v.SetDefault("RATE_LIMIT_PER_MIN", 120)
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("MAIL_FROM", "CampusMart <no-reply@campusmart.test>")
	v.SetDefault("PAYSTACK_SECRET_KEY", "")
	v.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	v.SetDefault("CURRENCY", "NGN")
	v.SetDefault("PLATFORM_FEE_PERCENT", "5")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ESCROW_AUTO_RELEASE", "72h")
	v.SetDefault("PAYMENT_ABANDON_AFTER", "24h")
	v.SetDefault("PAYOUT_SUMMARY_TIMEOUT", "5s")
	v.SetDefault("ESCROW_JOB_SCHEDULE", "@every 30m")
	v.SetDefault("PAYMENT_JOB_SCHEDULE", "@every 1h")
	v.SetDefault("CLEANUP_JOB_SCHEDULE", "@daily")
}

// Load reads settings from the environment and an optional .env file in the working directory.
func Load() Config {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	defaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("[config] could not read .env: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("[config] unable to decode config: %v", err)
	}
	cfg.AdminEmails = splitList(v.GetString("ADMIN_EMAILS"))
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-insecure-secret"
		log.Printf("[config] JWT_SECRET not set, using development secret")
	}

	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s SMTP=%t PAYSTACK=%t RABBITMQ=%t REDIS=%t CLOUDINARY=%t",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile,
		cfg.SMTPHost != "", cfg.PaystackSecret != "", cfg.RabbitMQURL != "", cfg.RedisURL != "", cfg.CloudinaryURL != "")
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
