package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
	Auth     Auth     `mapstructure:"auth"`
	Email    Email    `mapstructure:"email"`
	Uploads  Uploads  `mapstructure:"uploads"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
	// LoginRateLimit is the sustained login attempts per second allowed
	// per instance, with LoginRateBurst extra headroom.
	LoginRateLimit float64 `mapstructure:"login_rate_limit"`
	LoginRateBurst int     `mapstructure:"login_rate_burst"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Auth holds token issuance settings.
type Auth struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTLMinutes is the session token lifetime.
	TokenTTLMinutes int `mapstructure:"token_ttl_minutes"`
	// ResetTTLMinutes is the password-reset token lifetime.
	ResetTTLMinutes int `mapstructure:"reset_ttl_minutes"`
	// VerificationTTLMinutes is the email verification code lifetime.
	VerificationTTLMinutes int `mapstructure:"verification_ttl_minutes"`
}

// SMTP holds settings for the SMTP email provider.
type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Resend holds settings for the Resend email provider.
type Resend struct {
	APIKey string `mapstructure:"api_key"`
}

// Email holds outbound mail settings.
type Email struct {
	Provider string `mapstructure:"provider"` // "smtp" or "resend"
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	SMTP     SMTP   `mapstructure:"smtp"`
	Resend   Resend `mapstructure:"resend"`
}

// Uploads holds where raw trade exports are stored.
type Uploads struct {
	Dir string `mapstructure:"dir"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.login_rate_limit", 1)
	viper.SetDefault("server.login_rate_burst", 5)
	viper.SetDefault("database.dsn", "data/app.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("auth.token_ttl_minutes", 60*24*7) // 7 days
	viper.SetDefault("auth.reset_ttl_minutes", 60)
	viper.SetDefault("auth.verification_ttl_minutes", 15)
	viper.SetDefault("email.provider", "smtp")
	viper.SetDefault("email.smtp.port", 587)
	viper.SetDefault("email.from_name", "Trade Analytics")
	viper.SetDefault("uploads.dir", "data/raw")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
