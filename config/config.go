package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Auth         Auth
	Attempt      Attempt
	GeminiApiKey string
	SeedFile     string
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Auth struct {
	// JWTSecret signs student tokens. Empty disables authentication.
	JWTSecret string
}

type Attempt struct {
	// Grace is how long past expires_at the API still accepts a completion request.
	Grace time.Duration
}

// ClientConfig configures the student terminal client.
type ClientConfig struct {
	APIURL       string
	StudentID    string
	JWTSecret    string
	// Token is a bearer token issued elsewhere; it wins over JWTSecret.
	Token        string
	TickInterval time.Duration
	HTTPTimeout  time.Duration
	Debug        bool
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("ATTEMPT_GRACE_SECONDS", 30)
	viper.SetDefault("SEED_FILE", "seed/catalog.yaml")

	viper.SetDefault("PLACEMENT_API_URL", "http://localhost:8080/api/v1")
	viper.SetDefault("PLACEMENT_TICK_MS", 1000)
	viper.SetDefault("PLACEMENT_HTTP_TIMEOUT_S", 15)
}

func readEnv() {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}
}

func NewConfig() (*Config, error) {
	readEnv()

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.Auth.JWTSecret = viper.GetString("AUTH_JWT_SECRET")
	config.Attempt.Grace = time.Duration(viper.GetInt("ATTEMPT_GRACE_SECONDS")) * time.Second
	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.SeedFile = viper.GetString("SEED_FILE")

	log.Info().
		Str("port", config.Server.Port).
		Str("dbHost", config.Database.Host).
		Str("dbName", config.Database.Name).
		Bool("auth", config.Auth.JWTSecret != "").
		Bool("gemini", config.GeminiApiKey != "").
		Msg("Config loaded")
	return &config, nil
}

// NewClientConfig reads the client settings. Values bound from CLI flags take
// precedence over the environment.
func NewClientConfig() (*ClientConfig, error) {
	readEnv()

	cfg := &ClientConfig{
		APIURL:       viper.GetString("PLACEMENT_API_URL"),
		StudentID:    viper.GetString("PLACEMENT_STUDENT_ID"),
		JWTSecret:    viper.GetString("AUTH_JWT_SECRET"),
		Token:        viper.GetString("PLACEMENT_TOKEN"),
		TickInterval: time.Duration(viper.GetInt("PLACEMENT_TICK_MS")) * time.Millisecond,
		HTTPTimeout:  time.Duration(viper.GetInt("PLACEMENT_HTTP_TIMEOUT_S")) * time.Second,
		Debug:        viper.GetBool("DEBUG"),
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return cfg, nil
}
