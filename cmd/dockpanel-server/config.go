package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/EternisAI/dockpanel/internal/api/http"
	"github.com/EternisAI/dockpanel/internal/apierror"
	"github.com/EternisAI/dockpanel/internal/auth"
	"github.com/EternisAI/dockpanel/internal/daemon"
	"github.com/EternisAI/dockpanel/internal/users"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log    LogConfig
	Http   http.Config
	Daemon daemon.Config
	Auth   AuthConfig
}

type AuthConfig struct {
	auth.JWTConfig `mapstructure:",squash"`
	Operator       users.OperatorConfig `mapstructure:"operator"`
}

// Validate reports configuration the process must not start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) must be set: %w", auth.ErrMissingSecret)
	}
	if _, err := apierror.NewMapper(c.Http.ErrorMapping); err != nil {
		return fmt.Errorf("http.error_mapping: %w", err)
	}
	if c.Http.Port == 0 {
		return errors.New("http.port must be set")
	}
	return nil
}

func ParseCommaSeparated(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", LOG_LEVEL_INFO)
	v.SetDefault("http.port", 8081)
	v.SetDefault("http.allowed_origins", []string{defaultOrigin})
	v.SetDefault("http.error_mapping", apierror.ModeCoarse)
	v.SetDefault("daemon.host", daemon.DefaultHost)
	v.SetDefault("daemon.api_version", "")
	v.SetDefault("daemon.socket_timeout", daemon.DefaultSocketTimeout)
	v.SetDefault("daemon.remote_timeout", daemon.DefaultRemoteTimeout)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", auth.DefaultTokenTTL)
	v.SetDefault("auth.operator.username", "admin")
	v.SetDefault("auth.operator.password", "password")
	v.SetDefault("auth.operator.password_hash", "")
}

// LoadConfig reads application.yml when present, then the environment.
// DOCKER_HOST, JWT_SECRET and PORT are honored under their usual names.
func LoadConfig(v *viper.Viper, paths ...string) (Config, error) {
	var config Config

	setDefaults(v)

	v.SetConfigName("application")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("daemon.host", "DOCKER_HOST")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("http.port", "PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}

	var origins []string
	for _, o := range config.Http.AllowedOrigins {
		origins = append(origins, ParseCommaSeparated(o)...)
	}
	config.Http.AllowedOrigins = origins

	return config, nil
}

func InitConfig() Config {
	_ = godotenv.Load()

	config, err := LoadConfig(viper.GetViper(), ".", "./cmd/dockpanel-server")
	if err != nil {
		panic(err)
	}

	initLogger(config.Log.Level)

	if strings.ToUpper(config.Log.Level) == LOG_LEVEL_DEBUG {
		redacted := config
		redacted.Auth.Secret = "***"
		redacted.Auth.Operator.Password = "***"
		configJSON, err := json.MarshalIndent(redacted, "", "  ")
		if err == nil {
			fmt.Println("Config loaded:")
			fmt.Println(string(configJSON))
		}
	}

	return config
}
