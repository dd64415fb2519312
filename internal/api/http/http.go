package http

type Config struct {
	Port           uint     `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ErrorMapping   string   `mapstructure:"error_mapping"`
}
