package config

import (
	"strings"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort              string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL           string `env:"DATABASE_URL,required"`
	LLMAPIKey             string `env:"LLM_API_KEY,required"`
	LLMBaseURL            string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel              string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	Environment           string `env:"API_ENVIRONMENT"`
	AllowOrigins          string `env:"API_ALLOW_ORIGINS"`
	RedisAddr             string `env:"REDIS_ADDR"`
	RedisPassword         string `env:"REDIS_PASSWORD"`
	RedisDB               int    `env:"REDIS_DB" envDefault:"0"`
	ChatRateWindowSeconds int    `env:"CHAT_RATE_WINDOW_SECONDS" envDefault:"60"`
	ChatRateMax           int    `env:"CHAT_RATE_MAX" envDefault:"20"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CORSOrigins devuelve los orígenes permitidos según el ambiente.
// API_ENVIRONMENT=develop deshabilita el chequeo permitiendo cualquier origen.
func (c *Config) CORSOrigins() []string {
	if c.Environment == "develop" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
