package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment variables, e.g. WORKLOG_SERVER_PORT.
const envPrefix = "WORKLOG"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file, which takes precedence over
// built-in defaults. Returns a populated Config struct or an error if
// loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file; absence is fine, a malformed file is not.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables: WORKLOG_SERVER_PORT maps to server.port.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so the
	// secrets, which deliberately have no defaults, are bound explicitly.
	for _, key := range []string{
		"database.url",
		"auth.jwt_secret",
		"auth.github_client_id",
		"auth.github_client_secret",
		"backend.cursor_api_key",
		"backend.gemini_api_key",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers the built-in defaults for every setting that has a
// sensible one. Secrets and credentials deliberately have no default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 720)
	v.SetDefault("auth.callback_url", "http://localhost:8080/api/auth/callback")
	v.SetDefault("auth.frontend_url", "")

	v.SetDefault("github.api_base", "https://api.github.com")

	v.SetDefault("backend.kind", "agent")
	v.SetDefault("backend.repos_cache_dir", ".repos_cache")
	v.SetDefault("backend.summary_cache_dir", ".summary_cache")
	v.SetDefault("backend.git_log_max_chars", 50000)
	v.SetDefault("backend.git_log_timeout_seconds", 60)
	v.SetDefault("backend.agent_timeout_seconds", 300)
	v.SetDefault("backend.gemini_model", "gemini-2.0-flash")
	v.SetDefault("backend.max_retries", 3)
	v.SetDefault("backend.retry_delay_seconds", 2)
	v.SetDefault("backend.ollama_host", "http://localhost:11434")
	v.SetDefault("backend.ollama_model", "llama3.2")
	v.SetDefault("backend.ollama_temperature", 0.0)
}

// validate runs struct validation over the loaded configuration and wraps
// any failure in a readable error.
func validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config validation failed: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
