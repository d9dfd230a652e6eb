package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	GitHub   GitHubConfig   `mapstructure:"github"   validate:"required"`
	Backend  BackendConfig  `mapstructure:"backend"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication and GitHub OAuth settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	GitHubClientID       string `mapstructure:"github_client_id"       validate:"required"`
	GitHubClientSecret   string `mapstructure:"github_client_secret"   validate:"required"`
	CallbackURL          string `mapstructure:"callback_url"           validate:"required,url"`
	// FrontendURL is where the OAuth callback redirects after issuing a
	// token. When empty the callback responds with JSON instead.
	FrontendURL string `mapstructure:"frontend_url" validate:"omitempty,url"`
}

// GitHubConfig contains settings for the GitHub activity source.
type GitHubConfig struct {
	APIBase string `mapstructure:"api_base" validate:"required,url"`
}

// BackendConfig contains analysis backend selection and tuning settings.
// Exactly one backend kind is active at a time; kind-specific fields are
// validated by the backend constructor, not here, so that e.g. a Gemini key
// is not demanded when the agent backend is configured.
type BackendConfig struct {
	Kind string `mapstructure:"kind" validate:"required,oneof=agent gemini ollama"`

	// Mirror and history extraction (agent backend only).
	ReposCacheDir        string `mapstructure:"repos_cache_dir"         validate:"required"`
	SummaryCacheDir      string `mapstructure:"summary_cache_dir"       validate:"required"`
	GitLogMaxChars       int    `mapstructure:"git_log_max_chars"       validate:"required,gt=0"`
	GitLogTimeoutSeconds int    `mapstructure:"git_log_timeout_seconds" validate:"required,gt=0"`

	// External analysis CLI.
	AgentTimeoutSeconds int    `mapstructure:"agent_timeout_seconds" validate:"required,gt=0"`
	CursorAPIKey        string `mapstructure:"cursor_api_key"`

	// Hosted Gemini API.
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	GeminiModel       string `mapstructure:"gemini_model"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`

	// Local Ollama server.
	OllamaHost        string  `mapstructure:"ollama_host"        validate:"omitempty,url"`
	OllamaModel       string  `mapstructure:"ollama_model"`
	OllamaTemperature float64 `mapstructure:"ollama_temperature" validate:"gte=0"`
}
