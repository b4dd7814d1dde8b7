package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	Generation  GenerationConfig  `yaml:"generation"`
	Research    ResearchConfig    `yaml:"research"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Worker      WorkerConfig      `yaml:"worker"`
}

type CredentialsConfig struct {
	// OpenAI-compatible key for generation. If empty, read OPENAI_API_KEY.
	OpenAIKey string `yaml:"openaiKey"`
	// Perplexity key for research. If empty, read PERPLEXITY_API_KEY.
	PerplexityKey string `yaml:"perplexityKey"`
	// OAuth1.0a credentials for posting to X.
	TwitterConsumerKey    string `yaml:"twitterConsumerKey"`
	TwitterConsumerSecret string `yaml:"twitterConsumerSecret"`
	TwitterAccessToken    string `yaml:"twitterAccessToken"`
	TwitterAccessSecret   string `yaml:"twitterAccessSecret"`
	// LinkedIn member URN and access token for ugcPosts.
	LinkedInAccessToken string `yaml:"linkedinAccessToken"`
	LinkedInUserID      string `yaml:"linkedinUserId"`
}

type GenerationConfig struct {
	Provider string `yaml:"provider"` // claude, openai, gemini, xai
	Model    string `yaml:"model"`
	// Suggestions generated per platform (content variations).
	SuggestionsPerPlatform int `yaml:"suggestionsPerPlatform"`
}

type ResearchConfig struct {
	Model string `yaml:"model"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // e.g. ":9090"; empty disables the server
}

type WorkerConfig struct {
	// Poll interval in seconds for the deferred-publish loop.
	IntervalSeconds int `yaml:"intervalSeconds"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Generation: GenerationConfig{Provider: "openai", Model: "gpt-4o-mini", SuggestionsPerPlatform: 3},
		Research:   ResearchConfig{Model: "sonar"},
		Storage:    StorageConfig{DBPath: "./postcraft.db"},
		Worker:     WorkerConfig{IntervalSeconds: 60},
	}
}

// ResolveEnv fills in credential fields from environment variables if not set.
// A .env file next to the process is honored first.
func (c *Config) ResolveEnv() {
	_ = godotenv.Load()
	if c.Credentials.OpenAIKey == "" {
		c.Credentials.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Credentials.PerplexityKey == "" {
		c.Credentials.PerplexityKey = os.Getenv("PERPLEXITY_API_KEY")
	}
	if c.Credentials.TwitterConsumerKey == "" {
		c.Credentials.TwitterConsumerKey = os.Getenv("TWITTER_CONSUMER_KEY")
	}
	if c.Credentials.TwitterConsumerSecret == "" {
		c.Credentials.TwitterConsumerSecret = os.Getenv("TWITTER_CONSUMER_SECRET")
	}
	if c.Credentials.TwitterAccessToken == "" {
		c.Credentials.TwitterAccessToken = os.Getenv("TWITTER_ACCESS_TOKEN")
	}
	if c.Credentials.TwitterAccessSecret == "" {
		c.Credentials.TwitterAccessSecret = os.Getenv("TWITTER_ACCESS_SECRET")
	}
	if c.Credentials.LinkedInAccessToken == "" {
		c.Credentials.LinkedInAccessToken = os.Getenv("LINKEDIN_ACCESS_TOKEN")
	}
	if c.Credentials.LinkedInUserID == "" {
		c.Credentials.LinkedInUserID = os.Getenv("LINKEDIN_USER_ID")
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
