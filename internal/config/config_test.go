package config

import (
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Generation.Provider != "openai" || cfg.Generation.SuggestionsPerPlatform != 3 {
		t.Fatalf("generation defaults = %+v", cfg.Generation)
	}
	if cfg.Research.Model != "sonar" {
		t.Fatalf("research defaults = %+v", cfg.Research)
	}
	if cfg.Worker.IntervalSeconds != 60 {
		t.Fatalf("worker defaults = %+v", cfg.Worker)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "postcraft.yaml")
	cfg := Default()
	cfg.Generation.Model = "gpt-4o"
	cfg.Storage.DBPath = "/tmp/test.db"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Generation.Model != "gpt-4o" || got.Storage.DBPath != "/tmp/test.db" {
		t.Fatalf("roundtrip = %+v", got)
	}
}

func TestResolveEnvFillsMissingCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("LINKEDIN_USER_ID", "env-member")

	cfg := Default()
	cfg.Credentials.PerplexityKey = "from-file"
	cfg.ResolveEnv()

	if cfg.Credentials.OpenAIKey != "env-key" {
		t.Fatalf("openai key = %q", cfg.Credentials.OpenAIKey)
	}
	if cfg.Credentials.LinkedInUserID != "env-member" {
		t.Fatalf("linkedin user = %q", cfg.Credentials.LinkedInUserID)
	}
	// File values win over the environment.
	if cfg.Credentials.PerplexityKey != "from-file" {
		t.Fatalf("perplexity key = %q", cfg.Credentials.PerplexityKey)
	}
}
