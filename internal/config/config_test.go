package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:    HTTPConfig{Port: 8080},
		Search:  SearchConfig{Endpoint: "https://search.example.com", Index: "course-content"},
		Storage: StorageConfig{Addrs: []string{"localhost:6379"}},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for port %d", port)
		}
	}
}

func TestValidate_MissingSearchEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Endpoint = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing search endpoint")
	}
}

func TestValidate_MissingSearchIndex(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Index = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing search index")
	}
}

func TestValidate_MissingStorageAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing storage addrs")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Search.APIVersion != "2024-07-01" {
		t.Errorf("expected APIVersion=2024-07-01, got %q", cfg.Search.APIVersion)
	}
	if cfg.Search.SemanticConfig != "default" {
		t.Errorf("expected SemanticConfig=default, got %q", cfg.Search.SemanticConfig)
	}
	if cfg.Search.QueryLanguage != "he-il" {
		t.Errorf("expected QueryLanguage=he-il, got %q", cfg.Search.QueryLanguage)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-large" {
		t.Errorf("expected default embedding model, got %q", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Errorf("expected default chat model, got %q", cfg.OpenAI.ChatModel)
	}
	if cfg.OpenAI.MaxTokens != 10000 {
		t.Errorf("expected MaxTokens=10000, got %d", cfg.OpenAI.MaxTokens)
	}
	if cfg.Storage.KeyPrefix != "coursechat:" {
		t.Errorf("expected KeyPrefix='coursechat:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Prompts.Dir != "prompts" {
		t.Errorf("expected Prompts.Dir=prompts, got %q", cfg.Prompts.Dir)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 5, WriteTimeoutSec: 60, ShutdownSec: 5},
		Search:  SearchConfig{APIVersion: "2023-11-01", SemanticConfig: "custom", QueryLanguage: "en-us"},
		OpenAI:  OpenAIConfig{ChatModel: "gpt-4o-mini", MaxTokens: 2000},
		Storage: StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 5 {
		t.Errorf("expected ReadTimeoutSec=5, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Search.APIVersion != "2023-11-01" {
		t.Errorf("expected APIVersion=2023-11-01, got %q", cfg.Search.APIVersion)
	}
	if cfg.Search.QueryLanguage != "en-us" {
		t.Errorf("expected QueryLanguage=en-us, got %q", cfg.Search.QueryLanguage)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("expected ChatModel=gpt-4o-mini, got %q", cfg.OpenAI.ChatModel)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("COURSECHAT_TEST_VAR", "expanded")

	got := string(expandEnvVars([]byte("value: ${COURSECHAT_TEST_VAR}")))
	if got != "value: expanded" {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	os.Unsetenv("COURSECHAT_UNSET_VAR")

	got := string(expandEnvVars([]byte("value: ${COURSECHAT_UNSET_VAR:-fallback}")))
	if got != "value: fallback" {
		t.Errorf("got %q", got)
	}

	t.Setenv("COURSECHAT_SET_VAR", "real")
	got = string(expandEnvVars([]byte("value: ${COURSECHAT_SET_VAR:-fallback}")))
	if got != "value: real" {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_UnsetNoDefault(t *testing.T) {
	os.Unsetenv("COURSECHAT_UNSET_VAR")

	got := string(expandEnvVars([]byte("value: ${COURSECHAT_UNSET_VAR}")))
	if got != "value: " {
		t.Errorf("got %q", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if env := GetEnv(); env != "local" {
		t.Errorf("got %q, want local", env)
	}

	t.Setenv("ENV", "prod")
	if env := GetEnv(); env != "prod" {
		t.Errorf("got %q, want prod", env)
	}
}
