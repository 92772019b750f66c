package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, names := range envKeys {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
}

func writeFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Model != "gpt-3.5-turbo-16k" {
		t.Errorf("Model = %q, want gpt-3.5-turbo-16k", cfg.Model)
	}
	if cfg.Prompt != DefaultPrompt {
		t.Errorf("Prompt = %q", cfg.Prompt)
	}
	if cfg.Splitter != "\n\n" {
		t.Errorf("Splitter = %q, want double newline", cfg.Splitter)
	}
	if !cfg.Stream {
		t.Errorf("Stream = false, want true")
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, `
base_url: http://localhost:11434/v1
model: llama3-32k
prompt: "Translate into {targetLanguage}, keep {targetFileExt} markup."
splitter: '\n'
timeout: 90s
stream: false
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Model != "llama3-32k" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Prompt != "Translate into {targetLanguage}, keep {targetFileExt} markup." {
		t.Errorf("Prompt = %q", cfg.Prompt)
	}
	if cfg.Splitter != "\n" {
		t.Errorf("Splitter = %q, want newline", cfg.Splitter)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.Timeout)
	}
	if cfg.Stream {
		t.Errorf("Stream = true, want false")
	}
}

func TestLoadEnvPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "model: from-file\n")

	t.Setenv("INPUT_MODEL", "from-actions")
	t.Setenv("INPUT_APIKEY", "sk-actions")
	t.Setenv("INPUT_BASEPATH", "https://example.test/v1")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Model != "from-actions" {
		t.Errorf("Model = %q, want from-actions", cfg.Model)
	}
	if cfg.APIKey != "sk-actions" {
		t.Errorf("APIKey = %q, want sk-actions", cfg.APIKey)
	}
	if cfg.BaseURL != "https://example.test/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}

	t.Setenv("GPTRANS_MODEL", "from-env")
	cfg, err = Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Model != "from-env" {
		t.Errorf("Model = %q, want from-env", cfg.Model)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("invalid yaml", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		writeFile(t, dir, "model: [unclosed\n")
		if _, err := Load(dir); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("invalid timeout in file", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		writeFile(t, dir, "timeout: soon\n")
		if _, err := Load(dir); err == nil {
			t.Fatal("expected timeout error")
		}
	})

	t.Run("invalid stream env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GPTRANS_STREAM", "maybe")
		if _, err := Load(t.TempDir()); err == nil {
			t.Fatal("expected stream error")
		}
	})
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Validate() = %v, want ErrMissingAPIKey", err)
	}

	cfg.APIKey = "   "
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Validate(blank key) = %v, want ErrMissingAPIKey", err)
	}

	cfg.APIKey = "sk-1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	cfg.Splitter = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate(empty splitter) = nil, want error")
	}
}

func TestUnescapeSplitter(t *testing.T) {
	cases := map[string]string{
		`\n\n`: "\n\n",
		`\r\n`: "\r\n",
		`\t`:   "\t",
		`---`:  "---",
		`\\n`:  `\n`,
		"\n\n": "\n\n",
		`a\nb`: "a\nb",
	}
	for in, want := range cases {
		if got := UnescapeSplitter(in); got != want {
			t.Errorf("UnescapeSplitter(%q) = %q, want %q", in, got, want)
		}
	}
}
