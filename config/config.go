// Package config resolves gptrans settings from built-in defaults, an
// optional .gptrans.yaml file and environment variables.
//
// Precedence (lowest to highest): defaults, .gptrans.yaml, INPUT_* (GitHub
// Actions inputs), GPTRANS_* environment variables. Command-line flags are
// applied on top by the caller. The API key is never read from the YAML
// file, which is usually committed.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

const (
	DefaultBaseURL  = "https://api.openai.com/v1"
	DefaultModel    = "gpt-3.5-turbo-16k"
	DefaultPrompt   = "Please translate the given text into naturalistic {targetLanguage}."
	DefaultSplitter = "\n\n"
	DefaultTimeout  = 10 * time.Minute
)

// ErrMissingAPIKey is returned by Validate when no API key was found.
var ErrMissingAPIKey = errors.New("API key could not be retrieved")

// Config holds everything needed to run a translation.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Prompt   string
	Splitter string
	Proxy    string
	Timeout  time.Duration
	// Stream requests server-sent events from the backend.
	Stream bool
}

// Defaults returns a Config populated with built-in defaults.
func Defaults() *Config {
	return &Config{
		BaseURL:  DefaultBaseURL,
		Model:    DefaultModel,
		Prompt:   DefaultPrompt,
		Splitter: DefaultSplitter,
		Timeout:  DefaultTimeout,
		Stream:   true,
	}
}

// Load builds a Config for the project in rootDir.
func Load(rootDir string) (*Config, error) {
	cfg := Defaults()

	f, err := LoadFile(rootDir)
	if err != nil {
		return nil, err
	}
	if f != nil {
		if err := f.apply(cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration errors that must stop a run before any
// request is sent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.Model == "" {
		return errors.New("model is empty")
	}
	if c.Splitter == "" {
		return errors.New("splitter is empty")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// envKeys maps a setting to its environment variables, highest priority first.
var envKeys = map[string][]string{
	"api_key":  {"GPTRANS_API_KEY", "INPUT_APIKEY"},
	"base_url": {"GPTRANS_BASE_URL", "INPUT_BASEPATH"},
	"model":    {"GPTRANS_MODEL", "INPUT_MODEL"},
	"prompt":   {"GPTRANS_PROMPT", "INPUT_PROMPT"},
	"splitter": {"GPTRANS_SPLITTER", "INPUT_SPLITTER"},
	"proxy":    {"GPTRANS_PROXY"},
	"timeout":  {"GPTRANS_TIMEOUT"},
	"stream":   {"GPTRANS_STREAM"},
}

// lookupEnv returns the first non-empty value among the variables for key.
func lookupEnv(key string) (string, bool) {
	for _, name := range envKeys[key] {
		if v := os.Getenv(name); v != "" {
			return v, true
		}
	}
	return "", false
}

func applyEnv(cfg *Config) error {
	if v, ok := lookupEnv("api_key"); ok {
		cfg.APIKey = v
	}
	if v, ok := lookupEnv("base_url"); ok {
		cfg.BaseURL = v
	}
	if v, ok := lookupEnv("model"); ok {
		cfg.Model = v
	}
	if v, ok := lookupEnv("prompt"); ok {
		cfg.Prompt = v
	}
	if v, ok := lookupEnv("splitter"); ok {
		cfg.Splitter = UnescapeSplitter(v)
	}
	if v, ok := lookupEnv("proxy"); ok {
		cfg.Proxy = v
	}
	if v, ok := lookupEnv("timeout"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GPTRANS_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v, ok := lookupEnv("stream"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GPTRANS_STREAM: %w", err)
		}
		cfg.Stream = b
	}
	return nil
}

// UnescapeSplitter turns the escape sequences \n, \r, \t and \\ into the
// characters they name, so splitters can be passed on a command line.
func UnescapeSplitter(s string) string {
	return strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r", `\t`, "\t").Replace(s)
}
