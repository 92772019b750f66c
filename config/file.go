package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file name.
const FileName = ".gptrans.yaml"

// File is the .gptrans.yaml structure. Empty fields keep their defaults.
type File struct {
	// BaseURL is the chat-completion API root.
	BaseURL string `yaml:"base_url,omitempty"`
	// Model is the model identifier; it also selects the token budget.
	Model string `yaml:"model,omitempty"`
	// Prompt is the system prompt template ({targetLanguage}, {targetFileExt}).
	Prompt string `yaml:"prompt,omitempty"`
	// Splitter is the segment delimiter; escape sequences are honoured.
	Splitter string `yaml:"splitter,omitempty"`
	// Proxy is an HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty"`
	// Timeout is a Go duration string such as "5m".
	Timeout string `yaml:"timeout,omitempty"`
	// Stream toggles server-sent events (default true).
	Stream *bool `yaml:"stream,omitempty"`

	path string
}

// LoadFile reads .gptrans.yaml from rootDir. It returns nil, nil when the
// file does not exist.
func LoadFile(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.path = path
	return &f, nil
}

// Path returns the file the settings were read from.
func (f *File) Path() string {
	return f.path
}

func (f *File) apply(cfg *Config) error {
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.Model != "" {
		cfg.Model = f.Model
	}
	if f.Prompt != "" {
		cfg.Prompt = f.Prompt
	}
	if f.Splitter != "" {
		cfg.Splitter = UnescapeSplitter(f.Splitter)
	}
	if f.Proxy != "" {
		cfg.Proxy = f.Proxy
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("%s: timeout: %w", f.path, err)
		}
		cfg.Timeout = d
	}
	if f.Stream != nil {
		cfg.Stream = *f.Stream
	}
	return nil
}
