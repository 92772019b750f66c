// Package settings stores gptrans API keys outside the project tree.
//
// Keys live in the XDG data directory:
//
//	$XDG_DATA_HOME/gptrans/auth.json  (default: ~/.local/share/gptrans/)
//
// The file is a JSON object keyed by API host (e.g. "api.openai.com"),
// so one key can be kept per endpoint. File permissions are 0600.
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. GPTRANS_API_KEY / INPUT_APIKEY environment variables
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	dataDirName = "gptrans"
	fileName    = "auth.json"
)

// Info is the entry stored per API host.
type Info struct {
	Key string `json:"key"`
	// BaseURL is the endpoint the key was saved for, kept for display.
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all credentials, keyed by API host.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for gptrans.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// DataDir returns the gptrans data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// HostKey derives the store key for a base URL: its lower-cased host
// (with port). Unparsable input is used as-is.
func HostKey(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(baseURL))
	}
	return strings.ToLower(u.Host)
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// API key helpers
// ---------------------------------------------------------------------------

// SetAPIKey stores key for the endpoint at baseURL (upsert).
func SetAPIKey(baseURL, key string) error {
	store := Load()
	store[HostKey(baseURL)] = &Info{Key: key, BaseURL: baseURL}
	return Save(store)
}

// GetAPIKey returns the stored key for baseURL, or "".
func GetAPIKey(baseURL string) string {
	info := Load()[HostKey(baseURL)]
	if info == nil {
		return ""
	}
	return info.Key
}

// Remove deletes the key stored for baseURL. Missing entries are a no-op.
func Remove(baseURL string) error {
	store := Load()
	host := HostKey(baseURL)
	if _, ok := store[host]; !ok {
		return nil
	}
	delete(store, host)
	return Save(store)
}

// RemoveAll removes the credential file.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// Hosts returns the stored hosts in sorted order.
func (s Store) Hosts() []string {
	hosts := make([]string, 0, len(s))
	for h := range s {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
