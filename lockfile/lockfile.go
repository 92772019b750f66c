// Package lockfile implements gptrans.lock, which records a fingerprint of
// every translated output: the source text and the settings that produced
// it (language, extension, model, prompt, splitter, endpoint). A run whose fingerprint matches the lock
// entry and whose output file still exists is skipped, saving tokens.
//
// The lock file is stored in the project root as gptrans.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "gptrans.lock"

// Version is the lock file format version.
const Version = 1

// LockFile represents the gptrans.lock file structure.
type LockFile struct {
	Version int `yaml:"version"`
	// Outputs maps an output path to the fingerprint of its inputs.
	Outputs map[string]string `yaml:"outputs"`

	path string `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version: Version,
		Outputs: make(map[string]string),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path
	if lf.Outputs == nil {
		lf.Outputs = make(map[string]string)
	}
	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Fingerprints
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// Inputs are the values that determine a translation's output.
type Inputs struct {
	Source   string
	Lang     string
	Ext      string
	Model    string
	Prompt   string
	Splitter string
	BaseURL  string
}

// Fingerprint hashes in. Fields are NUL-separated so moving text between
// adjacent fields changes the hash.
func Fingerprint(in Inputs) string {
	return Hash(strings.Join([]string{
		in.Source, in.Lang, in.Ext, in.Model, in.Prompt, in.Splitter, in.BaseURL,
	}, "\x00"))
}

// TargetKey normalizes an output path for use as a lock key.
func TargetKey(filePath string) string {
	return filepath.ToSlash(filepath.Clean(filePath))
}

// IsChanged reports whether target must be (re)translated: it has no entry
// or the recorded fingerprint differs.
func (lf *LockFile) IsChanged(target, fingerprint string) bool {
	old, ok := lf.Outputs[TargetKey(target)]
	return !ok || old != fingerprint
}

// Update records fingerprint for target after a successful translation.
func (lf *LockFile) Update(target, fingerprint string) {
	lf.Outputs[TargetKey(target)] = fingerprint
}

// Remove deletes the entry for target.
func (lf *LockFile) Remove(target string) {
	delete(lf.Outputs, TargetKey(target))
}

// Targets returns the sorted list of recorded outputs.
func (lf *LockFile) Targets() []string {
	targets := make([]string, 0, len(lf.Outputs))
	for t := range lf.Outputs {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	if len(lf.Outputs) == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d outputs (%s)", len(lf.Outputs), strings.Join(lf.Targets(), ", "))
}
