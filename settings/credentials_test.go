package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDataDirAndFilePathUseXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir() error: %v", err)
	}
	if want := filepath.Join(tmp, "gptrans"); dir != want {
		t.Fatalf("DataDir() = %q, want %q", dir, want)
	}
	if want := filepath.Join(tmp, "gptrans", "auth.json"); FilePath() != want {
		t.Fatalf("FilePath() = %q, want %q", FilePath(), want)
	}
}

func TestHostKey(t *testing.T) {
	cases := map[string]string{
		"https://api.openai.com/v1":       "api.openai.com",
		"https://API.OpenAI.com/v1/":      "api.openai.com",
		"http://localhost:11434/v1":       "localhost:11434",
		"  https://example.test/openai  ": "example.test",
		"not a url":                       "not a url",
	}
	for in, want := range cases {
		if got := HostKey(in); got != want {
			t.Errorf("HostKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	if err := SetAPIKey("https://api.openai.com/v1", "sk-openai-123456"); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}
	if err := SetAPIKey("http://localhost:11434/v1", "local-key-0001"); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}

	info, err := os.Stat(filepath.Join(tmp, "gptrans", "auth.json"))
	if err != nil {
		t.Fatalf("stat auth.json: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("auth.json mode = %o, want 600", info.Mode().Perm())
	}

	// Same host, different path: same key.
	if got := GetAPIKey("https://api.openai.com/v1/"); got != "sk-openai-123456" {
		t.Fatalf("GetAPIKey() = %q", got)
	}

	want := []string{"api.openai.com", "localhost:11434"}
	if got := Load().Hosts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Hosts() = %v, want %v", got, want)
	}

	if err := Remove("https://api.openai.com/v1"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if got := GetAPIKey("https://api.openai.com/v1"); got != "" {
		t.Fatalf("GetAPIKey after remove = %q, want empty", got)
	}
	if got := GetAPIKey("http://localhost:11434/v1"); got != "local-key-0001" {
		t.Fatalf("other host key lost: %q", got)
	}
	if err := Remove("https://missing.example"); err != nil {
		t.Fatalf("Remove(missing) should be no-op, got: %v", err)
	}

	if err := RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error: %v", err)
	}
	if got := Load(); len(got) != 0 {
		t.Fatalf("Load() after RemoveAll should be empty, got=%#v", got)
	}
}

func TestLoadInvalidFileReturnsEmptyStore(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir := filepath.Join(tmp, "gptrans")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "auth.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if got := Load(); len(got) != 0 {
		t.Fatalf("Load() = %#v, want empty", got)
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("short"); got != "****" {
		t.Fatalf("MaskKey(short) = %q", got)
	}
	if got := MaskKey("sk-1234567890abcd"); got != "sk-1...abcd" {
		t.Fatalf("MaskKey(long) = %q", got)
	}
}
