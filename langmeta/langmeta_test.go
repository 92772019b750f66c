package langmeta

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		got, ok := Lookup("en-GB")
		if !ok || got.Name != "British English" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("normalized match", func(t *testing.T) {
		got, ok := Lookup("pt_br")
		if !ok || got.Name != "Brazilian Portuguese" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("base fallback", func(t *testing.T) {
		got, ok := Lookup("fr-LU")
		if !ok || got.Name != "French" || got.Native != "Français" {
			t.Fatalf("unexpected fallback result: %#v", got)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if got, ok := Lookup("zz-ZZ"); ok {
			t.Fatalf("unexpected match: %#v", got)
		}
	})
}

func TestPromptName(t *testing.T) {
	cases := map[string]string{
		"ja":        "Japanese",
		"zh_TW":     "Traditional Chinese",
		"Japanese":  "Japanese",
		" Klingon ": "Klingon",
		"de-AT":     "German",
	}
	for in, want := range cases {
		if got := PromptName(in); got != want {
			t.Errorf("PromptName(%q) = %q, want %q", in, got, want)
		}
	}
}
