// Package i18n localizes gptrans's own operator-facing messages.
//
// It wraps the gotext library to provide simple T() and N() functions
// for translating gptrans's log notices and hints. Translations are embedded
// in the binary via //go:embed and loaded at startup via Init().
//
// Usage:
//
//	import "github.com/minios-linux/gptrans/i18n"
//
//	func main() {
//	    i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	    log.Info(i18n.T("Translation completed!"))
//	    fmt.Println(i18n.N("%d chunk", "%d chunks", count))
//	}
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the compiled .po/.mo translation files.
// Directory structure: locales/{lang}/LC_MESSAGES/gptrans.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for gptrans.
const domain = "gptrans"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// Init initializes the i18n system. If lang is empty, it auto-detects
// from GPTRANS_LANG, then LANGUAGE, LC_ALL, LC_MESSAGES, LANG (the last
// four in GNU gettext order). GPTRANS_LANG=C forces untranslated messages.
//
// Init should be called once at program startup, before any T() or N() calls.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates a string. If no translation is available, returns the
// original string unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms. The singular form is used
// when n == 1, the plural form otherwise (exact rules depend on the
// target language's plural formula).
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// langEnv overrides the locale for gptrans messages only.
const langEnv = "GPTRANS_LANG"

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions after the
// GPTRANS_LANG override.
func detectLanguage() string {
	if val := normalizeLocale(os.Getenv(langEnv)); val != "" {
		if val == "C" || val == "POSIX" {
			return "en"
		}
		return val
	}

	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE can be a colon-separated list; take the first
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		val = normalizeLocale(val)
		// "C" and "POSIX" mean no translation
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}

// normalizeLocale strips the encoding and modifier suffixes
// ("ru_RU.UTF-8@euro" -> "ru_RU").
func normalizeLocale(val string) string {
	val = strings.TrimSpace(val)
	if idx := strings.IndexAny(val, ".@"); idx >= 0 {
		val = val[:idx]
	}
	return val
}
