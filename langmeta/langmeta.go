// Package langmeta maps language codes to the names used in translation
// prompts ("ja" -> "Japanese") and in CLI output.
package langmeta

import "strings"

// Meta describes a language.
type Meta struct {
	// Name is the English name, used in prompts.
	Name string
	// Native is the language's own name, used for display.
	Native string
}

// Registry contains canonical language metadata.
// Locale variants are resolved in Lookup() via normalization and base fallback.
var Registry = map[string]Meta{
	"ar":    {Name: "Arabic", Native: "العربية"},
	"bg":    {Name: "Bulgarian", Native: "Български"},
	"bn":    {Name: "Bengali", Native: "বাংলা"},
	"ca":    {Name: "Catalan", Native: "Català"},
	"cs":    {Name: "Czech", Native: "Čeština"},
	"da":    {Name: "Danish", Native: "Dansk"},
	"de":    {Name: "German", Native: "Deutsch"},
	"el":    {Name: "Greek", Native: "Ελληνικά"},
	"en":    {Name: "English", Native: "English"},
	"en-GB": {Name: "British English", Native: "English (UK)"},
	"es":    {Name: "Spanish", Native: "Español"},
	"es-MX": {Name: "Mexican Spanish", Native: "Español (México)"},
	"et":    {Name: "Estonian", Native: "Eesti"},
	"fa":    {Name: "Persian", Native: "فارسی"},
	"fi":    {Name: "Finnish", Native: "Suomi"},
	"fr":    {Name: "French", Native: "Français"},
	"he":    {Name: "Hebrew", Native: "עברית"},
	"hi":    {Name: "Hindi", Native: "हिन्दी"},
	"hr":    {Name: "Croatian", Native: "Hrvatski"},
	"hu":    {Name: "Hungarian", Native: "Magyar"},
	"id":    {Name: "Indonesian", Native: "Bahasa Indonesia"},
	"it":    {Name: "Italian", Native: "Italiano"},
	"ja":    {Name: "Japanese", Native: "日本語"},
	"ko":    {Name: "Korean", Native: "한국어"},
	"lt":    {Name: "Lithuanian", Native: "Lietuvių"},
	"lv":    {Name: "Latvian", Native: "Latviešu"},
	"ms":    {Name: "Malay", Native: "Bahasa Melayu"},
	"nb":    {Name: "Norwegian Bokmål", Native: "Norsk bokmål"},
	"nl":    {Name: "Dutch", Native: "Nederlands"},
	"pl":    {Name: "Polish", Native: "Polski"},
	"pt":    {Name: "Portuguese", Native: "Português"},
	"pt-BR": {Name: "Brazilian Portuguese", Native: "Português (Brasil)"},
	"ro":    {Name: "Romanian", Native: "Română"},
	"ru":    {Name: "Russian", Native: "Русский"},
	"sk":    {Name: "Slovak", Native: "Slovenčina"},
	"sl":    {Name: "Slovenian", Native: "Slovenščina"},
	"sr":    {Name: "Serbian", Native: "Српски"},
	"sv":    {Name: "Swedish", Native: "Svenska"},
	"th":    {Name: "Thai", Native: "ไทย"},
	"tr":    {Name: "Turkish", Native: "Türkçe"},
	"uk":    {Name: "Ukrainian", Native: "Українська"},
	"vi":    {Name: "Vietnamese", Native: "Tiếng Việt"},
	"zh":    {Name: "Chinese", Native: "中文"},
	"zh-CN": {Name: "Simplified Chinese", Native: "简体中文"},
	"zh-TW": {Name: "Traditional Chinese", Native: "繁體中文"},
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Lookup returns metadata for a language code, supporting variants like
// pt_BR, pt-BR, and base-language fallbacks.
func Lookup(lang string) (Meta, bool) {
	if m, ok := Registry[lang]; ok {
		return m, true
	}
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m, true
	}
	if parts := strings.SplitN(normalized, "-", 2); len(parts) == 2 {
		if m, ok := Registry[parts[0]]; ok {
			return m, true
		}
	}
	return Meta{}, false
}

// PromptName returns the English name for a code, or lang unchanged when
// it is not a known code (so "Klingon" or "Japanese" pass through).
func PromptName(lang string) string {
	if m, ok := Lookup(lang); ok {
		return m.Name
	}
	return strings.TrimSpace(lang)
}
