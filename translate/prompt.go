package translate

import "strings"

// Placeholders recognized in prompt templates.
const (
	PlaceholderLanguage = "{targetLanguage}"
	PlaceholderFileExt  = "{targetFileExt}"
)

// DefaultPrompt is used when no prompt template is configured.
const DefaultPrompt = "Please translate the given text into naturalistic {targetLanguage}."

// RenderPrompt substitutes every occurrence of the language and file
// extension placeholders. Substitution is literal; the values are not
// re-scanned for placeholders.
func RenderPrompt(template, targetLanguage, targetFileExt string) string {
	return strings.NewReplacer(
		PlaceholderLanguage, targetLanguage,
		PlaceholderFileExt, targetFileExt,
	).Replace(template)
}
