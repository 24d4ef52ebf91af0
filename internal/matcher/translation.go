package matcher

import (
	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// ExtractTranslation returns the text of the first translation whose
// language prefix matches lang's, falling back to the first available
// translation, or "" if
// ts is nil or carries no translations. Grounded on
// _extract_translation_value(translation_list, lang='de') in
// src/gtfsduckdb/adapter/gtfsrt.py; lang is configurable per spec.md §9
// instead of hard-coded, resolved from matching.translation_language
// (default "de-DE", compared against the language prefix before '-').
func ExtractTranslation(ts *gtfsrt.TranslatedString, lang string) string {
	if ts == nil || len(ts.GetTranslation()) == 0 {
		return ""
	}

	prefix := languagePrefix(lang)
	for _, t := range ts.GetTranslation() {
		if languagePrefix(t.GetLanguage()) == prefix {
			return t.GetText()
		}
	}
	return ts.GetTranslation()[0].GetText()
}

// languagePrefix returns the part of a BCP-47 tag before the first '-',
// so "de-DE" and "de" compare equal.
func languagePrefix(tag string) string {
	for i, r := range tag {
		if r == '-' {
			return tag[:i]
		}
	}
	return tag
}
