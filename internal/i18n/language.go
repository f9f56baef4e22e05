// Package i18n resolves the UI language and translates backend error codes.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// Supported UI languages; the first is the default.
var supported = []language.Tag{
	language.Spanish,
	language.Portuguese,
	language.English,
}

var matcher = language.NewMatcher(supported)

type languageContextKey struct{}

// Default returns the default language code.
func Default() string {
	return Base(supported[0])
}

// Supported lists the supported language codes.
func Supported() []string {
	codes := make([]string, 0, len(supported))
	for _, tag := range supported {
		codes = append(codes, Base(tag))
	}
	return codes
}

// IsSupported reports whether code names a supported language exactly.
func IsSupported(code string) bool {
	for _, c := range Supported() {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// Resolve picks the UI language: the stored choice, then the browser's
// Accept-Language header, then fallback (or the default).
func Resolve(stored, acceptLanguage, fallback string) string {
	if stored != "" && IsSupported(stored) {
		return strings.ToLower(stored)
	}
	if acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			tag, _, confidence := matcher.Match(tags...)
			if confidence > language.No {
				return Base(tag)
			}
		}
	}
	if fallback != "" && IsSupported(fallback) {
		return strings.ToLower(fallback)
	}
	return Default()
}

// Base returns the two-letter base code of tag.
func Base(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// WithLanguage stores the resolved language in ctx.
func WithLanguage(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, languageContextKey{}, code)
}

// FromContext returns the language stored in ctx or the default.
func FromContext(ctx context.Context) string {
	if code, ok := ctx.Value(languageContextKey{}).(string); ok && code != "" {
		return code
	}
	return Default()
}
