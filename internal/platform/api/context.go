package api

import "context"

type tokenContextKey struct{}

type languageContextKey struct{}

// WithToken attaches the backend access token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the access token carried by ctx.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

// WithLanguage attaches the UI language forwarded as Accept-Language.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageContextKey{}, lang)
}

// LanguageFromContext returns the language carried by ctx.
func LanguageFromContext(ctx context.Context) string {
	lang, _ := ctx.Value(languageContextKey{}).(string)
	return lang
}
