package shared

import "context"

type sessionContextKey struct{}

type profileContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithProfile stores the signed-in profile in context.
func ContextWithProfile(ctx context.Context, profile Profile) context.Context {
	return context.WithValue(ctx, profileContextKey{}, profile)
}

// ProfileFromContext returns the signed-in profile, if any.
func ProfileFromContext(ctx context.Context) (Profile, bool) {
	profile, ok := ctx.Value(profileContextKey{}).(Profile)
	return profile, ok
}
