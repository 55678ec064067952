package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "origin_ip"
	ctxKeyUserAgent contextKey = "origin_ua"
)

// ContextWithIPAddress adds the client IP to context so it can be stored
// with the submission.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds the client User-Agent to context.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// GetIPAddressFromContext extracts IP address from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts User-Agent from context.
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// OriginFromContext builds the Origin recorded with a submission.
// Returns nil when the context carries neither value.
func OriginFromContext(ctx context.Context) *Origin {
	ip := GetIPAddressFromContext(ctx)
	ua := GetUserAgentFromContext(ctx)
	if ip == "" && ua == "" {
		return nil
	}
	return &Origin{IP: ip, UserAgent: ua}
}
