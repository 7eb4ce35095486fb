package store

import "context"

type keyContext struct{}

// DefaultKey routes contexts that carry no key.
const DefaultKey = "default"

// WithKey sets the routing key used by every Store reading ctx.
func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, keyContext{}, key)
}

func KeyFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(keyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok
}

// KeyOrDefault is a key function that never fails.
func KeyOrDefault(ctx context.Context) (string, bool) {
	key, ok := KeyFromContext(ctx)
	if ok && key != "" {
		return key, true
	}
	return DefaultKey, true
}
