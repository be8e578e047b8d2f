package machine

import (
	"context"
	"fmt"
)

// ctxKey is a typed context key, so a value can only be read back as the type it was stored with
type ctxKey[T any] struct {
	name string
}

func (k ctxKey[T]) String() string {
	return fmt.Sprintf("Key[%T](%s)", *new(T), k.name)
}

func setCtxKey[T any](ctx context.Context, key ctxKey[T], value T) context.Context {
	return context.WithValue(ctx, key, value)
}

func getCtxKey[T any](ctx context.Context, key ctxKey[T]) (T, bool) {
	value, ok := ctx.Value(key).(T)
	return value, ok
}

var sourceKey = ctxKey[string]{name: "source"}

// WithSource names the voting machine that submits lines under ctx
func WithSource(ctx context.Context, source string) context.Context {
	return setCtxKey(ctx, sourceKey, source)
}

// SourceFrom returns the voting machine name stored by WithSource
func SourceFrom(ctx context.Context) (string, bool) {
	return getCtxKey(ctx, sourceKey)
}
