package protocol

import (
	"context"
	"maps"
)

type requestMetaKey struct{}
type batchIndexKey struct{}

// RequestMeta holds transport-level metadata associated with a request,
// such as HTTP headers or connection details. Transports attach it before
// handing the payload to the dispatcher; middleware and handlers read it.
type RequestMeta map[string]string

// ContextWithRequestMeta attaches meta to ctx, replacing any metadata
// already present.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the metadata attached to ctx, or nil when
// there is none.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// GetRequestMeta returns one metadata value, or "" when the key (or the
// metadata itself) is absent.
func GetRequestMeta(ctx context.Context, key string) string {
	return RequestMetaFromContext(ctx)[key]
}

// SetRequestMeta returns a context whose metadata has key set to value.
// Metadata already on ctx is cloned first, so callers sharing the parent
// context never observe the write.
func SetRequestMeta(ctx context.Context, key, value string) context.Context {
	meta := maps.Clone(RequestMetaFromContext(ctx))
	if meta == nil {
		meta = make(RequestMeta, 1)
	}
	meta[key] = value
	return ContextWithRequestMeta(ctx, meta)
}

// ContextWithBatchIndex records the position of a request within its batch.
// The dispatcher sets it for every batch element; single calls carry none.
func ContextWithBatchIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, batchIndexKey{}, index)
}

// BatchIndexFromContext returns the position of the request within its
// batch. The second return is false for single (non-batch) calls.
func BatchIndexFromContext(ctx context.Context) (int, bool) {
	index, ok := ctx.Value(batchIndexKey{}).(int)
	return index, ok
}
