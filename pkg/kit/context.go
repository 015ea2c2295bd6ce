package kit

import "context"

// call describes the request an endpoint is serving.
type call struct {
	transport string
	requestID string
}

type callKey struct{}

func callFrom(ctx context.Context) call {
	c, _ := ctx.Value(callKey{}).(call)
	return c
}

// WithTransport records which transport ("http", "mcp") carried the call.
func WithTransport(ctx context.Context, t string) context.Context {
	c := callFrom(ctx)
	c.transport = t
	return context.WithValue(ctx, callKey{}, c)
}

// GetTransport returns the transport of the call, "http" when unset.
func GetTransport(ctx context.Context) string {
	if t := callFrom(ctx).transport; t != "" {
		return t
	}
	return "http"
}

func WithRequestID(ctx context.Context, id string) context.Context {
	c := callFrom(ctx)
	c.requestID = id
	return context.WithValue(ctx, callKey{}, c)
}

func GetRequestID(ctx context.Context) string {
	return callFrom(ctx).requestID
}
