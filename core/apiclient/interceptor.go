package apiclient

import "context"

// Response is the subset of the HTTP response interceptors can observe.
// Nil when the transport produced no response at all.
type Response struct {
	StatusCode int
	Body       []byte
}

// Interceptor observes the outcome of every outbound call after the client
// has mapped it to an error (nil for success). The returned error replaces
// the current one, so an interceptor may pass it through unchanged, wrap it,
// or swallow it by returning nil.
//
// Interceptors run in registration order, each seeing the previous one's
// result.
type Interceptor func(ctx context.Context, req *Request, res *Response, err error) error

// intercept runs the chain over a completed call.
func intercept(ctx context.Context, chain []Interceptor, req *Request, res *Response, err error) error {
	for _, ic := range chain {
		err = ic(ctx, req, res, err)
	}
	return err
}
