// Package apiclient implements the HTTP client used by every store in this
// module. It owns the cross-cutting concerns the stores must not duplicate:
// attaching the bearer credential, JSON encoding and decoding, mapping
// backend failures to a small error taxonomy, and running a response
// interceptor chain registered once at construction.
//
// Each outbound call carries a *Request value with a unique ID and a
// once-only handled marker, so an interceptor reacting to an authorization
// failure can guarantee it processes a given call at most once even when the
// transport re-delivers the same error.
//
// Example:
//
//	client := apiclient.New("http://localhost:5000/api",
//		apiclient.WithTokenSource(mgr.Token),
//	)
//	client.Use(session.UnauthorizedInterceptor(mgr, notifier))
//
//	var cats []Category
//	err := client.Get(ctx, "/categories", &cats)
package apiclient
