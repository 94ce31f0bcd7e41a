// Package session owns the client's authentication lifecycle: the bearer
// credential, the current user record, login/registration, rehydration from
// persisted credentials, and an idempotent logout sequence.
//
// The logout re-entrancy guard is a compare-and-set state machine
// (idle -> logging out -> idle), so any number of concurrent authorization
// failures trigger at most one logout. Every state change bumps a session
// epoch; responses belonging to a previous epoch are discarded instead of
// mutating the new session's state.
//
// The package also provides UnauthorizedInterceptor, the response filter
// that turns a backend 401 into a single logout and a single warning
// notification per failure storm.
package session
