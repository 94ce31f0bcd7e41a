package session

import (
	"context"
	"net/http"

	"github.com/Yahoo0976095579/accounting-go/core/apiclient"
	"github.com/Yahoo0976095579/accounting-go/core/notify"
)

// ExpiredMessage is the warning surfaced when the backend reports that the
// session credential is no longer valid.
const ExpiredMessage = "session expired, please log in again"

// UnauthorizedInterceptor returns the response filter that converts a
// backend 401 into a single logout and a single warning notification.
//
// Exclusions, checked in order: the login endpoint, the registration
// endpoint (a 401 there is a bad password, not an expired session), and
// calls already handled by a previous delivery of the same error. The
// once-only handled marker plus the manager's logout guard ensure that a
// storm of concurrent 401s produces exactly one logout, one notification,
// and one redirect; every caller still receives its error so its own
// failure path runs.
func UnauthorizedInterceptor(mgr *Manager, notifier *notify.Notifier) apiclient.Interceptor {
	return func(ctx context.Context, req *apiclient.Request, res *apiclient.Response, err error) error {
		if res == nil || res.StatusCode != http.StatusUnauthorized {
			return err
		}
		if req.Path == PathLogin || req.Path == PathRegister {
			return err
		}
		if !req.MarkHandled() {
			return err
		}

		// Capture the session generation before the checks below. If a
		// concurrent teardown completes between these checks and the
		// logout guard, the generation will have advanced and the stale
		// logout attempt becomes a no-op instead of a second teardown.
		epoch := mgr.Epoch()

		if mgr.IsLoggingOut() {
			// A logout sequence is already tearing the session down;
			// re-triggering it here would race the cleanup.
			return err
		}

		if mgr.IsAuthenticated() {
			// Notify only when this call actually initiated the
			// teardown, so a storm of simultaneous 401s surfaces a
			// single warning.
			if mgr.logoutIfCurrent(ctx, epoch) {
				notifier.Show(ExpiredMessage, notify.KindWarning)
			}
		}
		return err
	}
}
