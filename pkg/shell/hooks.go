package shell

import (
	"context"
	"net/http"

	"appshell/pkg/bootstrap"
)

// AuthBeforeLoad attaches the caller's identity to the route context. When a
// session token is present the route's API client is replaced by a copy
// authenticated with it.
func AuthBeforeLoad(backend bootstrap.Backend) BeforeLoad {
	return func(r *http.Request, rc *RouteContext) error {
		id, err := bootstrap.FetchAuth(r, backend)
		if err != nil {
			return err
		}
		if id.Token != "" && rc.Client != nil {
			rc.Client = rc.Client.WithAuth(id.Token)
		}
		rc.UserID = id.UserID
		rc.Token = id.Token
		return nil
	}
}

// HeaderLoader fills in the display name of the signed-in user.
func HeaderLoader(ctx context.Context, rc *RouteContext) error {
	if rc.UserID == "" || rc.Client == nil || rc.Client.Token() == "" {
		return nil
	}
	me, err := rc.Client.Me(ctx)
	if err != nil {
		return err
	}
	rc.Username = me.Username
	return nil
}
