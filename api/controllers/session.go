package controllers

import (
	"net/http"

	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/api/validators"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// SessionLoad binds the caller's cart and wishlist and returns both. With
// force=true an already live session refetches.
func SessionLoad(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sessions == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "session registry unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotAuthenticated, "sign in to continue"))
			return
		}

		force, err := validators.ParseQueryBool(r, "force", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sess, err := sessions.Get(userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := sess.SignIn(ctx, userID, force); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSessionView(sess))
	}
}

// SessionEnd signs the caller out and drops their session.
func SessionEnd(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sessions == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "session registry unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotAuthenticated, "sign in to continue"))
			return
		}

		removed := sessions.Remove(userID)
		responses.WriteSuccess(w, map[string]bool{"signed_out": removed})
	}
}

// ErrorsClear dismisses the last failure recorded on both lists.
func ErrorsClear(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := callerSession(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sess.ClearErrors()
		responses.WriteSuccess(w, newSessionView(sess))
	}
}
