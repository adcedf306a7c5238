package middlewares

import (
	"net/http"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/rs/zerolog/hlog"
	"github.com/unrolled/render"
)

// RequireCapability sends anonymous users to the login page and answers
// 403 to users lacking the capability.
func RequireCapability(perms repositories.PermissionRepositoryImpl, rnd *render.Render, capability models.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := helpers.UserFromContext(r.Context())
			if user == nil {
				http.Redirect(w, r, LoginURL(r), http.StatusFound)
				return
			}

			ok, err := perms.Has(r.Context(), user, capability)
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Str("capability", string(capability)).Msg("permission lookup failed")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !ok {
				hlog.FromRequest(r).Info().Uint("user_id", user.ID).Str("capability", string(capability)).Msg("capability missing")
				Forbidden(rnd, w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func Forbidden(rnd *render.Render, w http.ResponseWriter, r *http.Request) {
	data := helpers.GetBaseData(r, "Forbidden")
	rnd.HTML(w, http.StatusForbidden, "errors/403", data)
}

func NotFound(rnd *render.Render, w http.ResponseWriter, r *http.Request) {
	data := helpers.GetBaseData(r, "Not Found")
	rnd.HTML(w, http.StatusNotFound, "errors/404", data)
}
