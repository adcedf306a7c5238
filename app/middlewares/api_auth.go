package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/rs/zerolog/hlog"
	"github.com/unrolled/render"
)

type apiMessage struct {
	Message string `json:"message"`
}

// APITokenAuth authenticates "Authorization: Bearer <token>" against the
// user token column.
func APITokenAuth(users repositories.UserRepositoryImpl, rnd *render.Render) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				unauthorized(rnd, w)
				return
			}

			user, err := users.FindByToken(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				if !errors.Is(err, repositories.ErrNotFound) {
					hlog.FromRequest(r).Error().Err(err).Msg("token lookup failed")
				}
				unauthorized(rnd, w)
				return
			}

			next.ServeHTTP(w, r.WithContext(helpers.WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(rnd *render.Render, w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	rnd.JSON(w, http.StatusUnauthorized, apiMessage{Message: "Bad credentials"})
}
