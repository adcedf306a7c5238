package handlers

import (
	"net/http"
	"strings"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/Rakhulsr/go-portal/app/utils/breadcrumb"
	"github.com/Rakhulsr/go-portal/app/utils/sessions"
	"github.com/rs/zerolog/hlog"
	"github.com/unrolled/render"
)

type AuthHandler struct {
	render       *render.Render
	accounts     *services.AccountService
	sessionStore sessions.SessionStore
}

func NewAuthHandler(r *render.Render, accounts *services.AccountService, sessionStore sessions.SessionStore) *AuthHandler {
	return &AuthHandler{
		render:       r,
		accounts:     accounts,
		sessionStore: sessionStore,
	}
}

func (h *AuthHandler) accountPage(r *http.Request, title, path string) *AccountPageData {
	data := &AccountPageData{
		BasePageData: helpers.GetBaseData(r, title, breadcrumb.Breadcrumb{Name: title, URL: path}),
		Values:       map[string]string{},
		Errors:       map[string]string{},
	}
	data.IsAuthPage = true
	return data
}

func (h *AuthHandler) LoginGetHandler(w http.ResponseWriter, r *http.Request) {
	if helpers.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := h.accountPage(r, "Login", "/login")
	data.Next = r.URL.Query().Get("next")
	h.render.HTML(w, http.StatusOK, "auth/login", data)
}

func (h *AuthHandler) LoginPostHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("LoginPostHandler: error parsing form")
		helpers.RedirectWithMessage(w, r, "/login", "error", "Could not read the submitted form.")
		return
	}

	data := h.accountPage(r, "Login", "/login")
	email := strings.TrimSpace(r.PostFormValue("email"))
	data.Values["email"] = email
	data.Next = r.PostFormValue("next")

	user, err := h.accounts.Authenticate(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		if fieldErrs, ok := formErrors(err); ok {
			data.Errors = fieldErrs
			h.render.HTML(w, http.StatusOK, "auth/login", data)
			return
		}
		renderServiceError(h.render, w, r, "LoginPostHandler", err)
		return
	}

	if err := h.sessionStore.SetUserID(w, r, user.ID); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("LoginPostHandler: failed to set session")
		helpers.RedirectWithMessage(w, r, "/login", "error", "Could not start a session.")
		return
	}
	hlog.FromRequest(r).Info().Uint("user_id", user.ID).Msg("user logged in")
	http.Redirect(w, r, helpers.SafeRedirectTarget(data.Next, "/"), http.StatusSeeOther)
}

func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionStore.ClearSession(w, r); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("LogoutHandler: failed to clear session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) CreateUserGetHandler(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, http.StatusOK, "auth/create_user", h.accountPage(r, "Create account", "/create_user"))
}

func (h *AuthHandler) CreateUserPostHandler(w http.ResponseWriter, r *http.Request) {
	data := h.accountPage(r, "Create account", "/create_user")
	if err := parseForm(r); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("CreateUserPostHandler: error parsing form")
		helpers.RedirectWithMessage(w, r, "/create_user", "error", "Could not read the submitted form.")
		return
	}

	in := services.RegisterInput{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
		Password2: r.PostFormValue("password2"),
	}
	data.Values["first_name"] = in.FirstName
	data.Values["last_name"] = in.LastName
	data.Values["email"] = in.Email

	up, err := formUpload(r, "profile_image")
	if err != nil {
		if err = uploadError(err, "profile_image", data.Errors); err != nil {
			renderServiceError(h.render, w, r, "CreateUserPostHandler", err)
			return
		}
	}
	if len(data.Errors) > 0 {
		h.render.HTML(w, http.StatusOK, "auth/create_user", data)
		return
	}
	in.ProfileImage = up

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		if fieldErrs, ok := formErrors(err); ok {
			data.Errors = fieldErrs
			h.render.HTML(w, http.StatusOK, "auth/create_user", data)
			return
		}
		renderServiceError(h.render, w, r, "CreateUserPostHandler", err)
		return
	}

	if err := h.sessionStore.SetUserID(w, r, user.ID); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("CreateUserPostHandler: failed to set session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) EditUserGetHandler(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r.Context())
	data := h.accountPage(r, "Edit profile", "/edit_user")
	data.Values["first_name"] = user.FirstName
	data.Values["last_name"] = user.LastName
	data.Values["email"] = user.Email
	h.render.HTML(w, http.StatusOK, "auth/edit_user", data)
}

func (h *AuthHandler) EditUserPostHandler(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r.Context())
	data := h.accountPage(r, "Edit profile", "/edit_user")
	if err := parseForm(r); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("EditUserPostHandler: error parsing form")
		helpers.RedirectWithMessage(w, r, "/edit_user", "error", "Could not read the submitted form.")
		return
	}

	in := services.ProfileInput{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
	}
	data.Values["first_name"] = in.FirstName
	data.Values["last_name"] = in.LastName
	data.Values["email"] = in.Email

	up, err := formUpload(r, "profile_image")
	if err != nil {
		if err = uploadError(err, "profile_image", data.Errors); err != nil {
			renderServiceError(h.render, w, r, "EditUserPostHandler", err)
			return
		}
	}
	if len(data.Errors) > 0 {
		h.render.HTML(w, http.StatusOK, "auth/edit_user", data)
		return
	}
	in.ProfileImage = up

	if _, err := h.accounts.UpdateProfile(r.Context(), user, in); err != nil {
		if fieldErrs, ok := formErrors(err); ok {
			data.Errors = fieldErrs
			h.render.HTML(w, http.StatusOK, "auth/edit_user", data)
			return
		}
		renderServiceError(h.render, w, r, "EditUserPostHandler", err)
		return
	}
	helpers.RedirectWithMessage(w, r, "/edit_user", "success", "Profile updated.")
}

func (h *AuthHandler) ResetPasswordGetHandler(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, http.StatusOK, "auth/reset_password", h.accountPage(r, "Reset password", "/reset_password"))
}

func (h *AuthHandler) ResetPasswordPostHandler(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r.Context())
	data := h.accountPage(r, "Reset password", "/reset_password")
	if err := r.ParseForm(); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("ResetPasswordPostHandler: error parsing form")
		helpers.RedirectWithMessage(w, r, "/reset_password", "error", "Could not read the submitted form.")
		return
	}

	in := services.PasswordInput{
		Password:  r.PostFormValue("password"),
		Password2: r.PostFormValue("password2"),
	}
	if err := h.accounts.ChangePassword(r.Context(), user, in); err != nil {
		if fieldErrs, ok := formErrors(err); ok {
			data.Errors = fieldErrs
			h.render.HTML(w, http.StatusOK, "auth/reset_password", data)
			return
		}
		renderServiceError(h.render, w, r, "ResetPasswordPostHandler", err)
		return
	}

	// the session only stores the id, so it stays valid
	data.Success = true
	h.render.HTML(w, http.StatusOK, "auth/reset_password", data)
}

func (h *AuthHandler) DeleteAccountGetHandler(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, http.StatusOK, "auth/delete_account", h.accountPage(r, "Delete account", "/delete_account"))
}

func (h *AuthHandler) DeleteAccountPostHandler(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r.Context())
	if err := h.accounts.DeleteAccount(r.Context(), user); err != nil {
		renderServiceError(h.render, w, r, "DeleteAccountPostHandler", err)
		return
	}
	if err := h.sessionStore.ClearSession(w, r); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("DeleteAccountPostHandler: failed to clear session")
	}
	hlog.FromRequest(r).Info().Uint("user_id", user.ID).Msg("account deleted")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) GenerateTokenGetHandler(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r.Context())
	data := h.accountPage(r, "API token", "/generate_token")
	if user.Token != nil {
		data.Token = *user.Token
	}
	h.render.HTML(w, http.StatusOK, "auth/generate_token", data)
}

func (h *AuthHandler) GenerateTokenPostHandler(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r.Context())
	token, err := h.accounts.GenerateToken(r.Context(), user)
	if err != nil {
		renderServiceError(h.render, w, r, "GenerateTokenPostHandler", err)
		return
	}
	data := h.accountPage(r, "API token", "/generate_token")
	data.Token = token
	data.Success = true
	h.render.HTML(w, http.StatusOK, "auth/generate_token", data)
}
