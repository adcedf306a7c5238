package helpers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/models/other"
	"github.com/Rakhulsr/go-portal/app/utils/breadcrumb"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const (
	ContextKeyUserID contextKey = "userID"
	ContextKeyUser   contextKey = "userObject"
)

const defaultTitle = "Portal"

// UserFromContext returns the authenticated user stored by the session or
// token middleware, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(ContextKeyUser).(*models.User)
	return user
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUser, user)
	return context.WithValue(ctx, ContextKeyUserID, user.ID)
}

func GetBaseData(r *http.Request, title string, crumbs ...breadcrumb.Breadcrumb) other.BasePageData {
	if title == "" {
		title = defaultTitle
	}
	query := r.URL.Query()
	data := other.BasePageData{
		Title:         title,
		CSRFField:     csrf.TemplateField(r),
		CSRFToken:     csrf.Token(r),
		Message:       query.Get("message"),
		MessageStatus: query.Get("status"),
		Query:         query,
		CurrentPath:   r.URL.Path,
	}
	if len(crumbs) > 0 {
		data.Breadcrumbs = breadcrumb.Trail(crumbs...)
	}

	if user := UserFromContext(r.Context()); user != nil {
		data.IsLoggedIn = true
		data.User = &other.UserForTemplate{
			ID:           user.ID,
			FirstName:    user.FirstName,
			LastName:     user.LastName,
			Email:        user.Email,
			ProfileImage: user.ProfileImage,
			IsSuperuser:  user.IsSuperuser,
		}
	}
	return data
}

// NewValidator reports field names using the json tag, then the form tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMessages := make(map[string]string)
	for _, err := range errs {
		field := err.Field()
		label := capitalizeFirstLetter(field)
		switch err.Tag() {
		case "required":
			errorMessages[field] = fmt.Sprintf("%s is required.", label)
		case "email":
			errorMessages[field] = fmt.Sprintf("%s must be a valid email address.", label)
		case "numeric":
			errorMessages[field] = fmt.Sprintf("%s must be a number.", label)
		case "min":
			errorMessages[field] = fmt.Sprintf("%s must be at least %s characters.", label, err.Param())
		case "max":
			errorMessages[field] = fmt.Sprintf("%s must be at most %s characters.", label, err.Param())
		case "eqfield":
			errorMessages[field] = "The two password fields didn't match."
		default:
			errorMessages[field] = fmt.Sprintf("%s failed %s validation.", label, err.Tag())
		}
	}
	return errorMessages
}

func capitalizeFirstLetter(s string) string {
	if len(s) == 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "_", " ")
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}

func PasswordCompare(hashPass string, password []byte) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashPass), password)
	if err != nil {
		log.Debug().Err(err).Msg("password does not match")
		return false
	}
	return true
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

// GenerateAPIToken returns a 32 character hex token.
func GenerateAPIToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SafeRedirectTarget only accepts local absolute paths.
func SafeRedirectTarget(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// RedirectWithMessage redirects with the status/message pair that
// GetBaseData reads back into the page.
func RedirectWithMessage(w http.ResponseWriter, r *http.Request, path, status, message string) {
	q := url.Values{}
	q.Set("status", status)
	q.Set("message", message)
	http.Redirect(w, r, path+"?"+q.Encode(), http.StatusSeeOther)
}

// IsPartialRequest reports whether the request came from htmx and wants
// a fragment instead of a full page.
func IsPartialRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func ParseIDParam(r *http.Request) (uint, error) {
	return ParseUint(mux.Vars(r)["id"])
}

func ParseUint(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

// ParseOptionalUint treats an empty value as absent.
func ParseOptionalUint(raw string) (*uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := ParseUint(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
