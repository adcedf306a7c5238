package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeRedirectTarget(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/todo/tasks", "/todo/tasks"},
		{"", "/"},
		{"https://evil.example", "/"},
		{"//evil.example", "/"},
		{"/\\evil.example", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeRedirectTarget(tt.next, "/"), tt.next)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 9, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)

	empty := NewPagination(5, 9, 0)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 1, empty.TotalPages)
	assert.False(t, empty.HasNext)

	assert.Equal(t, 18, PageOffset(3, 9))
	assert.Equal(t, 0, PageOffset(0, 9))
}

func TestPageFromRequest(t *testing.T) {
	assert.Equal(t, 1, PageFromRequest(httptest.NewRequest(http.MethodGet, "/?page=abc", nil)))
	assert.Equal(t, 4, PageFromRequest(httptest.NewRequest(http.MethodGet, "/?page=4", nil)))
}

func TestFormatValidationErrorsUsesFormNames(t *testing.T) {
	type form struct {
		FirstName string `form:"first_name" validate:"required"`
		Email     string `json:"email" validate:"required,email"`
	}
	err := NewValidator().Struct(form{Email: "nope"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	msgs := FormatValidationErrors(verrs)
	assert.Equal(t, "First Name is required.", msgs["first_name"])
	assert.Equal(t, "Email must be a valid email address.", msgs["email"])
}

func TestGetBaseDataReadsUserAndFlash(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/blog/topics?status=success&message=Saved", nil)
	r = r.WithContext(WithUser(r.Context(), &models.User{ID: 7, Email: "a@b.c"}))

	data := GetBaseData(r, "Topics")
	assert.True(t, data.IsLoggedIn)
	assert.Equal(t, uint(7), data.User.ID)
	assert.Equal(t, "Saved", data.Message)
	assert.Equal(t, "success", data.MessageStatus)
	assert.Equal(t, "/blog/topics", data.CurrentPath)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, PasswordCompare(hash, []byte("s3cret-pass")))
	assert.False(t, PasswordCompare(hash, []byte("wrong")))
}

func TestGenerateAPIToken(t *testing.T) {
	token := GenerateAPIToken()
	assert.Len(t, token, 32)
	assert.NotContains(t, token, "-")
	assert.NotEqual(t, token, GenerateAPIToken())
}

func TestParseOptionalUint(t *testing.T) {
	v, err := ParseOptionalUint("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseOptionalUint("12")
	require.NoError(t, err)
	assert.Equal(t, uint(12), *v)

	_, err = ParseOptionalUint("x")
	assert.Error(t, err)
}
