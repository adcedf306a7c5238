package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

type RegisterInput struct {
	FirstName    string  `form:"first_name" validate:"max=30"`
	LastName     string  `form:"last_name" validate:"max=50"`
	Email        string  `form:"email" validate:"required,email,max=254"`
	Password     string  `form:"password" validate:"required,min=8"`
	Password2    string  `form:"password2" validate:"required,eqfield=Password"`
	ProfileImage *Upload `form:"-"`
}

type ProfileInput struct {
	FirstName    string  `form:"first_name" validate:"max=30"`
	LastName     string  `form:"last_name" validate:"max=50"`
	Email        string  `form:"email" validate:"required,email,max=254"`
	ProfileImage *Upload `form:"-"`
}

type PasswordInput struct {
	Password  string `form:"password" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password"`
}

type AccountService struct {
	users    repositories.UserRepositoryImpl
	perms    repositories.PermissionRepositoryImpl
	media    *MediaStore
	validate *validator.Validate
}

func NewAccountService(users repositories.UserRepositoryImpl, perms repositories.PermissionRepositoryImpl, media *MediaStore, validate *validator.Validate) *AccountService {
	return &AccountService{users: users, perms: perms, media: media, validate: validate}
}

func (s *AccountService) checkEmail(ctx context.Context, email string, exceptID uint) error {
	taken, err := s.users.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return invalid("email", "unique", "User with this Email already exists.")
	}
	return nil
}

func (s *AccountService) checkImage(up *Upload) error {
	if up == nil {
		return nil
	}
	if msg := s.media.ValidateImage(up); msg != "" {
		return invalid("profile_image", "invalid_image", msg)
	}
	return nil
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if err := s.checkImage(in.ProfileImage); err != nil {
		return nil, err
	}
	if err := s.checkEmail(ctx, in.Email, 0); err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     in.Email,
		Password:  in.Password,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("email", "unique", "User with this Email already exists.")
		}
		return nil, err
	}
	if in.ProfileImage != nil {
		if err := s.storeProfileImage(ctx, user, in.ProfileImage); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Authenticate reports which of the two fields was wrong.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, invalid("email", "invalid", "User not found.")
		}
		return nil, err
	}
	if !helpers.PasswordCompare(user.Password, []byte(password)) {
		return nil, invalid("password", "invalid", "Password does not match.")
	}
	return user, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if err := s.checkImage(in.ProfileImage); err != nil {
		return nil, err
	}
	if err := s.checkEmail(ctx, in.Email, user.ID); err != nil {
		return nil, err
	}
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Email = in.Email
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if in.ProfileImage != nil {
		if err := s.storeProfileImage(ctx, user, in.ProfileImage); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *AccountService) storeProfileImage(ctx context.Context, user *models.User, up *Upload) error {
	rel, err := s.media.Save(MediaAreaAuthentication, "profile", user.ID, up)
	if err != nil {
		return err
	}
	if user.ProfileImage != "" && user.ProfileImage != rel {
		if err := s.media.Remove(user.ProfileImage); err != nil {
			log.Warn().Err(err).Str("file", user.ProfileImage).Msg("failed to remove replaced profile image")
		}
	}
	user.ProfileImage = rel
	return s.users.Update(ctx, user)
}

func (s *AccountService) ChangePassword(ctx context.Context, user *models.User, in PasswordInput) error {
	if err := validateStruct(s.validate, in); err != nil {
		return err
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	user.Password = hash
	return nil
}

// DeleteAccount removes the user. Posts keep existing without an author;
// comments, tasks ownership and permissions follow the schema rules.
func (s *AccountService) DeleteAccount(ctx context.Context, user *models.User) error {
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	if err := s.media.Remove(user.ProfileImage); err != nil {
		log.Warn().Err(err).Str("file", user.ProfileImage).Msg("failed to remove profile image")
	}
	return nil
}

// GenerateToken replaces the user's API token.
func (s *AccountService) GenerateToken(ctx context.Context, user *models.User) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		token := helpers.GenerateAPIToken()
		err := s.users.SetToken(ctx, user.ID, token)
		if err == nil {
			user.Token = &token
			return token, nil
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("generate token: %w", lastErr)
}

func (s *AccountService) UserByToken(ctx context.Context, token string) (*models.User, error) {
	return s.users.FindByToken(ctx, token)
}

func (s *AccountService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// CreateSuperuser creates a staff user holding every capability.
func (s *AccountService) CreateSuperuser(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	password := in.Password
	if err := validateStruct(s.validate, PasswordInput{Password: password, Password2: password}); err != nil {
		return nil, err
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, invalid("email", "email", "Email must be a valid email address.")
	}
	if err := s.checkEmail(ctx, email, 0); err != nil {
		return nil, err
	}
	user := &models.User{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       email,
		Password:    password,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) Grant(ctx context.Context, email string, capability models.Capability) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.perms.Grant(ctx, user.ID, capability)
}

func (s *AccountService) Revoke(ctx context.Context, email string, capability models.Capability) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.perms.Revoke(ctx, user.ID, capability)
}

func (s *AccountService) Capabilities(ctx context.Context, user *models.User) ([]models.Capability, error) {
	if user.IsSuperuser {
		return models.AllCapabilities, nil
	}
	return s.perms.ListForUser(ctx, user.ID)
}
