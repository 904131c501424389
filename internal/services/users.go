package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"codenook/internal/models"
	"codenook/internal/utils"

	"gorm.io/gorm"
)

const minPasswordLength = 6

// GoogleProfile is the subset of the Google userinfo response used to sign in.
type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	Picture       string `json:"picture"`
}

type UserService struct {
	db      *gorm.DB
	isAdmin func(email string) bool
}

// NewUserService builds the account service. isAdmin decides which email
// addresses are promoted to the admin role when they sign up or sign in.
func NewUserService(db *gorm.DB, isAdmin func(email string) bool) *UserService {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &UserService{db: db, isAdmin: isAdmin}
}

// Register creates an email/password account.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || utils.NameFromEmail(email) == "" {
		return nil, validationf("a valid email address is required")
	}
	if len(password) < minPasswordLength {
		return nil, validationf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Name:     utils.NameFromEmail(email),
		Email:    email,
		Password: hash,
		Role:     s.roleFor(email),
	}
	err = s.db.WithContext(ctx).Create(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflictf("this email is already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate checks email/password credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if err := s.promote(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignInWithGoogle finds the account linked to a Google profile, linking an
// existing account with the same email or creating a new one when needed.
func (s *UserService) SignInWithGoogle(ctx context.Context, p GoogleProfile) (*models.User, error) {
	if p.ID == "" || p.Email == "" {
		return nil, validationf("incomplete Google profile")
	}
	if !p.VerifiedEmail {
		return nil, validationf("the Google email address is not verified")
	}
	email := normalizeEmail(p.Email)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("google_id = ?", p.ID).Or("email = ?", email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = p.GivenName
		}
		if name == "" {
			name = utils.NameFromEmail(email)
		}
		user = models.User{
			Name:     name,
			Email:    email,
			Image:    p.Picture,
			GoogleID: p.ID,
			Role:     s.roleFor(email),
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create google user: %w", err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch google user: %w", err)
	}

	updates := map[string]any{}
	if user.GoogleID == "" {
		user.GoogleID = p.ID
		updates["google_id"] = p.ID
	}
	if user.Image == "" && p.Picture != "" {
		user.Image = p.Picture
		updates["image"] = p.Picture
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("link google account: %w", err)
		}
	}
	if err := s.promote(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("user %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return &user, nil
}

func (s *UserService) roleFor(email string) string {
	if s.isAdmin(email) {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// promote grants the admin role to configured addresses that do not have it yet.
func (s *UserService) promote(ctx context.Context, user *models.User) error {
	if user.IsAdmin() || !s.isAdmin(user.Email) {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		return fmt.Errorf("promote user %s: %w", user.ID, err)
	}
	user.Role = models.RoleAdmin
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
