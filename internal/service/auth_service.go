package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"taskboard/internal/auth"
	"taskboard/internal/cache"
	apperrors "taskboard/internal/errors"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
)

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = apperrors.Unauthorized("invalid email or password")
	// ErrFederatedOnly is returned on password login to an account without a password.
	ErrFederatedOnly = apperrors.Unauthorized("please sign in with your external identity provider")
	// ErrUserAlreadyExists is returned when trying to register an existing email.
	ErrUserAlreadyExists = apperrors.Conflict("User already exists with this email")
	// ErrUserNotFound is returned when the caller's account is gone.
	ErrUserNotFound = apperrors.NotFound("user not found")
)

// AuthResult is a signed session token and the identity it was issued to.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	FederatedLogin(ctx context.Context, identity model.FederatedIdentity) (*AuthResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.User, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	VerifyPassword(user *model.User, candidate string) bool
}

type authService struct {
	userRepo   repository.UserRepository
	hasher     auth.PasswordHasher
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	userCache  *cache.Client
	validate   *validator.Validate
	now        func() time.Time
}

// NewAuthService creates a new authentication service. userCache may be nil.
func NewAuthService(
	userRepo repository.UserRepository,
	hasher auth.PasswordHasher,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	userCache *cache.Client,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
		tokenStore: tokenStore,
		userCache:  userCache,
		validate:   NewValidator(),
		now:        time.Now,
	}
}

type registration struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email_address"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type profileFields struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
	Picture  string `json:"picture" validate:"omitempty,url"`
}

// Register creates a new account with a hashed password and signs the caller in.
func (s *authService) Register(ctx context.Context, email, username, password string) (*AuthResult, error) {
	in := registration{
		Username: strings.TrimSpace(username),
		Email:    normalizeEmail(email),
		Password: password,
	}
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(fmt.Errorf("check user existence: %w", err))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, apperrors.Internal(fmt.Errorf("create user: %w", err))
	}

	return s.issue(user)
}

// Login authenticates a user by email and password.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperrors.Internal(fmt.Errorf("find user: %w", err))
	}

	if !user.HasPassword() {
		return nil, ErrFederatedOnly
	}
	if !s.VerifyPassword(user, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// FederatedLogin finds or creates the account for an external identity:
// by external id first, then by email (linking the identity to an existing
// local account), and otherwise creates a password-less account.
func (s *authService) FederatedLogin(ctx context.Context, identity model.FederatedIdentity) (*AuthResult, error) {
	identity.ExternalID = strings.TrimSpace(identity.ExternalID)
	identity.Email = normalizeEmail(identity.Email)
	if identity.ExternalID == "" || identity.Email == "" {
		return nil, apperrors.Validation("externalId and email are required")
	}

	user, err := s.findOrCreateFederated(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) findOrCreateFederated(ctx context.Context, identity model.FederatedIdentity) (*model.User, error) {
	user, err := s.userRepo.FindByExternalID(ctx, identity.ExternalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(fmt.Errorf("find user by external id: %w", err))
	}

	user, err = s.userRepo.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		externalID := identity.ExternalID
		user.ExternalID = &externalID
		if identity.Name != "" {
			user.Name = identity.Name
		}
		if identity.Picture != "" {
			user.Picture = identity.Picture
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("link external identity: %w", err))
		}
		s.userCache.Delete(ctx, auth.UserCacheKey(user.ID))
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Internal(fmt.Errorf("find user by email: %w", err))
	}

	externalID := identity.ExternalID
	user = &model.User{
		Username:   UsernameFromEmail(identity.Email),
		Email:      identity.Email,
		ExternalID: &externalID,
		Name:       identity.Name,
		Picture:    identity.Picture,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Internal(fmt.Errorf("create federated user: %w", err))
		}
		// lost a race with a concurrent sign-in for the same identity
		existing, findErr := s.userRepo.FindByExternalID(ctx, identity.ExternalID)
		if findErr != nil {
			return nil, apperrors.Internal(fmt.Errorf("create federated user: %w", err))
		}
		return existing, nil
	}
	return user, nil
}

// Me returns the caller's account.
func (s *authService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicUser(user), nil
}

func (s *authService) load(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("find user: %w", err))
	}
	return user, nil
}

// UpdateProfile applies a partial profile change. The password is hashed
// only when a new one is supplied.
func (s *authService) UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		user.Username = strings.TrimSpace(*update.Username)
	}
	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Picture != nil {
		user.Picture = strings.TrimSpace(*update.Picture)
	}

	fields := profileFields{Username: user.Username, Picture: user.Picture}
	if update.Password != nil {
		fields.Password = *update.Password
		if fields.Password == "" {
			return nil, apperrors.Validation("password is required")
		}
	}
	if err := ValidateStruct(s.validate, fields); err != nil {
		return nil, err
	}

	if update.Password != nil {
		hash, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("hash password: %w", err))
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("update user: %w", err))
	}
	s.userCache.Delete(ctx, auth.UserCacheKey(user.ID))
	return publicUser(user), nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperrors.Unauthorized("invalid token")
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if err := s.tokenStore.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperrors.Internal(fmt.Errorf("revoke token: %w", err))
	}
	return nil
}

// VerifyPassword reports whether candidate matches the user's password.
// Accounts without a password never match.
func (s *authService) VerifyPassword(user *model.User, candidate string) bool {
	if user == nil || !user.HasPassword() {
		return false
	}
	return s.hasher.Verify(user.PasswordHash, candidate)
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	token, _, err := s.jwtService.IssueToken(user.ID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("issue token: %w", err))
	}
	return &AuthResult{Token: token, User: publicUser(user)}, nil
}

// publicUser returns a copy of user without the password hash.
func publicUser(user *model.User) *model.User {
	out := *user
	out.PasswordHash = ""
	return &out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameFromEmail derives a username from the local part of email, padded
// with underscores or truncated to fit the username length rules.
func UsernameFromEmail(email string) string {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	runes := []rune(local)
	if len(runes) > maxUsernameLength {
		runes = runes[:maxUsernameLength]
	}
	for len(runes) < minUsernameLength {
		runes = append(runes, '_')
	}
	return string(runes)
}
