package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/audit"
	"github.com/retailpos/backoffice/internal/authz"
	"github.com/retailpos/backoffice/internal/hash"
	"github.com/retailpos/backoffice/internal/logging"
	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/repo"
	"github.com/retailpos/backoffice/internal/tokens"
)

type AuthService struct {
	Repo       *repo.GormRepo
	Audit      audit.Sink
	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Register self-registers a Customer account plus its customer profile.
// Staff accounts are created through the employee/role management paths.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_failed", "reason", "hash", "error", err)
		return nil, err
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleCustomer,
		IsActive:     true,
	}
	customer := models.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedBy: "System",
	}
	if err := s.Repo.CreateUserWithCustomer(ctx, &user, &customer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			l.Warn("register_failed", "status", 409, "reason", "email_taken")
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		l.Error("register_failed", "status", 500, "error", err)
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{ActorID: user.ID, Action: "auth.register"})
	l.Info("register_success", "user_id", user.ID)
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown_email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "bad_password")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		l.Warn("login_failed", "status", 403, "reason", "inactive")
		return nil, ErrAccountInactive
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{ActorID: user.ID, Action: "auth.login"})
	l.Info("login_success", "user_id", user.ID)
	return pair, nil
}

// issuePair signs a fresh access token and persists a new single-use
// refresh token sharing the access token's jti.
func (s *AuthService) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := time.Now().UTC()
	accessExp := now.Add(s.AccessTTL)
	refreshExp := now.Add(s.RefreshTTL)

	jti := tokens.NewJTI()
	accessToken, err := tokens.NewAccessToken(s.JWTSecret, user.ID, user.Email, user.Role, jti, accessExp)
	if err != nil {
		return nil, err
	}

	refreshValue, err := tokens.NewRefreshValue()
	if err != nil {
		return nil, err
	}

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: tokens.Sha256Hex(refreshValue),
		JTI:       jti,
		IssuedAt:  now,
		ExpiresAt: refreshExp,
	}
	if err := s.Repo.CreateRefreshToken(ctx, &record); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshValue,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a refresh token plus the (possibly expired) access
// token it was issued with for a brand-new pair. Each refresh token is
// usable at most once; a replay fails with ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshValue, accessToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	// Recover the caller's identity from the signed access token without
	// trusting its expiry.
	claims, err := tokens.AccessClaimsFromExpiredToken(accessToken, s.JWTSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "bad_access_token")
		return nil, ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "unknown_user")
			return nil, ErrInvalidUser
		}
		return nil, err
	}
	if !user.IsActive {
		l.Warn("refresh_failed", "status", 401, "reason", "inactive_user")
		return nil, ErrInvalidUser
	}

	stored, err := s.Repo.FindRefreshToken(ctx, tokens.Sha256Hex(refreshValue), user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "token_not_found")
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if stored.Used || stored.Revoked {
		l.Warn("refresh_failed", "status", 401, "reason", "token_reuse", "token_id", stored.ID)
		return nil, ErrInvalidToken
	}
	if time.Now().UTC().After(stored.ExpiresAt) {
		l.Warn("refresh_failed", "status", 401, "reason", "token_expired")
		return nil, ErrTokenExpired
	}

	now := time.Now().UTC()
	accessExp := now.Add(s.AccessTTL)
	refreshExp := now.Add(s.RefreshTTL)

	jti := tokens.NewJTI()
	newAccess, err := tokens.NewAccessToken(s.JWTSecret, user.ID, user.Email, user.Role, jti, accessExp)
	if err != nil {
		return nil, err
	}
	newRefresh, err := tokens.NewRefreshValue()
	if err != nil {
		return nil, err
	}

	next := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: tokens.Sha256Hex(newRefresh),
		JTI:       jti,
		IssuedAt:  now,
		ExpiresAt: refreshExp,
	}
	if err := s.Repo.RotateRefreshToken(ctx, stored.ID, &next); err != nil {
		if errors.Is(err, repo.ErrTokenConsumed) {
			// A concurrent exchange of the same token won the race.
			l.Warn("refresh_failed", "status", 401, "reason", "token_reuse", "token_id", stored.ID)
			return nil, ErrInvalidToken
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{ActorID: user.ID, Action: "auth.refresh"})
	l.Info("refresh_success", "user_id", user.ID)
	return &TokenPair{
		AccessToken:      newAccess,
		RefreshToken:     newRefresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Logout revokes every outstanding refresh token of the user. Logging out
// with no active tokens is a no-op.
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "user_id", userID)

	if err := s.Repo.RevokeAllForUser(ctx, userID); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return err
	}

	s.Audit.Record(ctx, audit.Entry{ActorID: userID, Action: "auth.logout"})
	l.Info("logout_success")
	return nil
}

// IsTokenRevoked reports whether the access token identified by jti has
// been invalidated through refresh rotation or logout.
func (s *AuthService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.Repo.IsJTIRevoked(ctx, jti)
}

func (s *AuthService) ChangePassword(ctx context.Context, caller *authz.CallerContext, oldPassword, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password", "user_id", caller.UserID)

	if newPassword == "" {
		return fmt.Errorf("%w: new password required", ErrValidation)
	}

	user, err := s.Repo.GetUserByID(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, oldPassword) {
		l.Warn("change_password_failed", "status", 401, "reason", "bad_password")
		return ErrInvalidCredentials
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdateUserPassword(ctx, user.ID, pwHash); err != nil {
		return err
	}

	// Changing the password invalidates every open session.
	if err := s.Repo.RevokeAllForUser(ctx, user.ID); err != nil {
		return err
	}

	s.Audit.Record(ctx, audit.Entry{ActorID: caller.UserID, Action: "auth.change_password"})
	return nil
}

// SetUserRole is the admin role-management path.
func (s *AuthService) SetUserRole(ctx context.Context, caller *authz.CallerContext, userID uint, role models.Role) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	// Only a SuperAdmin may grant SuperAdmin.
	if role == models.RoleSuperAdmin && caller.Role != models.RoleSuperAdmin {
		return ErrForbidden
	}

	if err := s.Repo.UpdateUserRole(ctx, userID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "user.set_role",
		Details: map[string]any{"user_id": userID, "role": role},
	})
	return nil
}

// SetUserActive deactivates (or reactivates) an account; deactivation also
// revokes all outstanding refresh tokens. Accounts are never hard-deleted.
func (s *AuthService) SetUserActive(ctx context.Context, caller *authz.CallerContext, userID uint, active bool) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}

	if err := s.Repo.SetUserActive(ctx, userID, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !active {
		if err := s.Repo.RevokeAllForUser(ctx, userID); err != nil {
			return err
		}
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "user.set_active",
		Details: map[string]any{"user_id": userID, "active": active},
	})
	return nil
}

// ResolveCaller turns validated access-token claims into the CallerContext
// handed to every operation, resolving store and customer scope once.
func (s *AuthService) ResolveCaller(ctx context.Context, claims *tokens.AccessClaims) (*authz.CallerContext, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	caller := &authz.CallerContext{
		UserID: userID,
		Email:  claims.Email,
		Role:   claims.Role,
	}

	switch caller.Role {
	case models.RoleStoreAdmin:
		store, err := s.Repo.GetStoreByAdminEmail(ctx, caller.Email)
		if err == nil {
			caller.StoreID = &store.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	case models.RoleEmployee, models.RoleStoreRep:
		emp, err := s.Repo.GetEmployeeByUserID(ctx, userID)
		if err == nil {
			caller.StoreID = emp.StoreID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	case models.RoleCustomer:
		cust, err := s.Repo.GetCustomerByUserID(ctx, userID)
		if err == nil {
			caller.CustomerID = &cust.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return caller, nil
}
