package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/internal/permissions"
	apperrors "github.com/lvaldez/padron/pkg/errors"
	"github.com/lvaldez/padron/pkg/metrics"
)

// ErrAccountLocked indicates too many failed login attempts.
var ErrAccountLocked = apperrors.New("ACCOUNT_LOCKED",
	"Account temporarily locked after repeated failures", http.StatusForbidden)

// CreateUserInput describes the fields accepted when creating a user.
type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	Roles    []string
}

// LockoutPolicy controls the failed-login lockout behaviour.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// UserService manages dashboard accounts, credentials and role assignments.
type UserService struct {
	db       *gorm.DB
	resolver *permissions.Resolver
	audit    *AuditService
	lockout  LockoutPolicy
	now      func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, resolver *permissions.Resolver, audit *AuditService, lockout LockoutPolicy) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if lockout.Threshold <= 0 {
		lockout.Threshold = 5
	}
	if lockout.Duration <= 0 {
		lockout.Duration = 15 * time.Minute
	}
	return &UserService{
		db:       db,
		resolver: resolver,
		audit:    audit,
		lockout:  lockout,
		now:      time.Now,
	}, nil
}

// Create provisions a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, actor Actor, input CreateUserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidation("a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := models.User{
		Email:    email,
		Password: string(hash),
		FullName: strings.TrimSpace(input.FullName),
		IsActive: true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if len(input.Roles) > 0 {
			roles, err := loadRoles(tx, input.Roles)
			if err != nil {
				return err
			}
			return tx.Model(&user).Association("Roles").Replace(roles)
		}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewValidation("a user with this email already exists")
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("user service: create: %w", err)
	}

	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "user.create", "user", user.ID,
			map[string]any{"email": user.Email, "roles": input.Roles})
	}
	return &user, nil
}

// Authenticate verifies credentials and applies the lockout policy.
func (s *UserService) Authenticate(ctx context.Context, email, password, ip string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Roles").
		First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	now := s.now()
	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		metrics.AuthAttempts.WithLabelValues("locked").Inc()
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		updates := map[string]any{"failed_attempts": user.FailedAttempts + 1}
		if user.FailedAttempts+1 >= s.lockout.Threshold {
			lockedUntil := now.Add(s.lockout.Duration)
			updates["locked_until"] = lockedUntil
			updates["failed_attempts"] = 0
		}
		if dbErr := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; dbErr != nil {
			return nil, fmt.Errorf("user service: record failure: %w", dbErr)
		}
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
		"last_login_ip":   ip,
	}).Error; err != nil {
		return nil, fmt.Errorf("user service: record login: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// Get loads one user with roles.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Roles").
		First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("user not found")
		}
		return nil, fmt.Errorf("user service: get: %w", err)
	}
	return &user, nil
}

// List returns every user with their roles.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).
		Preload("Roles").
		Order("email").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list: %w", err)
	}
	return users, nil
}

// AssignRoles replaces a user's role set and drops their cached permissions.
func (s *UserService) AssignRoles(ctx context.Context, actor Actor, userID string, roleIDs []string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	roles, err := loadRoles(s.db.WithContext(ctx), roleIDs)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles); err != nil {
		return fmt.Errorf("user service: assign roles: %w", err)
	}

	if s.resolver != nil {
		s.resolver.Invalidate(userID)
	}
	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "user.assign_roles", "user", userID,
			map[string]any{"roles": roleIDs})
	}
	return nil
}

// SetActive toggles a user's active flag and revokes cached permissions when
// deactivating.
func (s *UserService) SetActive(ctx context.Context, actor Actor, userID string, active bool) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("user service: set active: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("user not found")
	}

	if !active && s.resolver != nil {
		s.resolver.Invalidate(userID)
	}
	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "user.set_active", "user", userID,
			map[string]any{"active": active})
	}
	return nil
}

// SetResourcePermission grants or revokes a role's access to a resource
// path. The whole permission cache is dropped because any user holding the
// role is affected.
func (s *UserService) SetResourcePermission(ctx context.Context, actor Actor, roleID, resourcePath string, canAccess bool) error {
	if !strings.HasPrefix(resourcePath, "/") {
		return apperrors.NewValidation("resource_path must start with /")
	}

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithMessage("role not found")
		}
		return fmt.Errorf("user service: load role: %w", err)
	}

	grant := models.ResourcePermission{
		RoleID:       roleID,
		ResourcePath: resourcePath,
		CanAccess:    canAccess,
	}
	err := s.db.WithContext(ctx).
		Where(models.ResourcePermission{RoleID: roleID, ResourcePath: resourcePath}).
		Assign(map[string]any{"can_access": canAccess}).
		FirstOrCreate(&grant).Error
	if err != nil {
		return fmt.Errorf("user service: set resource permission: %w", err)
	}

	if s.resolver != nil {
		s.resolver.InvalidateAll()
	}
	if s.audit != nil {
		s.audit.Record(ctx, actor.ID, "role.set_resource", "role", roleID,
			map[string]any{"resource_path": resourcePath, "can_access": canAccess})
	}
	return nil
}

// ListResourcePermissions returns a role's resource grants.
func (s *UserService) ListResourcePermissions(ctx context.Context, roleID string) ([]models.ResourcePermission, error) {
	var grants []models.ResourcePermission
	if err := s.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Order("resource_path").
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("user service: list resource permissions: %w", err)
	}
	return grants, nil
}

func loadRoles(tx *gorm.DB, roleIDs []string) ([]models.Role, error) {
	var roles []models.Role
	if err := tx.Find(&roles, "id IN ?", roleIDs).Error; err != nil {
		return nil, err
	}
	if len(roles) != len(roleIDs) {
		return nil, apperrors.NewValidation("one or more roles do not exist")
	}
	return roles, nil
}
