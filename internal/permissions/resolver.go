package permissions

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/pkg/logger"
)

// Baseline paths granted to any principal that holds at least one explicit
// resource grant. Whether this is intentional product behaviour or a
// workaround for a missing baseline role is undecided; keep the rule in
// applyBaselineGrants so it can be revisited in one place.
const (
	PathRoot      = "/"
	PathInvoicing = "/invoicing"
)

// PermissionSet holds the resolved roles and accessible resource paths for a
// principal. A nil set means "unresolved" and always denies.
type PermissionSet struct {
	roles map[string]struct{}
	paths map[string]struct{}
}

// NewSet builds a PermissionSet from explicit roles and paths. Intended for
// wiring fakes in tests and for the resolver itself.
func NewSet(roles []string, paths []string) *PermissionSet {
	set := &PermissionSet{
		roles: make(map[string]struct{}, len(roles)),
		paths: make(map[string]struct{}, len(paths)),
	}
	for _, role := range roles {
		if role = strings.TrimSpace(role); role != "" {
			set.roles[role] = struct{}{}
		}
	}
	for _, path := range paths {
		if path = strings.TrimSpace(path); path != "" {
			set.paths[path] = struct{}{}
		}
	}
	return set
}

// Has reports whether the set grants access to the resource path. A nil set
// denies every path.
func (s *PermissionSet) Has(path string) bool {
	if s == nil {
		return false
	}
	_, ok := s.paths[path]
	return ok
}

// HasRole reports whether the principal holds the named role.
func (s *PermissionSet) HasRole(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.roles[name]
	return ok
}

// Roles returns the sorted role names held by the principal.
func (s *PermissionSet) Roles() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.roles))
	for role := range s.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// Paths returns the sorted accessible resource paths.
func (s *PermissionSet) Paths() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.paths))
	for path := range s.paths {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// IsAuthorized is the single authorization predicate: nil or empty sets deny.
func IsAuthorized(set *PermissionSet, resourcePath string) bool {
	return set.Has(resourcePath)
}

// Resolver maps an authenticated principal to its roles and accessible
// resource paths, caching the snapshot until the identity changes.
type Resolver struct {
	db *gorm.DB

	mu    sync.RWMutex
	cache map[string]*PermissionSet
}

// NewResolver constructs a permission resolver backed by the provided database.
func NewResolver(db *gorm.DB) (*Resolver, error) {
	if db == nil {
		return nil, errors.New("permission resolver: db is required")
	}
	return &Resolver{
		db:    db,
		cache: make(map[string]*PermissionSet),
	}, nil
}

// Resolve returns the permission snapshot for the principal. An empty id
// yields nil (anonymous, fully restricted). A principal with no role
// assignments yields an empty set, not an error. Any storage failure during
// resolution degrades to an empty set: authorization fails closed and the
// error is logged rather than propagated to the router.
func (r *Resolver) Resolve(ctx context.Context, userID string) *PermissionSet {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil
	}

	r.mu.RLock()
	cached, ok := r.cache[userID]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	set, err := r.load(ctx, userID)
	if err != nil {
		logger.WithModule("permissions").Error("permission resolution failed; denying all",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		// Not cached: a later request may succeed once the store recovers.
		return NewSet(nil, nil)
	}

	r.mu.Lock()
	r.cache[userID] = set
	r.mu.Unlock()
	return set
}

// Invalidate drops the cached snapshot for a principal. Called on sign-out
// and on sign-in of a different principal; token refreshes for the same
// principal must not call this.
func (r *Resolver) Invalidate(userID string) {
	r.mu.Lock()
	delete(r.cache, userID)
	r.mu.Unlock()
}

// InvalidateAll clears every cached snapshot (role or grant administration).
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[string]*PermissionSet)
	r.mu.Unlock()
}

func (r *Resolver) load(ctx context.Context, userID string) (*PermissionSet, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Roles").
		First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	if len(user.Roles) == 0 {
		return NewSet(nil, nil), nil
	}

	roleIDs := make([]string, 0, len(user.Roles))
	roleNames := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roleIDs = append(roleIDs, role.ID)
		roleNames = append(roleNames, role.Name)
	}

	var grants []models.ResourcePermission
	if err := r.db.WithContext(ctx).
		Where("role_id IN ? AND can_access = ?", roleIDs, true).
		Find(&grants).Error; err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(grants))
	for _, grant := range grants {
		paths = append(paths, grant.ResourcePath)
	}

	set := NewSet(roleNames, paths)
	applyBaselineGrants(set)
	return set, nil
}

// applyBaselineGrants adds the dashboard root and the invoicing area to any
// non-empty permission set.
func applyBaselineGrants(set *PermissionSet) {
	if set == nil || len(set.paths) == 0 {
		return
	}
	set.paths[PathRoot] = struct{}{}
	set.paths[PathInvoicing] = struct{}{}
}
