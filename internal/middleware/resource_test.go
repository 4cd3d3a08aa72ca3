package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/database/testutil"
	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/internal/permissions"
)

func setupResourceRouter(t *testing.T, db *gorm.DB, userID, resource string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver, err := permissions.NewResolver(db)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/probe", func(c *gin.Context) {
		if userID != "" {
			c.Set(CtxUserIDKey, userID)
		}
		c.Next()
	}, RequireResource(resolver, resource), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func grantRole(t *testing.T, db *gorm.DB, email, roleID string) *models.User {
	t.Helper()

	user := &models.User{Email: email, Password: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	var role models.Role
	require.NoError(t, db.First(&role, "id = ?", roleID).Error)
	require.NoError(t, db.Model(user).Association("Roles").Append(&role))
	return user
}

func TestRequireResourceAllowsGrantedPath(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	user := grantRole(t, db, "finanzas@asociacion.pe", models.RoleFinanzas)

	r := setupResourceRouter(t, db, user.ID, "/income")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireResourceDeniesUngrantedPath(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	user := grantRole(t, db, "finanzas@asociacion.pe", models.RoleFinanzas)

	r := setupResourceRouter(t, db, user.ID, "/settings")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "access denied for resource /settings")
}

func TestRequireResourceDeniesRolelessUserEvenOnRoot(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	user := &models.User{Email: "nadie@asociacion.pe", Password: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	r := setupResourceRouter(t, db, user.ID, "/")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireResourceRejectsMissingIdentity(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	r := setupResourceRouter(t, db, "", "/people")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	user := grantRole(t, db, "ingeniero@asociacion.pe", models.RoleEngineer)

	resolver, err := permissions.NewResolver(db)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin-only", func(c *gin.Context) {
		c.Set(CtxUserIDKey, user.ID)
	}, RequireRole(resolver, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/either", func(c *gin.Context) {
		c.Set(CtxUserIDKey, user.ID)
	}, RequireRole(resolver, models.RoleAdmin, models.RoleEngineer), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin-only", nil))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/either", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
