package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lvaldez/padron/internal/app"
	iauth "github.com/lvaldez/padron/internal/auth"
	"github.com/lvaldez/padron/internal/database/testutil"
	"github.com/lvaldez/padron/internal/models"
	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/internal/realtime"
	"github.com/lvaldez/padron/internal/services"
	"github.com/lvaldez/padron/internal/storage"
)

type routerFixture struct {
	db     *gorm.DB
	router *gin.Engine
	users  *services.UserService
	store  *storage.MemoryStore
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	resolver, err := permissions.NewResolver(db)
	require.NoError(t, err)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	hub := realtime.NewHub()

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "router-test-secret",
		Issuer:         "padron-test",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, jwt, iauth.SessionConfig{})
	require.NoError(t, err)

	users, err := services.NewUserService(db, resolver, audit, services.LockoutPolicy{})
	require.NoError(t, err)
	socios, err := services.NewSocioService(db, audit)
	require.NoError(t, err)
	documents, err := services.NewDocumentService(db, store, hub, audit)
	require.NoError(t, err)
	requests, err := services.NewDeletionRequestService(db, store, hub, audit)
	require.NoError(t, err)
	finance, err := services.NewFinanceService(db, audit)
	require.NoError(t, err)
	jornadas, err := services.NewJornadaService(db)
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Health.Enabled = true
	cfg.Monitoring.Prometheus.Enabled = false

	router, err := NewRouter(Dependencies{
		DB:       db,
		Config:   cfg,
		JWT:      jwt,
		Sessions: sessions,
		Resolver: resolver,
		Hub:      hub,

		Users:            users,
		Socios:           socios,
		Documents:        documents,
		DeletionRequests: requests,
		Finance:          finance,
		Jornadas:         jornadas,
	})
	require.NoError(t, err)

	return &routerFixture{db: db, router: router, users: users, store: store}
}

func (f *routerFixture) createUser(t *testing.T, email string, roles ...string) {
	t.Helper()
	_, err := f.users.Create(context.Background(), services.Actor{ID: "bootstrap"}, services.CreateUserInput{
		Email:    email,
		Password: "correct horse",
		FullName: "Test User",
		Roles:    roles,
	})
	require.NoError(t, err)
}

func (f *routerFixture) login(t *testing.T, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"correct horse"}`, email)
	rec := f.do(t, http.MethodPost, "/api/auth/login", "", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data struct {
			Tokens struct {
				AccessToken string `json:"access_token"`
			} `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Tokens.AccessToken)
	return envelope.Data.Tokens.AccessToken
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body *strings.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) doJSON(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, method, path, token, strings.NewReader(body), "application/json")
}

func TestRouterRejectsAnonymousRequests(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.doJSON(t, http.MethodGet, "/api/socios", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterHealthIsPublic(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.doJSON(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterEnforcesResourceGrants(t *testing.T) {
	f := newRouterFixture(t)
	f.createUser(t, "finanzas@asociacion.pe", models.RoleFinanzas)
	token := f.login(t, "finanzas@asociacion.pe")

	// finanzas can reach the accounts area
	rec := f.doJSON(t, http.MethodGet, "/api/cuentas", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// but not the socio registry
	rec = f.doJSON(t, http.MethodGet, "/api/socios", token, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "access denied for resource /people")
}

func TestRouterSocioLifecycle(t *testing.T) {
	f := newRouterFixture(t)
	f.createUser(t, "admin@asociacion.pe", models.RoleAdmin)
	token := f.login(t, "admin@asociacion.pe")

	rec := f.doJSON(t, http.MethodPost, "/api/socios", token,
		`{"dni":"45678912","nombres":"Rosa","apellido_paterno":"Quispe","localidad":"Sector A"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)

	rec = f.doJSON(t, http.MethodGet, "/api/socios/"+created.Data.ID, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"lote_medido":false`)

	rec = f.doJSON(t, http.MethodGet, "/api/socios?q=Quispe", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "45678912")
}

func TestRouterDocumentUploadAndDeletionWorkflow(t *testing.T) {
	f := newRouterFixture(t)
	f.createUser(t, "admin@asociacion.pe", models.RoleAdmin)
	f.createUser(t, "ing@asociacion.pe", models.RoleEngineer)

	adminToken := f.login(t, "admin@asociacion.pe")
	engineerToken := f.login(t, "ing@asociacion.pe")

	rec := f.doJSON(t, http.MethodPost, "/api/socios", adminToken,
		`{"dni":"12345678","nombres":"Juan","apellido_paterno":"Mamani"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// engineer uploads a qualifying document
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("tipo_documento", "Planos de ubicación"))
	part, err := writer.CreateFormFile("file", "plano.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 plano"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/socios/"+created.Data.ID+"/documentos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+engineerToken)
	upload := httptest.NewRecorder()
	f.router.ServeHTTP(upload, req)
	require.Equal(t, http.StatusCreated, upload.Code, upload.Body.String())

	var uploaded struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(upload.Body.Bytes(), &uploaded))
	require.Equal(t, 1, f.store.Len())

	// the qualifying document drives the derived measured state
	rec = f.doJSON(t, http.MethodGet, "/api/socios/"+created.Data.ID, adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"lote_medido":true`)

	// listings derive it too, without a manual flag write
	rec = f.doJSON(t, http.MethodGet, "/api/socios", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"lote_medido":true`)
	require.Contains(t, rec.Body.String(), `"is_lote_medido":false`)

	// engineer requests deletion, admin approves
	rec = f.doJSON(t, http.MethodPost, "/api/deletion-requests", engineerToken,
		fmt.Sprintf(`{"document_id":%q}`, uploaded.Data.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var request struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &request))

	rec = f.doJSON(t, http.MethodGet, "/api/deletion-requests/pending-count", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"pending":1`)

	rec = f.doJSON(t, http.MethodPost, "/api/deletion-requests/"+request.Data.ID+"/resolve", adminToken,
		`{"decision":"approve"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 0, f.store.Len())

	// admin cannot resolve twice
	rec = f.doJSON(t, http.MethodPost, "/api/deletion-requests/"+request.Data.ID+"/resolve", adminToken,
		`{"decision":"reject"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouterEngineerCannotResolveDeletionRequests(t *testing.T) {
	f := newRouterFixture(t)
	f.createUser(t, "ing@asociacion.pe", models.RoleEngineer)
	token := f.login(t, "ing@asociacion.pe")

	rec := f.doJSON(t, http.MethodPost, "/api/deletion-requests/some-id/resolve", token,
		`{"decision":"approve"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterFinanceFlow(t *testing.T) {
	f := newRouterFixture(t)
	f.createUser(t, "finanzas@asociacion.pe", models.RoleFinanzas)
	token := f.login(t, "finanzas@asociacion.pe")

	rec := f.doJSON(t, http.MethodPost, "/api/cuentas", token,
		`{"nombre":"Caja general"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cuenta struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cuenta))

	rec = f.doJSON(t, http.MethodPost, "/api/ingresos", token,
		fmt.Sprintf(`{"cuenta_id":%q,"monto":150.5,"fecha":"2026-03-10","concepto":"cuota mensual"}`, cuenta.Data.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.doJSON(t, http.MethodPost, "/api/gastos", token,
		fmt.Sprintf(`{"cuenta_id":%q,"monto":50,"fecha":"2026-03-12","concepto":"materiales"}`, cuenta.Data.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.doJSON(t, http.MethodGet, "/api/cuentas/"+cuenta.Data.ID+"/resumen", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_ingresos":150.5`)
	require.Contains(t, rec.Body.String(), `"total_gastos":50`)
}

func TestRouterLogoutRevokesSession(t *testing.T) {
	f := newRouterFixture(t)
	f.createUser(t, "admin@asociacion.pe", models.RoleAdmin)
	token := f.login(t, "admin@asociacion.pe")

	rec := f.doJSON(t, http.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// access tokens stay valid until expiry, but the refresh session is gone
	rec = f.doJSON(t, http.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
