package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"visitor-pass-service/internal/domain/models"
	"visitor-pass-service/internal/domain/services/container"
	"visitor-pass-service/internal/error/code"
	"visitor-pass-service/internal/infrastructure/config"
	"visitor-pass-service/internal/infrastructure/database"
	"visitor-pass-service/internal/infrastructure/mail"
)

type stubMailer struct{ sent []mail.Message }

func (m *stubMailer) Send(_ context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type stubNarrator struct{}

func (stubNarrator) GenerateNarrative(_ context.Context, _ string) (string, error) {
	return "No incidents were observed during the requested window.", nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	mailer *stubMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{
		JWTSecretKey:         "routes-secret",
		JWTExpiration:        time.Hour,
		DefaultAdminEmail:    "admin@example.com",
		DefaultAdminPassword: "admin-pass",
		Timezone:             "UTC",
		QREnabled:            true,
		QRErrorCorrection:    "Q",
		QRMargin:             2,
		QRWidth:              200,
		QRForeground:         "#000000",
		QRBackground:         "#FFFFFF",
		RateLimitRPS:         100,
		RateLimitBurst:       100,
	}

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.EnsureDefaultRoles(db))
	require.NoError(t, database.EnsureAdminExists(db, cfg))

	mailer := &stubMailer{}
	c := container.NewServiceContainer(db, cfg, container.Dependencies{
		Mailer:   mailer,
		Narrator: stubNarrator{},
		Registry: prometheus.NewRegistry(),
	})

	return &testServer{t: t, router: SetupRouter(c), db: db, mailer: mailer}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) seedUser(email, roleType string) *models.User {
	s.t.Helper()
	var role models.Role
	require.NoError(s.t, s.db.Where("type = ?", roleType).First(&role).Error)
	user := &models.User{Username: email, Name: "Resident " + email, Email: email, Password: "resident-pass", Confirmed: true, RoleID: role.ID}
	require.NoError(s.t, s.db.Create(user).Error)
	return user
}

func (s *testServer) seedResident(email, unit string) {
	s.t.Helper()
	user := s.seedUser(email, models.RoleTypeResident)
	if unit != "" {
		u := models.Unit{Name: unit, Building: "Tower A"}
		require.NoError(s.t, s.db.Create(&u).Error)
		require.NoError(s.t, s.db.Model(user).Association("Units").Append(&u))
	}
}

func (s *testServer) login(identifier, password string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"identifier": identifier, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		JWT string `json:"jwt"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(s.t, result.JWT)
	return result.JWT
}

func TestAccessPassLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.seedResident("maria@example.com", "Tower A - 12B")
	s.seedResident("joao@example.com", "")
	maria := s.login("maria@example.com", "resident-pass")
	joao := s.login("joao@example.com", "resident-pass")
	s.seedUser("guard@example.com", models.RoleTypeSecurity)
	guard := s.login("guard@example.com", "resident-pass")

	w, _ := s.do(http.MethodPost, "/api/access-passes", "", gin.H{"visitorName": "Ana"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodPost, "/api/access-passes", maria, gin.H{
		"visitorName": "Ana", "accessType": "usage-limit", "accessMethod": "qr-pin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, code.ErrValidation, env.Code)
	assert.Equal(t, "使用次数限制无效", env.Message)

	w, env = s.do(http.MethodPost, "/api/access-passes", maria, gin.H{
		"visitorName": "Ana", "accessType": "usage-limit", "accessMethod": "qr-pin", "usageLimit": 2, "notifications": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID         uint    `json:"id"`
		AccessCode string  `json:"accessCode"`
		QRCode     *string `json:"qrCode"`
		Status     string  `json:"status"`
		UsageLimit int     `json:"usageLimit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Regexp(t, `^\d{6}$`, created.AccessCode)
	require.NotNil(t, created.QRCode)
	assert.True(t, strings.HasPrefix(*created.QRCode, "data:image/png;base64,"))
	assert.Equal(t, "active", created.Status)
	assert.Equal(t, 2, created.UsageLimit)

	w, env = s.do(http.MethodGet, "/api/access-passes/code/"+created.AccessCode, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Name       string `json:"name"`
		Location   string `json:"location"`
		Status     string `json:"status"`
		UsageCount int    `json:"usageCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Resident maria@example.com", view.Name)
	assert.Equal(t, "Tower A - 12B", view.Location)
	assert.Equal(t, 0, view.UsageCount)

	w, _ = s.do(http.MethodGet, "/api/access-passes/code/000000x", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	redeemPath := "/api/access-passes/code/" + created.AccessCode + "/redeem"
	w, _ = s.do(http.MethodPost, redeemPath, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 住户不能核验通行证
	w, env = s.do(http.MethodPost, redeemPath, maria, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, code.ErrForbidden, env.Code)

	w, env = s.do(http.MethodPost, redeemPath, guard, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 1, view.UsageCount)
	assert.Equal(t, "active", view.Status)

	w, env = s.do(http.MethodPost, redeemPath, guard, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "expired", view.Status)

	w, env = s.do(http.MethodPost, redeemPath, guard, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, code.ErrPassNotActive, env.Code)

	cancelPath := fmt.Sprintf("/api/access-passes/%d/cancel", created.ID)
	w, env = s.do(http.MethodPut, cancelPath, joao, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, code.ErrForbidden, env.Code)

	w, _ = s.do(http.MethodPut, "/api/access-passes/9999/cancel", maria, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPut, "/api/access-passes/abc/cancel", maria, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPut, cancelPath, maria, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "cancelled", view.Status)

	w, env = s.do(http.MethodGet, "/api/access-passes/my-passes", maria, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var grouped map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &grouped))
	assert.Len(t, grouped["cancelled"], 1)
	assert.NotNil(t, grouped["active"])
	assert.Empty(t, grouped["active"])
	assert.Empty(t, grouped["expired"])

	w, env = s.do(http.MethodGet, "/api/access-passes/my-passes", joao, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"active":[],"expired":[],"cancelled":[]}`, string(env.Data))
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	s.seedResident("maria@example.com", "Tower A - 12B")
	resident := s.login("maria@example.com", "resident-pass")
	admin := s.login("admin", "admin-pass")

	window := gin.H{"date": "2024-05-01", "timeFrom": "08:00", "timeTo": "18:00"}

	w, _ := s.do(http.MethodPost, "/api/incident-reports/generate", resident, window)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodPost, "/api/incident-reports/generate", admin, gin.H{"date": "2024-05-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, code.ErrValidation, env.Code)

	w, env = s.do(http.MethodGet, "/api/incident-reports", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	w, _ = s.do(http.MethodGet, "/api/incident-reports", admin, nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w, env = s.do(http.MethodPost, "/api/incident-reports/generate", admin, window)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		ID         uint              `json:"id"`
		Date       string            `json:"date"`
		Report     string            `json:"report"`
		AccessLogs []json.RawMessage `json:"accessLogs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, "2024-05-01", report.Date)
	assert.NotEmpty(t, report.Report)
	assert.NotNil(t, report.AccessLogs)
	assert.Empty(t, report.AccessLogs)

	w, env = s.do(http.MethodGet, "/api/incident-reports", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	var list struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Items, 1)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/incident-reports/%d", report.ID), admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/incident-reports/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodPost, "/api/auth/invite", admin, gin.H{"email": "guard@example.com", "role": "security"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), "Invitation sent successfully")
	assert.Len(t, s.mailer.sent, 1)

	w, env = s.do(http.MethodPost, "/api/auth/invite", admin, gin.H{"email": "guard@example.com", "role": "security"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, code.ErrUserAlreadyExist, env.Code)

	w, _ = s.do(http.MethodPost, "/api/auth/invite", resident, gin.H{"email": "x@example.com", "role": "security"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthAndHealthRoutes(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"identifier": "admin@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, code.ErrUserPasswordIncorrect, env.Code)

	token := s.login("admin@example.com", "admin-pass")
	w, env = s.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     struct {
			Type string `json:"type"`
		} `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "admin@example.com", me.Email)
	assert.Empty(t, me.Password)
	assert.Equal(t, "admin", me.Role.Type)

	w, env = s.do(http.MethodPost, "/api/units", token, gin.H{"name": "Tower B - 3A", "building": "Tower B"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/health/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"database":"up","redis":"disabled","mqtt":"disabled"}`, string(env.Data))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, _ = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "visitor_pass_http_requests_total")
}
