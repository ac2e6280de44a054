package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"visitor-pass-service/internal/app/routes"
	"visitor-pass-service/internal/domain/models"
	"visitor-pass-service/internal/domain/services/container"
	"visitor-pass-service/internal/infrastructure/config"
	"visitor-pass-service/internal/infrastructure/database"
	"visitor-pass-service/internal/infrastructure/mail"
)

type noopMailer struct{}

func (noopMailer) Send(context.Context, mail.Message) error { return nil }

type noopNarrator struct{}

func (noopNarrator) GenerateNarrative(context.Context, string) (string, error) {
	return "report", nil
}

// startServer 启动一个基于内存SQLite的完整服务
func startServer(t testing.TB) (*httptest.Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{
		JWTSecretKey:         "bench-secret",
		DefaultAdminEmail:    "admin@example.com",
		DefaultAdminPassword: "admin123",
		Timezone:             "UTC",
		QREnabled:            false,
		RateLimitRPS:         10000,
		RateLimitBurst:       10000,
	}
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.EnsureDefaultRoles(db))
	require.NoError(t, database.EnsureAdminExists(db, cfg))

	c := container.NewServiceContainer(db, cfg, container.Dependencies{
		Mailer:   noopMailer{},
		Narrator: noopNarrator{},
		Registry: prometheus.NewRegistry(),
	})
	srv := httptest.NewServer(routes.SetupRouter(c))
	t.Cleanup(srv.Close)
	return srv, db
}

func login(t testing.TB, baseURL, identifier, password string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"identifier": identifier, "password": password})
	require.NoError(t, err)
	resp, err := http.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env struct {
		Data struct {
			JWT string `json:"jwt"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data.JWT
}

func createUsageLimitPass(t testing.TB, baseURL, token string, limit int) string {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"visitorName":  "Load Visitor",
		"accessType":   models.AccessTypeUsageLimit,
		"accessMethod": models.PassAccessMethodPin,
		"usageLimit":   limit,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, baseURL+"/access-passes", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var env struct {
		Data struct {
			AccessCode string `json:"accessCode"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data.AccessCode
}

// 并发核验不会超过使用次数上限
func TestConcurrentRedeemHonoursUsageLimit(t *testing.T) {
	srv, db := startServer(t)
	baseURL := srv.URL + "/api"
	token := login(t, baseURL, "admin", "admin123")

	const limit = 5
	accessCode := createUsageLimitPass(t, baseURL, token, limit)

	bench := NewAPIBenchmark(baseURL, 8, 40, token, srv.Client())
	result := bench.RunPOST("/access-passes/code/"+accessCode+"/redeem", nil)
	t.Log(result.Summary())

	assert.Empty(t, result.Errors)
	assert.Equal(t, limit, result.SuccessCount)
	assert.Equal(t, 40-limit, result.StatusCodes[http.StatusBadRequest])

	var pass models.AccessPass
	require.NoError(t, db.Where("access_code = ?", accessCode).First(&pass).Error)
	assert.Equal(t, limit, pass.UsageCount)
	assert.Equal(t, models.PassStatusExpired, pass.Status)

	var successes int64
	require.NoError(t, db.Model(&models.AccessLog{}).
		Where("access_pass_id = ? AND result = ?", pass.ID, models.AccessResultSuccess).
		Count(&successes).Error)
	assert.Equal(t, int64(limit), successes)
}

func TestPublicLookupUnderLoad(t *testing.T) {
	srv, _ := startServer(t)
	baseURL := srv.URL + "/api"
	token := login(t, baseURL, "admin@example.com", "admin123")
	accessCode := createUsageLimitPass(t, baseURL, token, 3)

	bench := NewAPIBenchmark(baseURL, 10, 100, "", srv.Client())
	result := bench.RunGET("/access-passes/code/" + accessCode)
	t.Log(result.Summary())

	assert.Equal(t, 100, result.SuccessCount)
	assert.Zero(t, result.FailureCount)
	assert.LessOrEqual(t, result.MinTime, result.MaxTime)
}

func BenchmarkGetByCode(b *testing.B) {
	srv, _ := startServer(b)
	baseURL := srv.URL + "/api"
	token := login(b, baseURL, "admin", "admin123")
	accessCode := createUsageLimitPass(b, baseURL, token, 1)
	client := srv.Client()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := client.Get(baseURL + "/access-passes/code/" + accessCode)
		if err != nil {
			b.Fatal(err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b.Fatalf("unexpected status %d", resp.StatusCode)
		}
	}
}
