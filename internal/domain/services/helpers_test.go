package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"visitor-pass-service/internal/domain/models"
	"visitor-pass-service/internal/infrastructure/config"
	"visitor-pass-service/internal/infrastructure/database"
	"visitor-pass-service/internal/infrastructure/mail"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.EnsureDefaultRoles(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Timezone:          "UTC",
		QREnabled:         true,
		QRErrorCorrection: "Q",
		QRMargin:          2,
		QRWidth:           200,
		QRForeground:      "#000000",
		QRBackground:      "#FFFFFF",
	}
}

func seedResident(t *testing.T, db *gorm.DB, name, email, unit string) *models.User {
	t.Helper()
	var role models.Role
	require.NoError(t, db.Where("type = ?", models.RoleTypeResident).First(&role).Error)

	user := &models.User{Username: email, Name: name, Email: email, Password: "resident-pass", Confirmed: true, RoleID: role.ID}
	require.NoError(t, db.Create(user).Error)

	if unit != "" {
		u := models.Unit{Name: unit, Building: "Tower A"}
		require.NoError(t, db.Create(&u).Error)
		require.NoError(t, db.Model(user).Association("Units").Append(&u))
	}
	return user
}

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []PassEvent
	err    error
}

func (p *recordingPublisher) Publish(topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	if ev, ok := payload.(PassEvent); ok {
		p.events = append(p.events, ev)
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeNarrator struct {
	prompts []string
	reply   string
	err     error
}

func (n *fakeNarrator) GenerateNarrative(_ context.Context, prompt string) (string, error) {
	n.prompts = append(n.prompts, prompt)
	if n.err != nil {
		return "", n.err
	}
	return n.reply, nil
}

// sequenceCredentials 依次返回给定的 PIN
type sequenceCredentials struct {
	pins []string
	next int
}

func (c *sequenceCredentials) GeneratePin() string {
	pin := c.pins[c.next%len(c.pins)]
	c.next++
	return pin
}

func (c *sequenceCredentials) GenerateVisualCredential(code string) (string, error) {
	if code == "" {
		return "", errors.New("empty code")
	}
	return "data:image/png;base64,QR-" + code, nil
}

func newPassService(t *testing.T, db *gorm.DB, now time.Time) (*AccessPassService, *recordingPublisher) {
	t.Helper()
	cfg := testConfig()
	publisher := &recordingPublisher{}
	svc := NewAccessPassService(
		db,
		cfg,
		NewCredentialService(cfg),
		NewResidentDirectory(db, nil, 0),
		NewPassEventService(publisher, "access_pass"),
		NewMetrics(nil),
	)
	svc.Now = func() time.Time { return now }
	return svc, publisher
}
