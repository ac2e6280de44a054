package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"visitor-pass-service/internal/domain/models"
)

func newReportService(db *gorm.DB, narrator InterfaceNarrativeService) *IncidentReportService {
	return NewIncidentReportService(db, testConfig(), narrator, NewResidentDirectory(db, nil, 0), NewMetrics(nil))
}

func insertPass(t *testing.T, db *gorm.DB, name string, v models.PassValidity, status models.PassStatus, createdAt time.Time, residentID uint, code string) {
	t.Helper()
	p := models.AccessPass{VisitorName: name, AccessMethod: models.PassAccessMethodPin, AccessCode: code, Status: status, ResidentID: residentID}
	p.ApplyValidity(v)
	p.CreatedAt = createdAt
	require.NoError(t, db.Create(&p).Error)
}

func TestGenerateReportEmptyWindow(t *testing.T) {
	db := openTestDB(t)
	narrator := &fakeNarrator{reply: "No visitor activity recorded."}
	svc := newReportService(db, narrator)

	view, err := svc.GenerateReport(context.Background(), 1, ReportWindowInput{Date: "2024-05-01", TimeFrom: "09:00", TimeTo: "10:00"})
	require.NoError(t, err)

	assert.NotNil(t, view.AccessLogs)
	assert.Empty(t, view.AccessLogs)
	assert.Equal(t, "No visitor activity recorded.", view.Report)
	require.Len(t, narrator.prompts, 1)
	assert.Contains(t, narrator.prompts[0], "Access Logs:\n[]")
	assert.Contains(t, narrator.prompts[0], "2024-05-01 from 09:00 to 10:00")

	var stored models.IncidentReport
	require.NoError(t, db.First(&stored, view.ID).Error)
	assert.Empty(t, stored.AccessLogs.Data())
	assert.Equal(t, uint(1), stored.GeneratedBy)
}

func TestGenerateReportSelectsPassesInWindow(t *testing.T) {
	db := openTestDB(t)
	resident := seedResident(t, db, "Maria Santos", "maria@example.com", "Tower A - 12B")
	narrator := &fakeNarrator{reply: "Report body"}
	svc := newReportService(db, narrator)
	created := date(2024, 4, 20, 8, 0)

	insertPass(t, db, "overlap-start", models.TimeBoundValidity{Date: "2024-05-01", TimeFrom: "08:00", TimeTo: "09:00"}, models.PassStatusActive, created, resident.ID, "200001")
	insertPass(t, db, "inside", models.TimeBoundValidity{Date: "2024-05-01", TimeFrom: "09:30", TimeTo: "09:45"}, models.PassStatusActive, created, resident.ID, "200002")
	insertPass(t, db, "before", models.TimeBoundValidity{Date: "2024-05-01", TimeFrom: "07:00", TimeTo: "08:59"}, models.PassStatusActive, created, resident.ID, "200003")
	insertPass(t, db, "other-day", models.TimeBoundValidity{Date: "2024-05-02", TimeFrom: "09:00", TimeTo: "10:00"}, models.PassStatusActive, created, resident.ID, "200004")
	insertPass(t, db, "range", models.DateRangeValidity{DateFrom: "2024-04-30", DateTo: "2024-05-01"}, models.PassStatusActive, created, resident.ID, "200005")
	insertPass(t, db, "range-past", models.DateRangeValidity{DateFrom: "2024-04-01", DateTo: "2024-04-30"}, models.PassStatusActive, created, resident.ID, "200006")
	insertPass(t, db, "usage", models.UsageLimitValidity{Limit: 3, Count: 1}, models.PassStatusActive, date(2024, 5, 1, 10, 0), resident.ID, "200007")
	insertPass(t, db, "usage-late", models.UsageLimitValidity{Limit: 3}, models.PassStatusActive, date(2024, 5, 1, 10, 1), resident.ID, "200008")
	insertPass(t, db, "cancelled", models.TimeBoundValidity{Date: "2024-05-01", TimeFrom: "09:00", TimeTo: "10:00"}, models.PassStatusCancelled, created, resident.ID, "200009")

	view, err := svc.GenerateReport(context.Background(), 1, ReportWindowInput{Date: "2024-05-01", TimeFrom: "09:00", TimeTo: "10:00"})
	require.NoError(t, err)

	byName := make(map[string]models.AccessLogEntry)
	for _, entry := range view.AccessLogs {
		byName[entry.VisitorName] = entry
	}
	assert.Len(t, byName, 4)
	for _, name := range []string{"overlap-start", "inside", "range", "usage"} {
		assert.Contains(t, byName, name)
	}

	entry := byName["overlap-start"]
	assert.Equal(t, "Tower A - 12B", entry.Location)
	assert.Equal(t, "Maria Santos", entry.ResidentName)
	assert.Equal(t, models.TimeDetails{From: "08:00", To: "09:00"}, entry.TimeDetails)
	assert.Equal(t, models.TimeDetails{From: "2024-04-30", To: "2024-05-01"}, byName["range"].TimeDetails)

	usage := byName["usage"].TimeDetails
	require.NotNil(t, usage.UsageCount)
	require.NotNil(t, usage.Limit)
	assert.Equal(t, 1, *usage.UsageCount)
	assert.Equal(t, 3, *usage.Limit)

	stored, err := svc.GetReport(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Len(t, stored.AccessLogs, 4)
}

func TestGenerateReportNarratorFailure(t *testing.T) {
	db := openTestDB(t)
	svc := newReportService(db, &fakeNarrator{err: errors.New("upstream 500")})

	_, err := svc.GenerateReport(context.Background(), 1, ReportWindowInput{Date: "2024-05-01", TimeFrom: "09:00", TimeTo: "10:00"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReportGeneration))

	var count int64
	require.NoError(t, db.Model(&models.IncidentReport{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateReportValidation(t *testing.T) {
	db := openTestDB(t)
	narrator := &fakeNarrator{reply: "x"}
	svc := newReportService(db, narrator)

	_, err := svc.GenerateReport(context.Background(), 1, ReportWindowInput{Date: "2024-05-01", TimeFrom: "09:00"})
	assert.True(t, IsValidationError(err))
	assert.Empty(t, narrator.prompts)
}

func TestListAndGetReports(t *testing.T) {
	db := openTestDB(t)
	svc := newReportService(db, &fakeNarrator{reply: "body"})
	ctx := context.Background()

	for _, from := range []string{"08:00", "09:00", "10:00"} {
		_, err := svc.GenerateReport(ctx, 1, ReportWindowInput{Date: "2024-05-01", TimeFrom: from, TimeTo: "11:00"})
		require.NoError(t, err)
	}

	views, page, err := svc.ListReports(ctx, models.PaginationQuery{PageNum: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, views, 2)
	assert.Equal(t, "10:00", views[0].TimeFrom)

	_, err = svc.GetReport(ctx, 999)
	assert.True(t, errors.Is(err, ErrReportNotFound))
}
