package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"visitor-pass-service/internal/domain/models"
	"visitor-pass-service/internal/infrastructure/config"
	Logger "visitor-pass-service/pkg/logger"
)

// InterfaceIncidentReportService 定义事件报告服务接口
type InterfaceIncidentReportService interface {
	GenerateReport(ctx context.Context, adminID uint, input ReportWindowInput) (*IncidentReportView, error)
	GetReport(ctx context.Context, id uint) (*IncidentReportView, error)
	ListReports(ctx context.Context, query models.PaginationQuery) ([]IncidentReportView, models.PaginationResult, error)
}

// IncidentReportView 返回给管理员的报告
type IncidentReportView struct {
	ID         uint                    `json:"id"`
	Date       string                  `json:"date"`
	TimeFrom   string                  `json:"timeFrom"`
	TimeTo     string                  `json:"timeTo"`
	Report     string                  `json:"report"`
	AccessLogs []models.AccessLogEntry `json:"accessLogs"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// IncidentReportService 事件报告服务
type IncidentReportService struct {
	DB        *gorm.DB
	Config    *config.Config
	Narrator  InterfaceNarrativeService
	Residents InterfaceResidentDirectory
	Evaluator *ExpirationEvaluator
	Metrics   *Metrics
}

// NewIncidentReportService 创建事件报告服务
func NewIncidentReportService(
	db *gorm.DB,
	cfg *config.Config,
	narrator InterfaceNarrativeService,
	residents InterfaceResidentDirectory,
	metrics *Metrics,
) *IncidentReportService {
	return &IncidentReportService{
		DB:        db,
		Config:    cfg,
		Narrator:  narrator,
		Residents: residents,
		Evaluator: NewExpirationEvaluator(cfg.Location()),
		Metrics:   metrics,
	}
}

// GenerateReport 汇总时间窗口内有效的通行证，调用模型生成正文并保存
func (s *IncidentReportService) GenerateReport(ctx context.Context, adminID uint, input ReportWindowInput) (*IncidentReportView, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	windowStart, windowEnd, ok := s.Evaluator.Window(input.Date, input.TimeFrom, input.TimeTo)
	if !ok {
		return nil, newValidationError("日期或时间无法解析")
	}

	passes, err := s.passesInWindow(ctx, input.Date, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	logs := s.buildAccessLogs(ctx, passes)

	prompt, err := buildReportPrompt(input, logs)
	if err != nil {
		return nil, err
	}

	narrative, err := s.Narrator.GenerateNarrative(ctx, prompt)
	if err != nil {
		s.Metrics.report("failure")
		if !errors.Is(err, ErrReportGeneration) {
			err = fmt.Errorf("%w: %v", ErrReportGeneration, err)
		}
		return nil, err
	}

	report := models.IncidentReport{
		Date:        input.Date,
		TimeFrom:    input.TimeFrom,
		TimeTo:      input.TimeTo,
		Report:      narrative,
		AccessLogs:  datatypes.NewJSONType(logs),
		GeneratedBy: adminID,
	}
	if err := s.DB.WithContext(ctx).Create(&report).Error; err != nil {
		s.Metrics.report("failure")
		Logger.WithContext(ctx).Errorf("保存事件报告失败: %v", err)
		return nil, err
	}

	s.Metrics.report("success")
	Logger.WithContext(ctx).Infof("管理员 %d 生成事件报告 %d, 通行记录 %d 条", adminID, report.ID, len(logs))
	return toReportView(&report), nil
}

// GetReport 按ID查询报告
func (s *IncidentReportService) GetReport(ctx context.Context, id uint) (*IncidentReportView, error) {
	var report models.IncidentReport
	if err := s.DB.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return toReportView(&report), nil
}

// ListReports 分页查询报告，最新的在前
func (s *IncidentReportService) ListReports(ctx context.Context, query models.PaginationQuery) ([]IncidentReportView, models.PaginationResult, error) {
	query = query.Normalize()

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.IncidentReport{}).Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	var reports []models.IncidentReport
	err := s.DB.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&reports).Error
	if err != nil {
		return nil, models.PaginationResult{}, err
	}

	views := make([]IncidentReportView, 0, len(reports))
	for i := range reports {
		views = append(views, *toReportView(&reports[i]))
	}
	return views, models.NewPaginationResult(total, query), nil
}

// passesInWindow 一次查询取出候选通行证，时段型再按窗口重叠过滤
func (s *IncidentReportService) passesInWindow(ctx context.Context, date string, windowStart, windowEnd time.Time) ([]models.AccessPass, error) {
	db := s.DB.WithContext(ctx)

	var candidates []models.AccessPass
	err := db.
		Where("status = ?", models.PassStatusActive).
		Where(
			db.Where("access_type = ? AND visit_date = ?", models.AccessTypeTimeBound, date).
				Or("access_type = ? AND date_from <= ? AND date_to >= ?", models.AccessTypeDateRange, date, date).
				Or("access_type = ? AND created_at <= ?", models.AccessTypeUsageLimit, windowEnd),
		).
		Order("created_at ASC").
		Order("id ASC").
		Find(&candidates).Error
	if err != nil {
		Logger.WithContext(ctx).Errorf("查询通行证失败: %v", err)
		return nil, err
	}

	passes := make([]models.AccessPass, 0, len(candidates))
	for _, pass := range candidates {
		if v, ok := pass.Validity().(models.TimeBoundValidity); ok {
			passStart, passEnd, ok := s.Evaluator.Window(v.Date, v.TimeFrom, v.TimeTo)
			if !ok || passStart.After(windowEnd) || passEnd.Before(windowStart) {
				continue
			}
		}
		passes = append(passes, pass)
	}
	return passes, nil
}

func (s *IncidentReportService) buildAccessLogs(ctx context.Context, passes []models.AccessPass) []models.AccessLogEntry {
	logs := make([]models.AccessLogEntry, 0, len(passes))
	residents := make(map[uint]ResidentProjection)

	for i := range passes {
		pass := &passes[i]

		resident, ok := residents[pass.ResidentID]
		if !ok {
			resident = s.Residents.Resolve(ctx, pass.ResidentID)
			residents[pass.ResidentID] = resident
		}

		entry := models.AccessLogEntry{
			VisitorName:  pass.VisitorName,
			AccessType:   pass.AccessType,
			Location:     resident.Location,
			ResidentName: resident.Name,
			Status:       pass.Status,
		}
		switch v := pass.Validity().(type) {
		case models.TimeBoundValidity:
			entry.TimeDetails = models.TimeDetails{From: v.TimeFrom, To: v.TimeTo}
		case models.DateRangeValidity:
			entry.TimeDetails = models.TimeDetails{From: v.DateFrom, To: v.DateTo}
		case models.UsageLimitValidity:
			count, limit := v.Count, v.Limit
			entry.TimeDetails = models.TimeDetails{UsageCount: &count, Limit: &limit}
		}
		logs = append(logs, entry)
	}
	return logs
}

func buildReportPrompt(input ReportWindowInput, logs []models.AccessLogEntry) (string, error) {
	data, err := json.MarshalIndent(logs, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a detailed security incident report from the visitor access data below, covering %s from %s to %s.\n\n", input.Date, input.TimeFrom, input.TimeTo)
	b.WriteString("Access Logs:\n")
	b.Write(data)
	b.WriteString("\n\nStructure the report with these sections:\n")
	b.WriteString("1. Executive Summary\n")
	b.WriteString("2. Timeline of Events\n")
	b.WriteString("3. Visitor Activity Analysis\n")
	b.WriteString("4. Areas Accessed\n")
	b.WriteString("5. Notable Patterns or Concerns\n")
	b.WriteString("6. Recommendations (if any)\n\n")
	b.WriteString("Use a professional tone suitable for security records.")
	return b.String(), nil
}

func toReportView(report *models.IncidentReport) *IncidentReportView {
	logs := report.AccessLogs.Data()
	if logs == nil {
		logs = []models.AccessLogEntry{}
	}
	return &IncidentReportView{
		ID:         report.ID,
		Date:       report.Date,
		TimeFrom:   report.TimeFrom,
		TimeTo:     report.TimeTo,
		Report:     report.Report,
		AccessLogs: logs,
		CreatedAt:  report.CreatedAt,
	}
}
