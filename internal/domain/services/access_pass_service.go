package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"visitor-pass-service/internal/domain/models"
	"visitor-pass-service/internal/infrastructure/config"
	Logger "visitor-pass-service/pkg/logger"
)

// 生成唯一通行码的最大尝试次数
const maxCodeAttempts = 5

// InterfaceAccessPassService 定义访客通行证服务接口
type InterfaceAccessPassService interface {
	CreateAccessPass(ctx context.Context, residentID uint, input CreateAccessPassInput) (*AccessPassCreated, error)
	GetByCode(ctx context.Context, code string) (*AccessPassView, error)
	GetMyPasses(ctx context.Context, residentID uint) (*GroupedPasses, error)
	CancelPass(ctx context.Context, passID, residentID uint) (*AccessPassView, error)
	RedeemPass(ctx context.Context, code string) (*AccessPassView, error)
}

// AccessPassCreated 创建通行证后返回给住户的数据
type AccessPassCreated struct {
	ID            uint                    `json:"id"`
	VisitorName   string                  `json:"visitorName"`
	AccessCode    string                  `json:"accessCode"`
	QRCode        *string                 `json:"qrCode"`
	Status        models.PassStatus       `json:"status"`
	CreatedAt     time.Time               `json:"createdAt"`
	AccessType    models.AccessType       `json:"accessType"`
	Date          *string                 `json:"date,omitempty"`
	TimeFrom      *string                 `json:"timeFrom,omitempty"`
	TimeTo        *string                 `json:"timeTo,omitempty"`
	DateFrom      *string                 `json:"dateFrom,omitempty"`
	DateTo        *string                 `json:"dateTo,omitempty"`
	UsageLimit    *int                    `json:"usageLimit,omitempty"`
	AccessMethod  models.PassAccessMethod `json:"accessMethod"`
	Notifications bool                    `json:"notifications"`
}

// AccessPassView 展示用的通行证数据，附带住户姓名与单元
type AccessPassView struct {
	ID            uint              `json:"id"`
	VisitorName   string            `json:"visitorName"`
	Name          string            `json:"name"`
	Location      string            `json:"location"`
	Pin           string            `json:"pin"`
	QRCode        *string           `json:"qrCode"`
	Status        models.PassStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	AccessType    models.AccessType `json:"accessType"`
	ValidFrom     string            `json:"validFrom,omitempty"`
	ValidTimeFrom string            `json:"validTimeFrom,omitempty"`
	ValidTimeTo   string            `json:"validTimeTo,omitempty"`
	ValidTo       string            `json:"validTo,omitempty"`
	UsageLimit    *int              `json:"usageLimit,omitempty"`
	UsageCount    *int              `json:"usageCount,omitempty"`
}

// GroupedPasses 按状态分组的通行证，三个分组始终存在
type GroupedPasses struct {
	Active    []AccessPassView `json:"active"`
	Expired   []AccessPassView `json:"expired"`
	Cancelled []AccessPassView `json:"cancelled"`
}

// AccessPassService 访客通行证服务
type AccessPassService struct {
	DB          *gorm.DB
	Config      *config.Config
	Credentials InterfaceCredentialService
	Residents   InterfaceResidentDirectory
	Events      InterfacePassEventService
	Evaluator   *ExpirationEvaluator
	Metrics     *Metrics
	Now         func() time.Time
}

// NewAccessPassService 创建访客通行证服务
func NewAccessPassService(
	db *gorm.DB,
	cfg *config.Config,
	credentials InterfaceCredentialService,
	residents InterfaceResidentDirectory,
	events InterfacePassEventService,
	metrics *Metrics,
) *AccessPassService {
	return &AccessPassService{
		DB:          db,
		Config:      cfg,
		Credentials: credentials,
		Residents:   residents,
		Events:      events,
		Evaluator:   NewExpirationEvaluator(cfg.Location()),
		Metrics:     metrics,
		Now:         time.Now,
	}
}

// CreateAccessPass 校验参数、生成凭证并保存通行证
func (s *AccessPassService) CreateAccessPass(ctx context.Context, residentID uint, input CreateAccessPassInput) (*AccessPassCreated, error) {
	validity, err := input.Validate()
	if err != nil {
		return nil, err
	}

	pass := &models.AccessPass{
		VisitorName:   input.VisitorName,
		AccessMethod:  models.PassAccessMethod(input.AccessMethod),
		Notifications: input.Notifications,
		Status:        models.PassStatusActive,
		ResidentID:    residentID,
	}
	pass.CreatedAt = s.now()
	pass.ApplyValidity(validity)

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}
	pass.AccessCode = code

	if pass.AccessMethod == models.PassAccessMethodQRPin && s.qrEnabled() {
		qr, err := s.Credentials.GenerateVisualCredential(code)
		if err != nil {
			return nil, err
		}
		pass.QRCode = &qr
	}

	if err := s.DB.WithContext(ctx).Create(pass).Error; err != nil {
		Logger.WithContext(ctx).Errorf("保存通行证失败: %v", err)
		return nil, err
	}

	Logger.WithContext(ctx).Infof("住户 %d 创建通行证: id=%d, type=%s", residentID, pass.ID, pass.AccessType)
	s.Metrics.passCreated(string(pass.AccessType))
	s.publish(ctx, PassEventCreated, pass)

	return toCreatedView(pass), nil
}

// GetByCode 公开查询，读取时刷新过期状态
func (s *AccessPassService) GetByCode(ctx context.Context, code string) (*AccessPassView, error) {
	pass, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.refreshStatus(ctx, pass); err != nil {
		return nil, err
	}
	return s.toView(ctx, pass), nil
}

// GetMyPasses 返回住户的全部通行证，按创建时间倒序并按状态分组
func (s *AccessPassService) GetMyPasses(ctx context.Context, residentID uint) (*GroupedPasses, error) {
	var passes []models.AccessPass
	err := s.DB.WithContext(ctx).
		Where("resident_id = ?", residentID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&passes).Error
	if err != nil {
		return nil, err
	}

	grouped := &GroupedPasses{
		Active:    []AccessPassView{},
		Expired:   []AccessPassView{},
		Cancelled: []AccessPassView{},
	}
	if len(passes) == 0 {
		return grouped, nil
	}

	resident := s.Residents.Resolve(ctx, residentID)
	for i := range passes {
		pass := &passes[i]
		if err := s.refreshStatus(ctx, pass); err != nil {
			return nil, err
		}

		view := formatView(pass, resident)
		switch pass.Status {
		case models.PassStatusActive:
			grouped.Active = append(grouped.Active, view)
		case models.PassStatusExpired:
			grouped.Expired = append(grouped.Expired, view)
		case models.PassStatusCancelled:
			grouped.Cancelled = append(grouped.Cancelled, view)
		}
	}
	return grouped, nil
}

// CancelPass 只有所有者可以取消，重复取消或取消已过期通行证同样成功
func (s *AccessPassService) CancelPass(ctx context.Context, passID, residentID uint) (*AccessPassView, error) {
	var pass models.AccessPass
	if err := s.DB.WithContext(ctx).First(&pass, passID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPassNotFound
		}
		return nil, err
	}
	if pass.ResidentID != residentID {
		return nil, ErrForbidden
	}

	err := s.DB.WithContext(ctx).
		Model(&models.AccessPass{}).
		Where("id = ?", pass.ID).
		Update("status", models.PassStatusCancelled).Error
	if err != nil {
		return nil, err
	}
	pass.Status = models.PassStatusCancelled

	Logger.WithContext(ctx).Infof("住户 %d 取消通行证 %d", residentID, pass.ID)
	s.Metrics.passCancelled()
	s.publish(ctx, PassEventCancelled, &pass)

	return s.toView(ctx, &pass), nil
}

// RedeemPass 门岗核验通行码；次数型通行证在条件更新中原子地累加使用次数
func (s *AccessPassService) RedeemPass(ctx context.Context, code string) (*AccessPassView, error) {
	pass, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.refreshStatus(ctx, pass); err != nil {
		return nil, err
	}

	if !pass.IsActive() {
		s.recordAccess(ctx, pass, models.AccessResultFailure, string(pass.Status))
		return nil, ErrPassNotActive
	}
	if start, ok := s.Evaluator.ValidFrom(pass); ok && s.now().Before(start) {
		s.recordAccess(ctx, pass, models.AccessResultFailure, "not yet valid")
		return nil, ErrPassNotYetValid
	}

	if pass.AccessType == models.AccessTypeUsageLimit {
		result := s.DB.WithContext(ctx).
			Model(&models.AccessPass{}).
			Where("id = ? AND status = ? AND usage_count < usage_limit", pass.ID, models.PassStatusActive).
			UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			s.recordAccess(ctx, pass, models.AccessResultFailure, "usage limit reached")
			return nil, ErrPassNotActive
		}

		if err := s.DB.WithContext(ctx).First(pass, pass.ID).Error; err != nil {
			return nil, err
		}
		if err := s.refreshStatus(ctx, pass); err != nil {
			return nil, err
		}
	}

	s.recordAccess(ctx, pass, models.AccessResultSuccess, "")
	s.publish(ctx, PassEventRedeemed, pass)

	return s.toView(ctx, pass), nil
}

func (s *AccessPassService) findByCode(ctx context.Context, code string) (*models.AccessPass, error) {
	if code == "" {
		return nil, ErrPassNotFound
	}
	var pass models.AccessPass
	if err := s.DB.WithContext(ctx).Where("access_code = ?", code).First(&pass).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPassNotFound
		}
		return nil, err
	}
	return &pass, nil
}

// refreshStatus 过期且仍为 active 时写回 expired，条件更新保证不会覆盖已取消的状态
func (s *AccessPassService) refreshStatus(ctx context.Context, pass *models.AccessPass) error {
	if !pass.IsActive() || !s.Evaluator.IsExpired(pass, s.now()) {
		return nil
	}

	result := s.DB.WithContext(ctx).
		Model(&models.AccessPass{}).
		Where("id = ? AND status = ?", pass.ID, models.PassStatusActive).
		Update("status", models.PassStatusExpired)
	if result.Error != nil {
		Logger.WithContext(ctx).Errorf("更新通行证 %d 过期状态失败: %v", pass.ID, result.Error)
		return result.Error
	}

	pass.Status = models.PassStatusExpired
	if result.RowsAffected > 0 {
		s.Metrics.passExpired()
		s.publish(ctx, PassEventExpired, pass)
	}
	return nil
}

func (s *AccessPassService) recordAccess(ctx context.Context, pass *models.AccessPass, result models.AccessResult, reason string) {
	s.Metrics.redemption(string(result))

	entry := models.AccessLog{
		AccessPassID: pass.ID,
		ResidentID:   pass.ResidentID,
		Result:       result,
		Reason:       reason,
		Timestamp:    s.now(),
	}
	if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		Logger.WithContext(ctx).Warnf("记录通行日志失败: %v", err)
	}
}

// uniqueCode 生成未被占用的通行码，数据库唯一索引兜底
func (s *AccessPassService) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := s.Credentials.GeneratePin()

		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.AccessPass{}).Where("access_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
		Logger.WithContext(ctx).Warnf("通行码冲突，重新生成 (%d/%d)", i+1, maxCodeAttempts)
	}
	return "", fmt.Errorf("%w: 已尝试 %d 次", ErrCodeExhausted, maxCodeAttempts)
}

func (s *AccessPassService) publish(ctx context.Context, eventType string, pass *models.AccessPass) {
	if s.Events != nil {
		s.Events.Publish(ctx, eventType, pass)
	}
}

func (s *AccessPassService) qrEnabled() bool {
	return s.Config == nil || s.Config.QREnabled
}

func (s *AccessPassService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *AccessPassService) toView(ctx context.Context, pass *models.AccessPass) *AccessPassView {
	view := formatView(pass, s.Residents.Resolve(ctx, pass.ResidentID))
	return &view
}

func formatView(pass *models.AccessPass, resident ResidentProjection) AccessPassView {
	view := AccessPassView{
		ID:          pass.ID,
		VisitorName: pass.VisitorName,
		Name:        resident.Name,
		Location:    resident.Location,
		Pin:         pass.AccessCode,
		QRCode:      pass.QRCode,
		Status:      pass.Status,
		CreatedAt:   pass.CreatedAt,
		AccessType:  pass.AccessType,
	}

	switch v := pass.Validity().(type) {
	case models.TimeBoundValidity:
		view.ValidFrom = v.Date
		view.ValidTimeFrom = v.TimeFrom
		view.ValidTimeTo = v.TimeTo
	case models.DateRangeValidity:
		view.ValidFrom = v.DateFrom
		view.ValidTo = v.DateTo
	case models.UsageLimitValidity:
		limit, count := v.Limit, v.Count
		view.UsageLimit = &limit
		view.UsageCount = &count
	}
	return view
}

func toCreatedView(pass *models.AccessPass) *AccessPassCreated {
	return &AccessPassCreated{
		ID:            pass.ID,
		VisitorName:   pass.VisitorName,
		AccessCode:    pass.AccessCode,
		QRCode:        pass.QRCode,
		Status:        pass.Status,
		CreatedAt:     pass.CreatedAt,
		AccessType:    pass.AccessType,
		Date:          pass.VisitDate,
		TimeFrom:      pass.TimeFrom,
		TimeTo:        pass.TimeTo,
		DateFrom:      pass.DateFrom,
		DateTo:        pass.DateTo,
		UsageLimit:    pass.UsageLimit,
		AccessMethod:  pass.AccessMethod,
		Notifications: pass.Notifications,
	}
}
