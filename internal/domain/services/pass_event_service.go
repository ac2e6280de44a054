package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"visitor-pass-service/internal/domain/models"
	Logger "visitor-pass-service/pkg/logger"
)

// 通行证生命周期事件类型
const (
	PassEventCreated   = "pass.created"
	PassEventCancelled = "pass.cancelled"
	PassEventExpired   = "pass.expired"
	PassEventRedeemed  = "pass.redeemed"
)

// MessagePublisher 消息总线的发布端，MQTT 客户端实现该接口
type MessagePublisher interface {
	Publish(topic string, payload interface{}) error
}

// PassEvent 发布到 <prefix>/events 主题的消息体
type PassEvent struct {
	EventID       string                  `json:"event_id"`
	Type          string                  `json:"type"`
	PassID        uint                    `json:"pass_id"`
	ResidentID    uint                    `json:"resident_id"`
	VisitorName   string                  `json:"visitor_name"`
	AccessType    models.AccessType       `json:"access_type"`
	AccessMethod  models.PassAccessMethod `json:"access_method"`
	Status        models.PassStatus       `json:"status"`
	Notifications bool                    `json:"notifications"`
	Timestamp     int64                   `json:"timestamp"`
}

// InterfacePassEventService 发布通行证生命周期事件
type InterfacePassEventService interface {
	Publish(ctx context.Context, eventType string, pass *models.AccessPass)
}

// PassEventService 尽力而为地发布事件，失败只记录日志
type PassEventService struct {
	Publisher   MessagePublisher
	TopicPrefix string
	Now         func() time.Time
}

// NewPassEventService publisher 为 nil 时事件被丢弃
func NewPassEventService(publisher MessagePublisher, topicPrefix string) InterfacePassEventService {
	if topicPrefix == "" {
		topicPrefix = "access_pass"
	}
	return &PassEventService{Publisher: publisher, TopicPrefix: topicPrefix, Now: time.Now}
}

// Topic 所有事件共用的主题
func (s *PassEventService) Topic() string {
	return s.TopicPrefix + "/events"
}

// Publish 发布事件
func (s *PassEventService) Publish(ctx context.Context, eventType string, pass *models.AccessPass) {
	if s.Publisher == nil || pass == nil {
		return
	}

	event := PassEvent{
		EventID:       uuid.New().String(),
		Type:          eventType,
		PassID:        pass.ID,
		ResidentID:    pass.ResidentID,
		VisitorName:   pass.VisitorName,
		AccessType:    pass.AccessType,
		AccessMethod:  pass.AccessMethod,
		Status:        pass.Status,
		Notifications: pass.Notifications,
		Timestamp:     s.Now().UnixMilli(),
	}

	if err := s.Publisher.Publish(s.Topic(), event); err != nil {
		Logger.WithContext(ctx).Warnf("发布通行证事件失败: type=%s, pass=%d, err=%v", eventType, pass.ID, err)
	}
}
