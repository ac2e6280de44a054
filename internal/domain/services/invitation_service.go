package services

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strings"
	"time"

	"gorm.io/gorm"

	"visitor-pass-service/internal/domain/models"
	"visitor-pass-service/internal/infrastructure/mail"
	Logger "visitor-pass-service/pkg/logger"
	"visitor-pass-service/pkg/utils"
)

const (
	invitationSubject = "平台邀请 / Invitation to join"
	rollbackTimeout   = 5 * time.Second
)

var invitationTemplate = template.Must(template.New("invitation").Parse(`
<p>您已受邀加入访客通行平台。</p>
<p>登录信息：</p>
<p>邮箱: {{.Email}}</p>
<p>密码: {{.Password}}</p>
<p>请在首次登录后修改密码。</p>
`))

// InterfaceMailSender 邮件发送接口
type InterfaceMailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// InterfaceInvitationService 定义用户邀请服务接口
type InterfaceInvitationService interface {
	Invite(ctx context.Context, email, role string) (*InvitationResult, error)
}

// InvitedUser 邀请成功后返回的用户信息
type InvitedUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// InvitationResult 邀请结果
type InvitationResult struct {
	Message string      `json:"message"`
	User    InvitedUser `json:"user"`
}

// InvitationService 创建账号并发送带初始密码的邀请邮件
type InvitationService struct {
	DB      *gorm.DB
	Mailer  InterfaceMailSender
	Metrics *Metrics
}

// NewInvitationService 创建用户邀请服务
func NewInvitationService(db *gorm.DB, mailer InterfaceMailSender, metrics *Metrics) InterfaceInvitationService {
	return &InvitationService{DB: db, Mailer: mailer, Metrics: metrics}
}

// Invite 邮件发送失败时删除刚创建的用户
func (s *InvitationService) Invite(ctx context.Context, email, role string) (*InvitationResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	role = strings.TrimSpace(role)
	if email == "" {
		return nil, newValidationError("邮箱不能为空")
	}
	if role == "" {
		return nil, newValidationError("角色不能为空")
	}

	db := s.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserAlreadyExist
	}

	var roleEntity models.Role
	if err := db.Where("type = ?", role).First(&roleEntity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	password, err := utils.RandomHex(16)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:  email,
		Email:     email,
		Password:  password,
		Provider:  "local",
		Confirmed: true,
		RoleID:    roleEntity.ID,
	}
	if err := db.Create(&user).Error; err != nil {
		Logger.WithContext(ctx).Errorf("创建受邀用户失败: %v", err)
		return nil, err
	}

	body, err := renderInvitation(email, password)
	if err == nil {
		err = s.Mailer.Send(ctx, mail.Message{To: email, Subject: invitationSubject, HTML: body})
	}
	if err != nil {
		Logger.WithContext(ctx).Errorf("发送邀请邮件失败: email=%s, err=%v", email, err)
		if delErr := s.rollbackUser(ctx, user.ID); delErr != nil {
			Logger.WithContext(ctx).Errorf("回滚受邀用户 %d 失败: %v", user.ID, delErr)
		}
		s.Metrics.invitation("failure")
		return nil, ErrInvitationEmail
	}

	s.Metrics.invitation("success")
	Logger.WithContext(ctx).Infof("已邀请用户 %s, 角色 %s", email, role)
	return &InvitationResult{
		Message: "Invitation sent successfully",
		User:    InvitedUser{ID: user.ID, Email: user.Email},
	}, nil
}

// rollbackUser 不受请求取消影响，请求已断开时仍需删除未收到凭据的账号
func (s *InvitationService) rollbackUser(ctx context.Context, userID uint) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	return s.DB.WithContext(ctx).Delete(&models.User{}, userID).Error
}

func renderInvitation(email, password string) (string, error) {
	var buf bytes.Buffer
	err := invitationTemplate.Execute(&buf, struct {
		Email    string
		Password string
	}{email, password})
	return buf.String(), err
}
