package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"visitor-pass-service/internal/infrastructure/config"
)

// Message 待发送的 HTML 邮件
type Message struct {
	To      string
	Subject string
	HTML    string
}

// SMTPMailer 通过 SMTP 发送邮件
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	replyTo  string
	timeout  time.Duration
}

// NewSMTPMailer 根据配置创建邮件发送器
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	timeout := cfg.SMTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		replyTo:  cfg.SMTPReplyTo,
		timeout:  timeout,
	}
}

// Send 建立连接并发送一封邮件，超时由 SMTP_TIMEOUT 控制
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	message, err := m.buildMessage(msg)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(m.port),
		gomail.WithTimeout(m.timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.username),
			gomail.WithPassword(m.password),
		)
	}

	client, err := gomail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("创建SMTP客户端失败: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := client.DialAndSendWithContext(sendCtx, message); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(msg Message) (*gomail.Msg, error) {
	message := gomail.NewMsg()
	if err := message.From(m.from); err != nil {
		return nil, fmt.Errorf("发件人地址无效: %w", err)
	}
	if err := message.To(msg.To); err != nil {
		return nil, fmt.Errorf("收件人地址无效: %w", err)
	}
	if m.replyTo != "" {
		if err := message.ReplyTo(m.replyTo); err != nil {
			return nil, fmt.Errorf("回复地址无效: %w", err)
		}
	}
	message.Subject(msg.Subject)
	message.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	return message, nil
}
