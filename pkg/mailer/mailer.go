package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"

	"mtrbac/pkg/config"
	"mtrbac/pkg/logger"

	"github.com/mrz1836/postmark"
)

var ErrSendFailed = errors.New("failed to send email")

// Message 一封邮件
type Message struct {
	To       string
	Subject  string
	Tag      string
	HTMLBody string
}

// Sender 发信接口
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New 配置了 Postmark 令牌时走 Postmark，否则只记日志
func New(cfg config.MailConfig) Sender {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		logger.GetLogger().Warn("Postmark tokens not configured, emails will only be logged")
		return &LogSender{}
	}
	return NewPostmarkSender(cfg)
}

// PostmarkSender 基于 Postmark 的事务邮件
type PostmarkSender struct {
	client  *postmark.Client
	from    string
	replyTo string
}

func NewPostmarkSender(cfg config.MailConfig) *PostmarkSender {
	return &PostmarkSender{
		client:  postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:    cfg.Sender,
		replyTo: cfg.Support,
	}
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       s.from,
		ReplyTo:    s.replyTo,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTMLBody,
		TrackOpens: true,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

// LogSender 本地开发用，邮件写入日志
type LogSender struct {
	mu   sync.Mutex
	Sent []Message
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	s.Sent = append(s.Sent, msg)
	s.mu.Unlock()
	logger.GetLogger().WithFields(map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
		"tag":     msg.Tag,
	}).Info("Email not sent (log sender)")
	return nil
}

var verificationTmpl = template.Must(template.New("verify").Parse(
	`<p>Hello {{.Name}},</p>
<p>Thank you for registering <strong>{{.Company}}</strong>. Please verify your email address:</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>This link expires in {{.Expiry}}.</p>`))

// VerificationEmail 租户注册验证邮件
func VerificationEmail(to, name, company, link, expiry string) (Message, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, map[string]string{
		"Name":    name,
		"Company": company,
		"Link":    link,
		"Expiry":  expiry,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:       to,
		Subject:  "Verify your email",
		Tag:      "tenant-verification",
		HTMLBody: buf.String(),
	}, nil
}
