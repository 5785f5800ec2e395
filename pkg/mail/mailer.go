// Package mail 邮件投递
//
// 模板的 HTML 渲染由独立的模板服务负责，这里只做投递；
// SMTP 驱动以纯文本形式兜底发送模板参数
package mail

import (
	"fmt"
	"net/smtp"
	"sort"
	"strings"
)

// Message 一封待投递的邮件
type Message struct {
	To            string            `json:"to"`
	Subject       string            `json:"subject"`
	TemplateName  string            `json:"template_name"`
	TemplateValue map[string]string `json:"template_value"`
}

// Mailer 邮件驱动接口
type Mailer interface {
	Send(message *Message) error
}

// SMTPConfig SMTP 配置
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	FromAddr string
	FromName string
}

// SMTPMailer 基于 net/smtp 的投递实现
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer 创建 SMTP 投递器
func NewSMTPMailer(config SMTPConfig) (*SMTPMailer, error) {
	if config.Host == "" || config.Port == "" || config.FromAddr == "" {
		return nil, fmt.Errorf("mail: incomplete smtp config (host=%q port=%q from=%q)",
			config.Host, config.Port, config.FromAddr)
	}
	return &SMTPMailer{config: config}, nil
}

// Send 投递邮件
func (m *SMTPMailer) Send(message *Message) error {
	body := m.plainTextBody(message)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n"+
		"%s",
		m.config.FromName, m.config.FromAddr, message.To, message.Subject, body))

	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)

	if err := smtp.SendMail(m.config.Host+":"+m.config.Port, auth, m.config.FromAddr, []string{message.To}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// plainTextBody 将模板参数按固定顺序拼为纯文本正文
func (m *SMTPMailer) plainTextBody(message *Message) string {
	keys := make([]string, 0, len(message.TemplateValue))
	for key := range message.TemplateValue {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(message.TemplateValue[key])
		builder.WriteString("\r\n")
	}
	return builder.String()
}
