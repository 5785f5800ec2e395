// Package telegram Telegram Bot 消息推送
//
// 仅封装 sendMessage 一个能力，机器人指令菜单不在本服务范围内
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// requestTimeout 推送超时
const requestTimeout = 5 * time.Second

// Client Telegram Bot API 客户端
type Client struct {
	client   *resty.Client
	botToken string
}

// NewClient 创建客户端，botToken 为空时返回 nil，调用方按未启用处理
func NewClient(botToken string) *Client {
	if botToken == "" {
		return nil
	}
	return &Client{
		client: resty.New().
			SetBaseURL("https://api.telegram.org").
			SetTimeout(requestTimeout),
		botToken: botToken,
	}
}

// apiResponse Bot API 通用应答
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage 向指定会话发送文本消息
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	var result apiResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id": chatID,
			"text":    text,
		}).
		SetResult(&result).
		Post(fmt.Sprintf("/bot%s/sendMessage", c.botToken))
	if err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram send message failed: %s (http %d)", result.Description, resp.StatusCode())
	}
	return nil
}
