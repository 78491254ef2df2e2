package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Message 是对话中的一条消息，Role 为 user 或 assistant。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply 是返回给聊天窗口的回答；Offline 表示来自本地关键词表。
type Reply struct {
	Text    string `json:"text"`
	Offline bool   `json:"offline"`
}

const systemPrompt = "You are the EzBuild assistant. Help customers choose PC components, " +
	"compare builds and understand ordering, deposits, shipping and warranty. Answer briefly."

// Responder 把对话转发到生成式模型；未配置或调用失败时走离线回复。
type Responder struct {
	url    string
	apiKey string
	client *http.Client
	logger *slog.Logger
}

func NewResponder(url, apiKey string, client *http.Client, logger *slog.Logger) *Responder {
	return &Responder{url: url, apiKey: apiKey, client: client, logger: logger}
}

func (r *Responder) Reply(ctx context.Context, history []Message, message string) Reply {
	message = strings.TrimSpace(message)
	if r.url == "" {
		return Reply{Text: Offline(message), Offline: true}
	}
	text, err := r.ask(ctx, history, message)
	if err != nil {
		r.logger.Warn("chat api failed, using offline reply", "error", err)
		return Reply{Text: Offline(message), Offline: true}
	}
	return Reply{Text: text}
}

type completionRequest struct {
	Messages []Message `json:"messages"`
}

// completionResponse 兼容 {"reply": "..."} 和 choices[0].message.content 两种返回。
type completionResponse struct {
	Reply   string `json:"reply"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (r *Responder) ask(ctx context.Context, history []Message, message string) (string, error) {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: systemPrompt})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: message})

	body, err := json.Marshal(completionRequest{Messages: msgs})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat api status=%d body=%s", resp.StatusCode, b)
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	text := out.Reply
	if text == "" && len(out.Choices) > 0 {
		text = out.Choices[0].Message.Content
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("chat api returned empty reply")
	}
	return text, nil
}
