package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/johncui/vega/pkg/model"
)

type ClaudeClient struct {
	client *anthropic.Client
}

func NewClaudeClient(apiKey string, baseURL string) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeClient{client: anthropic.NewClient(apiKey, opts...)}
}

func (c *ClaudeClient) Complete(ctx context.Context, req model.CompletionRequest) (string, error) {
	system, msgs := toClaudeMessages(req.Turns)
	if len(msgs) == 0 {
		return "", fmt.Errorf("no user message to send")
	}
	temperature := req.Temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(req.Model),
		System:      system,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", fmt.Errorf("no response content")
}

// toClaudeMessages lifts system turns into the system prompt and merges
// consecutive turns of the same role, since the messages API requires
// alternating roles starting with the user.
func toClaudeMessages(turns []model.Turn) (string, []anthropic.Message) {
	var system string
	var msgs []anthropic.Message
	for _, t := range turns {
		if t.Role == model.RoleSystem {
			if system != "" {
				system += "\n"
			}
			system += t.Content
			continue
		}
		role := anthropic.RoleUser
		if t.Role == model.RoleAssistant {
			role = anthropic.RoleAssistant
		}
		if len(msgs) == 0 && role != anthropic.RoleUser {
			continue
		}
		content := toClaudeContent(t)
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content = append(msgs[n-1].Content, content...)
			continue
		}
		msgs = append(msgs, anthropic.Message{Role: role, Content: content})
	}
	return system, msgs
}

func toClaudeContent(t model.Turn) []anthropic.MessageContent {
	if len(t.Parts) == 0 {
		return []anthropic.MessageContent{anthropic.NewTextMessageContent(t.Content)}
	}
	var out []anthropic.MessageContent
	for _, p := range t.Parts {
		switch p.Type {
		case model.PartText:
			out = append(out, anthropic.NewTextMessageContent(p.Text))
		case model.PartImage:
			mediaType, data, ok := parseDataURL(p.ImageURL)
			if !ok {
				continue
			}
			out = append(out, anthropic.NewImageMessageContent(
				anthropic.NewMessageContentSource(anthropic.MessagesContentSourceTypeBase64, mediaType, data),
			))
		}
	}
	return out
}

var _ model.ModelClient = (*ClaudeClient)(nil)
