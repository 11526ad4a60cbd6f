package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// DefaultModel is the format-oriented model used when a request names none.
const DefaultModel = "claude-haiku-4-5-20251001"

// systemCacheTTL is the ephemeral cache lifetime for cached system prompts.
const systemCacheTTL = "5m"

// Client sends single-turn prompts to the Messages API.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest is one single-turn prompt.
type MessageRequest struct {
	Model     string
	MaxTokens int64
	System    string
	// CacheSystem marks System as a prompt-cache breakpoint. Worth it when
	// the same system prompt is sent many times within a few minutes.
	CacheSystem bool
	Prompt      string
	Temperature *float64
}

// MessageResponse carries the model's reply and token accounting.
type MessageResponse struct {
	ID         string
	Model      string
	StopReason string
	Blocks     []Block
	Usage      Usage
}

// Block is one content block of a reply.
type Block struct {
	Type string
	Text string
}

// Usage counts tokens by billing class.
type Usage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
}

// PromptTokens is every input token regardless of cache state.
func (u Usage) PromptTokens() int64 {
	return u.InputTokens + u.CacheWriteTokens + u.CacheReadTokens
}

// Text joins the reply's text blocks, skipping thinking and tool blocks.
func (r *MessageResponse) Text() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, blk := range r.Blocks {
		if blk.Type == "text" {
			b.WriteString(blk.Text)
		}
	}
	return b.String()
}

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic: unexpected status %d: %v", e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// HTTPStatus returns the upstream status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

type sdkClient struct {
	client sdk.Client
}

// NewClient creates a client backed by anthropic-sdk-go. SDK retries are
// off: a failing call moves on to the next provider instead.
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	return &sdkClient{client: sdk.NewClient(append(base, opts...)...)}
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	msg, err := c.client.Messages.New(ctx, newParams(req))
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, &APIError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return nil, eris.Wrap(err, "anthropic: create message")
	}
	return newResponse(msg), nil
}

func newParams(req MessageRequest) sdk.MessageNewParams {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: req.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.System != "" {
		sys := sdk.TextBlockParam{Text: req.System}
		if req.CacheSystem {
			cc := sdk.NewCacheControlEphemeralParam()
			cc.TTL = sdk.CacheControlEphemeralTTL(systemCacheTTL)
			sys.CacheControl = cc
		}
		params.System = []sdk.TextBlockParam{sys}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	return params
}

func newResponse(msg *sdk.Message) *MessageResponse {
	out := &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		StopReason: string(msg.StopReason),
		Blocks:     make([]Block, 0, len(msg.Content)),
		Usage: Usage{
			InputTokens:      msg.Usage.InputTokens,
			OutputTokens:     msg.Usage.OutputTokens,
			CacheWriteTokens: msg.Usage.CacheCreationInputTokens,
			CacheReadTokens:  msg.Usage.CacheReadInputTokens,
		},
	}
	for _, b := range msg.Content {
		out.Blocks = append(out.Blocks, Block{Type: b.Type, Text: b.Text})
	}
	return out
}
