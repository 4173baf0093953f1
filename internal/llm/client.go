package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	go_openai "github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ErrorKind 生成失败类别
type ErrorKind int

const (
	// KindTransient 瞬时失败：超时、限流、服务端错误，可跳过继续
	KindTransient ErrorKind = iota
	// KindFatal 致命失败：鉴权、配置错误，立即中止
	KindFatal
)

// Error 生成能力的分类错误
// 调用方通过 Kind 分支处理，不检查错误字符串
type Error struct {
	Kind ErrorKind
	Err  error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Kind == KindFatal {
		return fmt.Sprintf("generation fatal: %v", e.Err)
	}
	return fmt.Sprintf("generation transient: %v", e.Err)
}

// Unwrap 支持 errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient 判断是否为瞬时失败
func IsTransient(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindTransient
}

// IsFatal 判断是否为致命失败
func IsFatal(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindFatal
}

// Classify 将底层错误归类为瞬时/致命
// 401/403 为鉴权问题，429 为限流，5xx 与网络/超时按瞬时处理
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *go_openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return &Error{Kind: KindFatal, Err: err}
		case apiErr.HTTPStatusCode == 429:
			return &Error{Kind: KindTransient, Err: err}
		case apiErr.HTTPStatusCode >= 500:
			return &Error{Kind: KindTransient, Err: err}
		default:
			return &Error{Kind: KindFatal, Err: err}
		}
	}

	var reqErr *go_openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 401 || reqErr.HTTPStatusCode == 403 {
			return &Error{Kind: KindFatal, Err: err}
		}
		return &Error{Kind: KindTransient, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTransient, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindTransient, Err: err}
	}

	// 鉴权类错误消息兜底（部分兼容服务不返回标准错误结构）
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "authentication") {
		return &Error{Kind: KindFatal, Err: err}
	}

	return &Error{Kind: KindTransient, Err: err}
}

// Request 单次补全请求
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

// Completer 生成能力契约：唯一操作 Complete
type Completer interface {
	// Complete 发起补全，失败时返回 *Error（瞬时或致命）
	Complete(ctx context.Context, req Request) (string, error)
	// Name 返回模型标识
	Name() string
}

// ADKCompleter 基于 adk model.LLM 的 Completer 实现
type ADKCompleter struct {
	llm model.LLM
}

// NewADKCompleter 封装一个 adk 模型
func NewADKCompleter(llm model.LLM) *ADKCompleter {
	return &ADKCompleter{llm: llm}
}

// Name 返回模型标识
func (c *ADKCompleter) Name() string {
	return c.llm.Name()
}

// Complete 调用模型生成文本，跳过 thinking 片段
func (c *ADKCompleter) Complete(ctx context.Context, req Request) (string, error) {
	temp := req.Temperature
	llmReq := &model.LLMRequest{
		Contents: []*genai.Content{
			{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(req.UserPrompt)}},
		},
		Config: &genai.GenerateContentConfig{
			Temperature:     &temp,
			MaxOutputTokens: int32(req.MaxTokens),
		},
	}
	if req.SystemPrompt != "" {
		llmReq.Config.SystemInstruction = &genai.Content{
			Role:  "system",
			Parts: []*genai.Part{genai.NewPartFromText(req.SystemPrompt)},
		}
	}

	var result strings.Builder
	for resp, err := range c.llm.GenerateContent(ctx, llmReq, false) {
		if err != nil {
			return "", Classify(err)
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part.Thought {
				continue
			}
			if part.Text != "" {
				result.WriteString(part.Text)
			}
		}
	}

	return strings.TrimSpace(result.String()), nil
}
