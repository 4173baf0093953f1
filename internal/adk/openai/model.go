package openai

import (
	"context"
	"errors"
	"iter"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
)

var _ model.LLM = &OpenAIModel{}

var (
	ErrNoChoicesInResponse = errors.New("no choices in OpenAI response")
)

// OpenAIModel 实现 model.LLM 接口，对接 OpenAI 兼容服务
// 焦点小组发言按整条消费，不走流式
type OpenAIModel struct {
	Client    *openai.Client
	ModelName string
}

// NewOpenAIModel 创建 OpenAI 兼容模型
func NewOpenAIModel(modelName string, cfg openai.ClientConfig) *OpenAIModel {
	return &OpenAIModel{
		Client:    openai.NewClientWithConfig(cfg),
		ModelName: modelName,
	}
}

// Name 返回模型名称
func (o *OpenAIModel) Name() string {
	return o.ModelName
}

// GenerateContent 实现 model.LLM 接口
func (o *OpenAIModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		openaiReq, err := toOpenAIChatCompletionRequest(req, o.ModelName)
		if err != nil {
			yield(nil, err)
			return
		}

		resp, err := o.Client.CreateChatCompletion(ctx, openaiReq)
		if err != nil {
			yield(nil, err)
			return
		}

		llmResp, err := convertChatCompletionResponse(&resp)
		if err != nil {
			yield(nil, err)
			return
		}

		yield(llmResp, nil)
	}
}
