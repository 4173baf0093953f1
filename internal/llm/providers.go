package llm

import (
	"fmt"
	"os"

	"github.com/run-bigpig/fgsim/internal/models"
)

// ProviderInfo OpenAI 兼容服务的接入信息
type ProviderInfo struct {
	BaseURL      string
	EnvKey       string
	DefaultModel string
}

// Providers 内置服务商注册表（短名 → 接入信息）
var Providers = map[string]ProviderInfo{
	"groq": {
		BaseURL:      "https://api.groq.com/openai/v1",
		EnvKey:       "GROQ_API_KEY",
		DefaultModel: "llama-3.3-70b-versatile",
	},
	"deepseek": {
		BaseURL:      "https://api.deepseek.com/v1",
		EnvKey:       "DEEPSEEK_API_KEY",
		DefaultModel: "deepseek-chat",
	},
	"openrouter": {
		BaseURL:      "https://openrouter.ai/api/v1",
		EnvKey:       "OPENROUTER_API_KEY",
		DefaultModel: "mistralai/mistral-nemo",
	},
	"moonshot": {
		BaseURL:      "https://api.moonshot.cn/v1",
		EnvKey:       "MOONSHOT_API_KEY",
		DefaultModel: "moonshot-v1-32k",
	},
	"gemini": {
		BaseURL:      "",
		EnvKey:       "GOOGLE_API_KEY",
		DefaultModel: "gemini-2.0-flash",
	},
}

// ResolveAIConfig 根据服务商短名解析 AI 配置
// modelName 为空时使用服务商默认模型，API 密钥从环境变量读取
func ResolveAIConfig(provider, modelName string) (*models.AIConfig, error) {
	info, ok := Providers[provider]
	if !ok {
		names := make([]string, 0, len(Providers))
		for name := range Providers {
			names = append(names, name)
		}
		return nil, &Error{Kind: KindFatal, Err: fmt.Errorf("unknown provider %q, choose from %v", provider, names)}
	}

	apiKey := os.Getenv(info.EnvKey)
	if apiKey == "" {
		return nil, &Error{Kind: KindFatal, Err: fmt.Errorf("no API key for provider %q, set %s", provider, info.EnvKey)}
	}

	if modelName == "" {
		modelName = info.DefaultModel
	}

	cfg := &models.AIConfig{
		Provider:  models.AIProviderOpenAI,
		ModelName: modelName,
		APIKey:    apiKey,
		BaseURL:   info.BaseURL,
	}
	if provider == "gemini" {
		cfg.Provider = models.AIProviderGemini
	}
	return cfg, nil
}
