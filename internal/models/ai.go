package models

// AI 服务提供商常量
const (
	AIProviderGemini = "gemini"
	AIProviderOpenAI = "openai"
)

// AIConfig AI 服务配置
type AIConfig struct {
	Provider  string `json:"provider" yaml:"provider"` // gemini / openai（兼容接口）
	ModelName string `json:"modelName" yaml:"model"`   // 模型名称
	APIKey    string `json:"apiKey" yaml:"api_key"`    // API 密钥
	BaseURL   string `json:"baseUrl" yaml:"base_url"`  // 自定义接口地址（OpenAI 兼容服务）
}
