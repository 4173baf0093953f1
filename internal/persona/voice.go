package persona

import (
	"github.com/run-bigpig/fgsim/internal/models"
)

// deriveVoice 从人格得分推导表达风格
func deriveVoice(demo models.Demographics, ocean models.OceanScores) models.VoiceProfile {
	return models.VoiceProfile{
		Style:      voiceStyle(ocean),
		Verbosity:  verbosity(ocean.Extraversion),
		Vocabulary: vocabulary(demo.Occupation),
		Hedging:    models.Norm(ocean.Neuroticism) * models.Norm(ocean.Agreeableness),
	}
}

// voiceStyle 主导表达风格
func voiceStyle(ocean models.OceanScores) string {
	switch {
	case ocean.Conscientiousness >= 65 && ocean.Openness >= 55:
		return "analytical"
	case ocean.Agreeableness >= 65:
		return "diplomatic"
	case ocean.Extraversion >= 65 && ocean.Openness >= 55:
		return "storytelling"
	default:
		return "direct"
	}
}

// verbosity 话量倾向
func verbosity(extraversion float64) string {
	switch {
	case extraversion >= 67:
		return "verbose"
	case extraversion <= 38:
		return "terse"
	default:
		return "moderate"
	}
}

// vocabulary 用词水平，按职业粗分
func vocabulary(occupation string) string {
	switch occupation {
	case "软件工程师", "产品经理", "财务会计", "中学教师":
		return "advanced"
	case "公务员", "市场专员", "销售经理", "自由设计师", "护士":
		return "moderate"
	default:
		return "basic"
	}
}

// StyleText 风格的中文描述（用于提示词）
func StyleText(style string) string {
	switch style {
	case "analytical":
		return "条理清晰、喜欢摆事实讲逻辑"
	case "diplomatic":
		return "委婉周到、注意照顾别人的感受"
	case "storytelling":
		return "爱举例子、喜欢讲自己的经历"
	default:
		return "直来直去、想到什么说什么"
	}
}

// VerbosityText 话量的中文描述（用于提示词）
func VerbosityText(verbosity string) string {
	switch verbosity {
	case "verbose":
		return "话比较多，愿意展开说"
	case "terse":
		return "话少，不问不主动说"
	default:
		return "话量适中"
	}
}
