package discussion

import (
	"fmt"
	"strings"

	"github.com/run-bigpig/fgsim/internal/models"
	"github.com/run-bigpig/fgsim/internal/persona"
)

// buildPersonaSystemPrompt 构建参与者的系统提示词
// 人格用自然语言描述，不向模型暴露任何数值分数
func buildPersonaSystemPrompt(p *models.Persona, currentValence float64) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("你是「%s」，一位参加产品焦点小组座谈的普通消费者。\n\n", p.Name))

	sb.WriteString("## 你的身份\n")
	sb.WriteString(fmt.Sprintf("- 年龄: %d 岁\n", p.Demographics.Age))
	sb.WriteString(fmt.Sprintf("- 职业: %s\n", p.Demographics.Occupation))
	sb.WriteString(fmt.Sprintf("- 所在城市: %s\n\n", p.Demographics.City))

	sb.WriteString("## 你的性格\n")
	for _, line := range describePersonality(p.Ocean) {
		sb.WriteString("- " + line + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## 你的说话方式\n")
	sb.WriteString(fmt.Sprintf("- 你%s。\n", persona.StyleText(p.Voice.Style)))
	sb.WriteString(fmt.Sprintf("- 你%s。\n\n", persona.VerbosityText(p.Voice.Verbosity)))

	sb.WriteString("## 你对这个产品概念的内心态度（不要直接念出来）\n")
	sb.WriteString(p.InitialOpinion + "\n")
	sb.WriteString(fmt.Sprintf("经过前面的讨论，你现在的倾向是%s。\n\n", valenceText(currentValence)))

	sb.WriteString("## 规则\n")
	sb.WriteString("1. 始终保持角色，像真人一样自然地口语化表达\n")
	sb.WriteString("2. 每次发言 1-4 句话\n")
	sb.WriteString("3. 不要刻意附和，性格里有不同意见就明确说出来\n")
	sb.WriteString("4. 别人说过的观点可以回应、补充或反驳\n")
	return sb.String()
}

// describePersonality 把大五人格翻译成行为线索
func describePersonality(ocean models.OceanScores) []string {
	lines := make([]string, 0, 5)

	switch {
	case ocean.Openness >= 80:
		lines = append(lines, "你天生好奇，乐意尝试没用过的新产品和新想法")
	case ocean.Openness >= 50:
		lines = append(lines, "你务实为主，偶尔也会对新东西动心")
	default:
		lines = append(lines, "你偏好熟悉、经过验证的选择，对新事物比较谨慎")
	}

	switch {
	case ocean.Conscientiousness >= 80:
		lines = append(lines, "你做事有条理，买东西之前会仔细计划和比较")
	case ocean.Conscientiousness >= 50:
		lines = append(lines, "你有一定计划性，但必要时也灵活")
	default:
		lines = append(lines, "你比较随性，不太纠结于周密的计划")
	}

	switch {
	case ocean.Extraversion >= 70:
		lines = append(lines, "你在人群里精力充沛，抢着发言，习惯带节奏")
	case ocean.Extraversion >= 40:
		lines = append(lines, "你社交上张弛有度，有话可说时才开口")
	default:
		lines = append(lines, "你偏内向，不被点名一般说得很简短")
	}

	switch {
	case ocean.Agreeableness >= 70:
		lines = append(lines, "你乐于配合，倾向于跟大家找共同点")
	case ocean.Agreeableness >= 30:
		lines = append(lines, "你待人客气，但该反对的时候还是会反对")
	default:
		lines = append(lines, "你很有主见，不会为了气氛而附和别人")
	}

	switch {
	case ocean.Neuroticism >= 70:
		lines = append(lines, "你容易担心风险和坏结果，需要被说服才放心")
	case ocean.Neuroticism >= 40:
		lines = append(lines, "你会注意风险，但通常不过度焦虑")
	default:
		lines = append(lines, "你情绪稳定，不太被不确定性干扰")
	}

	return lines
}

// valenceText 态度倾向的中文描述
func valenceText(valence float64) string {
	switch {
	case valence > 0.5:
		return "明显正面"
	case valence > 0.15:
		return "偏正面"
	case valence < -0.5:
		return "明显负面"
	case valence < -0.15:
		return "偏负面"
	default:
		return "中立摇摆"
	}
}

// buildParticipantUserPrompt 构建参与者的回答提示词
func buildParticipantUserPrompt(phase Phase, contextText, question string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("讨论环节: %s\n\n", phase))
	sb.WriteString("## 讨论上下文\n")
	sb.WriteString(contextText + "\n\n")
	sb.WriteString("## 主持人的问题\n")
	sb.WriteString(question + "\n\n")
	sb.WriteString("## 要求\n")
	sb.WriteString("- 用 1-4 句话回答\n")
	sb.WriteString("- 与你的性格和说话方式保持一致\n")
	sb.WriteString("- 合适的时候回应其他人说过的话（赞同、反驳或补充）\n")
	sb.WriteString("- 只输出发言内容本身\n")
	return sb.String()
}

// buildModeratorQuestionPrompt 构建主持人出题提示词
func buildModeratorQuestionPrompt(cfg *Config, phase Phase, index int, summary string) string {
	stimulus := cfg.StimulusMaterial
	if stimulus == "" {
		stimulus = "无"
	}
	var sb strings.Builder
	sb.WriteString("你是一场市场调研焦点小组的主持人。\n\n")
	sb.WriteString(fmt.Sprintf("当前环节: %s\n", phase))
	sb.WriteString(fmt.Sprintf("这是本环节的第 %d 个问题\n", index+1))
	sb.WriteString(fmt.Sprintf("产品概念: %s\n", cfg.ProductConcept))
	sb.WriteString(fmt.Sprintf("产品品类: %s\n", cfg.Category))
	sb.WriteString(fmt.Sprintf("刺激材料: %s\n\n", stimulus))
	sb.WriteString("## 讨论进展\n")
	sb.WriteString(summary + "\n\n")
	sb.WriteString("## 各环节出题要点\n")
	sb.WriteString("- warmup: 问一个轻松的开场问题，聊个人的品类消费经历\n")
	sb.WriteString("- exploration: 问开放式的联想和期待\n")
	sb.WriteString("- deep_dive: 追问功能、价格、信任、障碍和取舍\n")
	sb.WriteString("- reaction: 问对刺激材料的直接反应和下一步行动\n")
	sb.WriteString("- synthesis: 问最终决定、购买意愿和关键理由\n\n")
	sb.WriteString("只输出一个口语化的主持人问题。")
	return sb.String()
}

// 各环节的兜底问题模板（生成失败时使用，保证讨论可以继续）
var fallbackQuestions = map[Phase][2]string{
	PhaseWarmup: {
		"咱们先轻松一点，平时大家买这类产品是怎么挑的？",
		"开场先聊聊，最近一次买这类东西是什么体验？",
	},
	PhaseExploration: {
		"听到这个概念，各位脑子里冒出来的第一个念头是什么？",
		"这个想法给你们什么期待，又有什么顾虑？",
	},
	PhaseDeepDive: {
		"落到具体的功能和价格上，哪一点对你们最关键？",
		"要让你们真正信任这个产品，还需要什么？",
	},
	PhaseReaction: {
		"看完这些材料，你们的第一反应是什么？",
		"基于刚才的信息，你们会认真考虑它吗，为什么？",
	},
	PhaseSynthesis: {
		"最后：如果明天就能买到，你们会买吗，最主要的理由是什么？",
		"收个尾，这个产品到底适合谁，你们自己愿意掏钱吗？",
	},
}
