package discussion

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/run-bigpig/fgsim/internal/llm"
)

// contextWindow 拼接上下文时保留的最近消息条数
const contextWindow = 16

// ShouldSpeak 决定参与者是否对当前问题发言
// 被主持人点名时必定发言，否则按概率抽签
func (p *Participant) ShouldSpeak(rng *rand.Rand, prob float64, addressed bool) bool {
	if addressed {
		return true
	}
	return rng.Float64() < prob
}

// Respond 生成参与者的一次发言，并推断其原始情感倾向
func (p *Participant) Respond(ctx context.Context, completer llm.Completer, cfg *Config, phase Phase, history []Message, question string) (string, float64, error) {
	system := buildPersonaSystemPrompt(&p.Persona, p.State.CurrentValence)
	user := buildParticipantUserPrompt(phase, formatContext(history), question)

	content, err := completer.Complete(ctx, llm.Request{
		SystemPrompt: system,
		UserPrompt:   user,
		Temperature:  cfg.Temperature,
		MaxTokens:    220,
	})
	if err != nil {
		return "", 0, fmt.Errorf("参与者 %s 发言生成失败: %w", p.Persona.Name, err)
	}
	return content, InferSentiment(content), nil
}

// formatContext 把最近的消息拼成可读的讨论上下文
func formatContext(history []Message) string {
	if len(history) == 0 {
		return "（讨论刚开始，暂无发言）"
	}
	start := 0
	if len(history) > contextWindow {
		start = len(history) - contextWindow
	}
	var sb strings.Builder
	for _, msg := range history[start:] {
		if msg.Role == RoleSystem {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", msg.SpeakerName, msg.Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// detectRepliedTo 检查发言是否明确回应了此前某位参与者
// 取最近被提到名字的那一位
func detectRepliedTo(content string, history []Message, selfID string) string {
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role != RoleParticipant || msg.SpeakerID == selfID {
			continue
		}
		if strings.Contains(content, msg.SpeakerName) {
			return msg.SpeakerID
		}
	}
	return ""
}
