package discussion

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/run-bigpig/fgsim/internal/llm"
)

// selectRespondents 重抽的最大次数，超过后直接修正集合大小
const maxSelectionAttempts = 8

// Moderator 焦点小组主持人，负责出题、点名、追问和选择回答者
type Moderator struct {
	cfg       *Config
	completer llm.Completer
	rng       *rand.Rand
}

// NewModerator 创建主持人
func NewModerator(cfg *Config, completer llm.Completer, rng *rand.Rand) *Moderator {
	return &Moderator{cfg: cfg, completer: completer, rng: rng}
}

// GenerateGuide 生成整场讨论的问题清单，顺序为 环节 x 每环节问题数
func (m *Moderator) GenerateGuide(ctx context.Context) []string {
	guide := make([]string, 0, len(m.cfg.Phases)*m.cfg.QuestionsPerPhase)
	for _, phase := range m.cfg.Phases {
		guide = append(guide, m.PhaseQuestions(ctx, phase, nil)...)
	}
	return guide
}

// PhaseQuestions 为一个环节生成该环节的全部问题，出题时能看到此前的讨论
// 单个问题生成失败不阻塞流程，退回该环节的内置模板
func (m *Moderator) PhaseQuestions(ctx context.Context, phase Phase, history []Message) []string {
	questions := make([]string, 0, m.cfg.QuestionsPerPhase)
	summary := summarizeRecent(history)
	for i := 0; i < m.cfg.QuestionsPerPhase; i++ {
		q, err := m.generateQuestion(ctx, phase, i, summary)
		if err != nil {
			q = fallbackQuestions[phase][i%2]
			log.Warn("phase %s question %d generation failed, using fallback: %v", phase, i, err)
		}
		questions = append(questions, q)
	}
	return questions
}

// generateQuestion 让模型以主持人身份出一个问题
func (m *Moderator) generateQuestion(ctx context.Context, phase Phase, index int, summary string) (string, error) {
	content, err := m.completer.Complete(ctx, llm.Request{
		UserPrompt:  buildModeratorQuestionPrompt(m.cfg, phase, index, summary),
		Temperature: m.cfg.Temperature,
		MaxTokens:   120,
	})
	if err != nil {
		return "", err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("主持人问题为空")
	}
	return content, nil
}

// DecorateQuestion 在问题上按概率点名沉默的参与者
// 发言占比落后越多，被点名的概率越高。返回问题文本和被点名者 ID
func (m *Moderator) DecorateQuestion(base string, participants []*Participant) (string, string) {
	quiet := quietestParticipant(participants)
	if quiet == nil {
		return base, ""
	}
	total := 0
	for _, p := range participants {
		total += p.State.SpeakCount
	}
	if total == 0 {
		return base, ""
	}
	avgRatio := 1.0 / float64(len(participants))
	ratio := float64(quiet.State.SpeakCount) / float64(total)
	prob := clampRange((avgRatio-ratio)*3, 0, 0.9)
	if m.rng.Float64() >= prob {
		return base, ""
	}
	return fmt.Sprintf("%s %s，也想听听你的看法。", base, quiet.Persona.Name), quiet.Persona.ID
}

// quietestParticipant 返回发言最少的参与者，并列时取靠前者
func quietestParticipant(participants []*Participant) *Participant {
	var quiet *Participant
	for _, p := range participants {
		if quiet == nil || p.State.SpeakCount < quiet.State.SpeakCount {
			quiet = p
		}
	}
	return quiet
}

// Followup 判断是否值得对刚结束的发言追问
// 发言情感显著偏离群体均值时按概率触发，返回追问文本
func (m *Moderator) Followup(last *Message, group GroupState) (string, bool) {
	if last == nil || last.Role != RoleParticipant || last.ExpressedSentiment == nil {
		return "", false
	}
	deviation := math.Abs(*last.ExpressedSentiment - group.Mean)
	if deviation <= FollowupThreshold {
		return "", false
	}
	if m.rng.Float64() >= 0.35 {
		return "", false
	}
	return fmt.Sprintf("%s，你这个看法跟其他人不太一样，能展开说说吗？", last.SpeakerName), true
}

// RecoveryQuestion 收尾阶段向全程没发言的参与者单独提问
func (m *Moderator) RecoveryQuestion(names []string) string {
	return fmt.Sprintf("结束前想听听还没发言的几位：%s，你们怎么看这个产品？", strings.Join(names, "、"))
}

// SelectRespondents 为一个问题挑选回答者集合
// 每人独立按概率抽签：外向性基线，逆主流且高信念加成，上一轮刚说过话的降权
// 集合大小越界时重抽，多次重抽仍越界则直接截断或补齐
func (m *Moderator) SelectRespondents(participants []*Participant, addressedID string, lastRound map[string]bool, group GroupState) []*Participant {
	n := len(participants)
	lo := 3
	if n < lo {
		lo = n
	}
	hi := m.cfg.MaxRespondents
	if hi > 6 {
		hi = 6
	}
	if hi > n {
		hi = n
	}
	if hi < lo {
		hi = lo
	}

	var selected []*Participant
	for attempt := 0; attempt < maxSelectionAttempts; attempt++ {
		selected = selected[:0]
		for _, p := range participants {
			addressed := p.Persona.ID == addressedID
			if p.ShouldSpeak(m.rng, m.speakProbability(p, lastRound, group), addressed) {
				selected = append(selected, p)
			}
		}
		if len(selected) >= lo && len(selected) <= hi {
			return selected
		}
	}

	if len(selected) > hi {
		total := 0
		for _, p := range participants {
			total += p.State.SpeakCount
		}
		// 保留影响力靠前的，确保被点名者不被挤掉
		sort.SliceStable(selected, func(i, j int) bool {
			if selected[i].Persona.ID == addressedID {
				return true
			}
			if selected[j].Persona.ID == addressedID {
				return false
			}
			return InfluenceScore(selected[i], total) > InfluenceScore(selected[j], total)
		})
		return selected[:hi]
	}

	// 人数不足，优先补入上一轮没说过话的
	in := make(map[string]bool, len(selected))
	for _, p := range selected {
		in[p.Persona.ID] = true
	}
	for _, p := range participants {
		if len(selected) >= lo {
			break
		}
		if !in[p.Persona.ID] && !lastRound[p.Persona.ID] {
			selected = append(selected, p)
			in[p.Persona.ID] = true
		}
	}
	for _, p := range participants {
		if len(selected) >= lo {
			break
		}
		if !in[p.Persona.ID] {
			selected = append(selected, p)
			in[p.Persona.ID] = true
		}
	}
	return selected
}

// speakProbability 单个参与者对当前问题的发言概率
func (m *Moderator) speakProbability(p *Participant, lastRound map[string]bool, group GroupState) float64 {
	prob := p.Persona.BaseSpeakProbability()
	if group.Dominant != DirectionMixed && p.Persona.Conviction > 0.6 {
		diverges := (group.Dominant == DirectionPositive && p.State.CurrentValence < 0) ||
			(group.Dominant == DirectionNegative && p.State.CurrentValence > 0)
		if diverges {
			prob += 0.15
		}
	}
	if lastRound[p.Persona.ID] {
		prob -= 0.2
	}
	return clampRange(prob, 0.05, 0.95)
}

// summarizeRecent 把最近的讨论压缩成给主持人看的摘要
func summarizeRecent(history []Message) string {
	if len(history) == 0 {
		return "（讨论尚未开始）"
	}
	start := 0
	if len(history) > 8 {
		start = len(history) - 8
	}
	var sb strings.Builder
	for _, msg := range history[start:] {
		if msg.Role != RoleParticipant {
			continue
		}
		content := []rune(msg.Content)
		if len(content) > 40 {
			content = content[:40]
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", msg.SpeakerName, string(content)))
	}
	if sb.Len() == 0 {
		return "（参与者尚未发言）"
	}
	return strings.TrimRight(sb.String(), "\n")
}
