package discussion

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/run-bigpig/fgsim/internal/models"
)

// runNamespace 生成讨论 ID 的固定命名空间，同配置同种子得到同一 ID
var runNamespace = uuid.MustParse("7c9e6f54-12d3-45b6-9a1f-0e8b5c3d2a91")

// Transcript 一场讨论的完整记录，中途中止时已有内容仍然有效
type Transcript struct {
	RunID       string           `json:"runId"`
	Config      Config           `json:"config"`
	Personas    []models.Persona `json:"personas"`
	Messages    []Message        `json:"messages"`
	Snapshots   []StateSnapshot  `json:"snapshots"`
	Aborted     bool             `json:"aborted,omitempty"`
	AbortReason string           `json:"abortReason,omitempty"`
}

// NewRunID 根据配置生成确定性的讨论 ID
func NewRunID(cfg *Config) string {
	key := fmt.Sprintf("%s|%s|%d|%d", cfg.ProductConcept, cfg.Category, cfg.NumParticipants, cfg.Seed)
	return uuid.NewSHA1(runNamespace, []byte(key)).String()
}

// Recorder 按轮次顺序收集消息，轮次号从 0 开始逐条递增
type Recorder struct {
	messages []Message
}

// NextTurn 下一条消息应使用的轮次号
func (r *Recorder) NextTurn() int {
	return len(r.messages)
}

// Append 追加一条消息，轮次号不连续时纠正并告警
func (r *Recorder) Append(msg Message) Message {
	if want := len(r.messages); msg.TurnNumber != want {
		log.Warn("turn number %d out of sequence, expected %d, corrected", msg.TurnNumber, want)
		msg.TurnNumber = want
	}
	r.messages = append(r.messages, msg)
	return msg
}

// Messages 已记录的全部消息
func (r *Recorder) Messages() []Message {
	return r.messages
}

// ToJSON 序列化为带缩进的 JSON
func (t *Transcript) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FromJSON 从 JSON 恢复讨论记录
func FromJSON(data []byte) (*Transcript, error) {
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("解析讨论记录失败: %w", err)
	}
	return &t, nil
}

// ToMarkdown 渲染为人类可读的 Markdown 纪要
func (t *Transcript) ToMarkdown() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# 焦点小组讨论纪要: %s\n\n", t.Config.ProductConcept))
	sb.WriteString(fmt.Sprintf("- 品类: %s\n", t.Config.Category))
	sb.WriteString(fmt.Sprintf("- 参与者: %d 人\n", len(t.Personas)))
	sb.WriteString(fmt.Sprintf("- 讨论 ID: %s\n", t.RunID))
	if t.Aborted {
		sb.WriteString(fmt.Sprintf("- 状态: 中止（%s）\n", t.AbortReason))
	}
	sb.WriteString("\n## 参与者\n\n")
	for _, p := range t.Personas {
		sb.WriteString(fmt.Sprintf("- **%s** | %d 岁 | %s | %s\n",
			p.Name, p.Demographics.Age, p.Demographics.Occupation, p.Demographics.City))
	}

	var current Phase
	for _, msg := range t.Messages {
		if msg.Phase != current {
			current = msg.Phase
			sb.WriteString(fmt.Sprintf("\n## %s\n\n", current.DisplayName()))
		}
		switch msg.Role {
		case RoleModerator:
			sb.WriteString(fmt.Sprintf("**主持人**: %s\n\n", msg.Content))
		case RoleSystem:
			sb.WriteString(fmt.Sprintf("> %s\n\n", msg.Content))
		default:
			marker := ""
			if msg.ChangedMind {
				marker = " ♻"
			}
			sb.WriteString(fmt.Sprintf("**%s**%s: %s\n\n", msg.SpeakerName, marker, msg.Content))
		}
	}

	if len(t.Snapshots) > 0 {
		sb.WriteString("## 态度变化\n\n")
		sb.WriteString("| 参与者 | 初始态度 | 最终态度 | 发言次数 | 改变主意 |\n")
		sb.WriteString("|--------|----------|----------|----------|----------|\n")
		for _, s := range t.Snapshots {
			sb.WriteString(fmt.Sprintf("| %s | %+.2f | %+.2f | %d | %d |\n",
				s.Name, s.InitialValence, s.FinalValence, s.SpeakCount, s.ChangedMindCount))
		}
	}
	return sb.String()
}
