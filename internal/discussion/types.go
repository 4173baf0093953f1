package discussion

import (
	"errors"
	"fmt"
	"time"

	"github.com/run-bigpig/fgsim/internal/models"
)

// Phase 讨论环节
type Phase string

const (
	PhaseWarmup      Phase = "warmup"      // 暖场
	PhaseExploration Phase = "exploration" // 自由探索
	PhaseDeepDive    Phase = "deep_dive"   // 深入讨论
	PhaseReaction    Phase = "reaction"    // 呈现反应
	PhaseSynthesis   Phase = "synthesis"   // 总结收束
)

// DefaultPhases 默认的环节顺序
func DefaultPhases() []Phase {
	return []Phase{PhaseWarmup, PhaseExploration, PhaseDeepDive, PhaseReaction, PhaseSynthesis}
}

// DisplayName 环节的中文名称
func (p Phase) DisplayName() string {
	switch p {
	case PhaseWarmup:
		return "暖场"
	case PhaseExploration:
		return "自由探索"
	case PhaseDeepDive:
		return "深入讨论"
	case PhaseReaction:
		return "呈现反应"
	case PhaseSynthesis:
		return "总结收束"
	default:
		return string(p)
	}
}

// Role 消息角色
type Role string

const (
	RoleModerator   Role = "moderator"
	RoleParticipant Role = "participant"
	RoleSystem      Role = "system"
)

// Message 讨论中的一条消息
type Message struct {
	TurnNumber         int      `json:"turnNumber"`
	Role               Role     `json:"role"`
	SpeakerID          string   `json:"speakerId,omitempty"`
	SpeakerName        string   `json:"speakerName"`
	Phase              Phase    `json:"phase"`
	Content            string   `json:"content"`
	ExpressedSentiment *float64 `json:"expressedSentiment,omitempty"`
	RawSentiment       *float64 `json:"rawSentiment,omitempty"`
	RepliedTo          string   `json:"repliedTo,omitempty"`
	ChangedMind        bool     `json:"changedMind,omitempty"`
}

// ErrConfig 配置无效
var ErrConfig = errors.New("讨论配置无效")

// Config 一场焦点小组讨论的完整配置
type Config struct {
	ProductConcept         string        `json:"productConcept" yaml:"product_concept"`
	Category               string        `json:"category" yaml:"category"`
	StimulusMaterial       string        `json:"stimulusMaterial,omitempty" yaml:"stimulus"`
	NumParticipants        int           `json:"numParticipants" yaml:"participants"`
	Phases                 []Phase       `json:"phases" yaml:"phases"`
	QuestionsPerPhase      int           `json:"questionsPerPhase" yaml:"questions_per_phase"`
	MaxRespondents         int           `json:"maxRespondents" yaml:"max_respondents"`
	Temperature            float32       `json:"temperature" yaml:"temperature"`
	Seed                   int64         `json:"seed" yaml:"seed"`
	MaxConsecutiveFailures int           `json:"maxConsecutiveFailures" yaml:"max_consecutive_failures"`
	GenerationTimeout      time.Duration `json:"-" yaml:"generation_timeout"`
	RetryBaseDelay         time.Duration `json:"-" yaml:"retry_base_delay"`
}

// DefaultConfig 返回带默认值的配置
func DefaultConfig(concept, category string) Config {
	return Config{
		ProductConcept:         concept,
		Category:               category,
		NumParticipants:        8,
		Phases:                 DefaultPhases(),
		QuestionsPerPhase:      2,
		MaxRespondents:         5,
		Temperature:            0.9,
		Seed:                   42,
		MaxConsecutiveFailures: 5,
		GenerationTimeout:      60 * time.Second,
		RetryBaseDelay:         2 * time.Second,
	}
}

// Validate 校验配置，所有问题一次性报出来
func (c *Config) Validate() error {
	var problems []string
	if c.ProductConcept == "" {
		problems = append(problems, "产品概念不能为空")
	}
	if c.NumParticipants < 2 || c.NumParticipants > 12 {
		problems = append(problems, fmt.Sprintf("参与者数量 %d 不在 [2,12] 范围内", c.NumParticipants))
	}
	if len(c.Phases) == 0 {
		problems = append(problems, "至少需要一个讨论环节")
	}
	for _, p := range c.Phases {
		switch p {
		case PhaseWarmup, PhaseExploration, PhaseDeepDive, PhaseReaction, PhaseSynthesis:
		default:
			problems = append(problems, fmt.Sprintf("未知环节 %q", p))
		}
	}
	if c.QuestionsPerPhase < 1 || c.QuestionsPerPhase > 5 {
		problems = append(problems, fmt.Sprintf("每环节问题数 %d 不在 [1,5] 范围内", c.QuestionsPerPhase))
	}
	if c.MaxRespondents < 1 {
		problems = append(problems, "每个问题至少允许一人回答")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		problems = append(problems, fmt.Sprintf("温度 %.2f 不在 [0,2] 范围内", c.Temperature))
	}
	if c.MaxConsecutiveFailures < 1 {
		problems = append(problems, "连续失败阈值必须大于 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %v", ErrConfig, problems)
	}
	return nil
}

// ParticipantState 参与者在讨论中的可变状态
type ParticipantState struct {
	CurrentValence    float64   `json:"currentValence"`
	ExpressedHistory  []float64 `json:"expressedHistory"`
	SpeakCount        int       `json:"speakCount"`
	LastSpokeTurn     int       `json:"lastSpokeTurn"`
	InfluenceReceived float64   `json:"influenceReceived"`
	ChangedMindCount  int       `json:"changedMindCount"`
}

// Participant 人格画像加上讨论期间的可变状态
type Participant struct {
	Persona models.Persona    `json:"persona"`
	State   *ParticipantState `json:"state"`
}

// NewParticipant 从人格画像创建参与者，初始态度取画像的种子态度
func NewParticipant(p models.Persona) *Participant {
	return &Participant{
		Persona: p,
		State: &ParticipantState{
			CurrentValence: p.InitialValence,
			LastSpokeTurn:  -1,
		},
	}
}

// LastExpressed 最近一次公开表达的情感，没发过言时退回当前真实态度
func (p *Participant) LastExpressed() float64 {
	if n := len(p.State.ExpressedHistory); n > 0 {
		return p.State.ExpressedHistory[n-1]
	}
	return p.State.CurrentValence
}

// StateSnapshot 讨论结束时单个参与者的状态快照
type StateSnapshot struct {
	PersonaID         string  `json:"personaId"`
	Name              string  `json:"name"`
	InitialValence    float64 `json:"initialValence"`
	FinalValence      float64 `json:"finalValence"`
	FinalExpressed    float64 `json:"finalExpressed"`
	SpeakCount        int     `json:"speakCount"`
	ChangedMindCount  int     `json:"changedMindCount"`
	InfluenceReceived float64 `json:"influenceReceived"`
}
