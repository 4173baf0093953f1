package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/run-bigpig/fgsim/internal/discussion"
)

// PhaseStats 单个环节的发言统计
type PhaseStats struct {
	Phase        discussion.Phase `json:"phase"`
	Messages     int              `json:"messages"`
	AvgSentiment float64          `json:"avgSentiment"`
}

// ParticipantStats 单个参与者的发言统计
type ParticipantStats struct {
	PersonaID    string  `json:"personaId"`
	Name         string  `json:"name"`
	Messages     int     `json:"messages"`
	OpinionShift float64 `json:"opinionShift"`
	ChangedMind  int     `json:"changedMind"`
}

// Report 一场讨论的汇总分析
type Report struct {
	TotalMessages       int                `json:"totalMessages"`
	ModeratorMessages   int                `json:"moderatorMessages"`
	ParticipantMessages int                `json:"participantMessages"`
	SystemMessages      int                `json:"systemMessages"`
	Phases              []PhaseStats       `json:"phases"`
	Participants        []ParticipantStats `json:"participants"`
	MostActive          string             `json:"mostActive"`
	LeastActive         string             `json:"leastActive"`
	FinalMeanValence    float64            `json:"finalMeanValence"`
	PositiveCount       int                `json:"positiveCount"`
	NegativeCount       int                `json:"negativeCount"`
	NeutralCount        int                `json:"neutralCount"`
}

// Analyze 从讨论记录计算汇总统计
func Analyze(t *discussion.Transcript) *Report {
	r := &Report{}

	phaseMsg := map[discussion.Phase]int{}
	phaseSum := map[discussion.Phase]float64{}
	phaseN := map[discussion.Phase]int{}
	perSpeaker := map[string]int{}

	for _, msg := range t.Messages {
		r.TotalMessages++
		switch msg.Role {
		case discussion.RoleModerator:
			r.ModeratorMessages++
		case discussion.RoleSystem:
			r.SystemMessages++
		case discussion.RoleParticipant:
			r.ParticipantMessages++
			phaseMsg[msg.Phase]++
			perSpeaker[msg.SpeakerID]++
			if msg.ExpressedSentiment != nil {
				phaseSum[msg.Phase] += *msg.ExpressedSentiment
				phaseN[msg.Phase]++
			}
		}
	}

	for _, phase := range t.Config.Phases {
		avg := 0.0
		if phaseN[phase] > 0 {
			avg = phaseSum[phase] / float64(phaseN[phase])
		}
		r.Phases = append(r.Phases, PhaseStats{
			Phase:        phase,
			Messages:     phaseMsg[phase],
			AvgSentiment: avg,
		})
	}

	sum := 0.0
	for _, s := range t.Snapshots {
		r.Participants = append(r.Participants, ParticipantStats{
			PersonaID:    s.PersonaID,
			Name:         s.Name,
			Messages:     perSpeaker[s.PersonaID],
			OpinionShift: s.FinalValence - s.InitialValence,
			ChangedMind:  s.ChangedMindCount,
		})
		sum += s.FinalValence
		switch {
		case s.FinalValence > 0.15:
			r.PositiveCount++
		case s.FinalValence < -0.15:
			r.NegativeCount++
		default:
			r.NeutralCount++
		}
	}
	if len(t.Snapshots) > 0 {
		r.FinalMeanValence = sum / float64(len(t.Snapshots))
	}

	sorted := append([]ParticipantStats(nil), r.Participants...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Messages > sorted[j].Messages })
	if len(sorted) > 0 {
		r.MostActive = sorted[0].Name
		r.LeastActive = sorted[len(sorted)-1].Name
	}
	return r
}

// Render 渲染为 Markdown 摘要
func (r *Report) Render() string {
	var sb strings.Builder
	sb.WriteString("## 讨论统计\n\n")
	sb.WriteString(fmt.Sprintf("- 消息总数: %d（主持人 %d / 参与者 %d / 系统 %d）\n",
		r.TotalMessages, r.ModeratorMessages, r.ParticipantMessages, r.SystemMessages))
	sb.WriteString(fmt.Sprintf("- 最活跃: %s，最沉默: %s\n", r.MostActive, r.LeastActive))
	sb.WriteString(fmt.Sprintf("- 最终平均态度: %+.2f（正面 %d / 中立 %d / 负面 %d）\n\n",
		r.FinalMeanValence, r.PositiveCount, r.NeutralCount, r.NegativeCount))

	sb.WriteString("| 环节 | 发言数 | 平均情感 |\n|------|--------|----------|\n")
	for _, p := range r.Phases {
		sb.WriteString(fmt.Sprintf("| %s | %d | %+.2f |\n", p.Phase.DisplayName(), p.Messages, p.AvgSentiment))
	}

	sb.WriteString("\n| 参与者 | 发言数 | 态度位移 | 改变主意 |\n|--------|--------|----------|----------|\n")
	for _, p := range r.Participants {
		shift := fmt.Sprintf("%+.2f", p.OpinionShift)
		if math.Abs(p.OpinionShift) < 0.005 {
			shift = "0.00"
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %d |\n", p.Name, p.Messages, shift, p.ChangedMind))
	}
	return sb.String()
}
