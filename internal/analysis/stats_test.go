package analysis

import (
	"strings"
	"testing"

	"github.com/run-bigpig/fgsim/internal/discussion"
)

func sentiment(v float64) *float64 { return &v }

func testTranscript() *discussion.Transcript {
	cfg := discussion.DefaultConfig("概念", "品类")
	cfg.Phases = []discussion.Phase{discussion.PhaseWarmup, discussion.PhaseSynthesis}
	return &discussion.Transcript{
		RunID:  "t-1",
		Config: cfg,
		Messages: []discussion.Message{
			{TurnNumber: 0, Role: discussion.RoleModerator, SpeakerName: "主持人", Phase: discussion.PhaseWarmup, Content: "开场"},
			{TurnNumber: 1, Role: discussion.RoleParticipant, SpeakerID: "a", SpeakerName: "甲", Phase: discussion.PhaseWarmup, Content: "不错", ExpressedSentiment: sentiment(0.8)},
			{TurnNumber: 2, Role: discussion.RoleParticipant, SpeakerID: "b", SpeakerName: "乙", Phase: discussion.PhaseWarmup, Content: "担心", ExpressedSentiment: sentiment(-0.4)},
			{TurnNumber: 3, Role: discussion.RoleSystem, SpeakerName: "系统", Phase: discussion.PhaseWarmup, Content: "丙 的回应生成失败，本轮跳过"},
			{TurnNumber: 4, Role: discussion.RoleModerator, SpeakerName: "主持人", Phase: discussion.PhaseSynthesis, Content: "收尾"},
			{TurnNumber: 5, Role: discussion.RoleParticipant, SpeakerID: "a", SpeakerName: "甲", Phase: discussion.PhaseSynthesis, Content: "想买", ExpressedSentiment: sentiment(0.6)},
		},
		Snapshots: []discussion.StateSnapshot{
			{PersonaID: "a", Name: "甲", InitialValence: 0.2, FinalValence: 0.7, SpeakCount: 2, ChangedMindCount: 1},
			{PersonaID: "b", Name: "乙", InitialValence: -0.1, FinalValence: -0.3, SpeakCount: 1},
			{PersonaID: "c", Name: "丙", InitialValence: 0, FinalValence: 0, SpeakCount: 0},
		},
	}
}

// TestAnalyze 测试讨论统计
func TestAnalyze(t *testing.T) {
	r := Analyze(testTranscript())

	if r.TotalMessages != 6 || r.ModeratorMessages != 2 || r.ParticipantMessages != 3 || r.SystemMessages != 1 {
		t.Errorf("消息计数不符: %+v", r)
	}
	if len(r.Phases) != 2 {
		t.Fatalf("环节统计数量不符: %d", len(r.Phases))
	}
	if r.Phases[0].Messages != 2 {
		t.Errorf("暖场发言数期望 2, 得到 %d", r.Phases[0].Messages)
	}
	if got := r.Phases[0].AvgSentiment; got < 0.19 || got > 0.21 {
		t.Errorf("暖场平均情感期望 0.2, 得到 %.3f", got)
	}
	if r.MostActive != "甲" || r.LeastActive != "丙" {
		t.Errorf("活跃度排序不符: most=%s least=%s", r.MostActive, r.LeastActive)
	}
	if r.PositiveCount != 1 || r.NegativeCount != 1 || r.NeutralCount != 1 {
		t.Errorf("态度分布不符: +%d/0:%d/-%d", r.PositiveCount, r.NeutralCount, r.NegativeCount)
	}

	var shift float64
	for _, p := range r.Participants {
		if p.Name == "甲" {
			shift = p.OpinionShift
		}
	}
	if shift < 0.49 || shift > 0.51 {
		t.Errorf("甲的态度位移期望 0.5, 得到 %.3f", shift)
	}
}

// TestRender 测试 Markdown 摘要渲染
func TestRender(t *testing.T) {
	md := Analyze(testTranscript()).Render()
	for _, want := range []string{"讨论统计", "最活跃: 甲", "暖场", "总结收束", "| 甲 | 2 |"} {
		if !strings.Contains(md, want) {
			t.Errorf("摘要缺少 %q", want)
		}
	}
}
