package discussion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/run-bigpig/fgsim/internal/llm"
	"github.com/run-bigpig/fgsim/internal/logger"
	"github.com/run-bigpig/fgsim/internal/models"
)

var log = logger.New("Discussion")

// ErrGenerationUnavailable 连续生成失败达到阈值，讨论中止
var ErrGenerationUnavailable = errors.New("aborted: generation unavailable")

// NewSeededRand 从种子创建确定性的随机源
func NewSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// ResponseCallback 每条消息落盘后的回调，用于实时展示进度
type ResponseCallback func(Message)

// Simulator 焦点小组讨论模拟器
// 串行推进：出题、选人、按影响力排序发言、追问，后发言者能看到先发言者
type Simulator struct {
	cfg          Config
	completer    llm.Completer
	rng          *rand.Rand
	moderator    *Moderator
	participants []*Participant
	recorder     *Recorder
	group        GroupState

	consecutiveFailures int
	onMessage           ResponseCallback
}

// NewSimulator 创建模拟器，配置校验失败立即报错
func NewSimulator(cfg Config, personas []models.Persona, completer llm.Completer) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(personas) != cfg.NumParticipants {
		return nil, fmt.Errorf("%w: 画像数量 %d 与配置的参与者数量 %d 不一致", ErrConfig, len(personas), cfg.NumParticipants)
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 60 * time.Second
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 2 * time.Second
	}

	rng := NewSeededRand(cfg.Seed)
	participants := make([]*Participant, 0, len(personas))
	for _, p := range personas {
		participants = append(participants, NewParticipant(p))
	}
	s := &Simulator{
		cfg:          cfg,
		completer:    completer,
		rng:          rng,
		participants: participants,
		recorder:     &Recorder{},
		group:        NewGroupState(),
	}
	s.moderator = NewModerator(&s.cfg, completer, rng)
	return s, nil
}

// SetOnMessage 注册消息回调
func (s *Simulator) SetOnMessage(cb ResponseCallback) {
	s.onMessage = cb
}

// Run 执行整场讨论，返回讨论记录
// 中止时已生成的部分记录依旧有效返回
func (s *Simulator) Run(ctx context.Context) (*Transcript, error) {
	log.Info("focus group start: %d participants, %d phases, seed %d",
		len(s.participants), len(s.cfg.Phases), s.cfg.Seed)

	totalQuestions := len(s.cfg.Phases) * s.cfg.QuestionsPerPhase
	maxFollowups := totalQuestions / 3
	if maxFollowups < 1 {
		maxFollowups = 1
	}
	followups := 0
	prevRound := map[string]bool{}

	for _, phase := range s.cfg.Phases {
		log.Info("entering phase %s", phase)
		for _, base := range s.moderator.PhaseQuestions(ctx, phase, s.recorder.Messages()) {
			if err := ctx.Err(); err != nil {
				return s.abort(phase, fmt.Sprintf("讨论被取消: %v", err), err)
			}

			question, addressedID := s.moderator.DecorateQuestion(base, s.participants)
			s.append(Message{
				TurnNumber:  s.recorder.NextTurn(),
				Role:        RoleModerator,
				SpeakerName: "主持人",
				Phase:       phase,
				Content:     question,
			})

			respondents := s.moderator.SelectRespondents(s.participants, addressedID, prevRound, s.group)
			s.orderByInfluence(respondents)

			thisRound := make(map[string]bool, len(respondents))
			var lastMsg *Message
			for i, p := range respondents {
				if err := ctx.Err(); err != nil {
					return s.abort(phase, fmt.Sprintf("讨论被取消: %v", err), err)
				}
				msg, err := s.participantTurn(ctx, p, phase, question, respondents[i+1:], thisRound)
				if err != nil {
					return s.abort(phase, "", err)
				}
				if msg != nil {
					lastMsg = msg
					thisRound[p.Persona.ID] = true
				}
			}

			if followups < maxFollowups {
				if text, ok := s.moderator.Followup(lastMsg, s.group); ok {
					followups++
					s.append(Message{
						TurnNumber:  s.recorder.NextTurn(),
						Role:        RoleModerator,
						SpeakerName: "主持人",
						Phase:       phase,
						Content:     text,
						RepliedTo:   lastMsg.SpeakerID,
					})
					target := s.byID(lastMsg.SpeakerID)
					if _, err := s.participantTurn(ctx, target, phase, text, nil, thisRound); err != nil {
						return s.abort(phase, "", err)
					}
				}
			}
			prevRound = thisRound
		}
	}

	if err := s.recoveryPass(ctx); err != nil {
		return s.abort(s.cfg.Phases[len(s.cfg.Phases)-1], "", err)
	}

	t := s.buildTranscript()
	log.Info("focus group finished: %d messages", len(t.Messages))
	return t, nil
}

// recoveryPass 收尾前让全程没发言的参与者每人说一句
func (s *Simulator) recoveryPass(ctx context.Context) error {
	var silent []*Participant
	for _, p := range s.participants {
		if p.State.SpeakCount == 0 {
			silent = append(silent, p)
		}
	}
	if len(silent) == 0 {
		return nil
	}
	phase := s.cfg.Phases[len(s.cfg.Phases)-1]
	names := make([]string, 0, len(silent))
	for _, p := range silent {
		names = append(names, p.Persona.Name)
	}
	log.Info("recovery pass for %d silent participants", len(silent))

	question := s.moderator.RecoveryQuestion(names)
	s.append(Message{
		TurnNumber:  s.recorder.NextTurn(),
		Role:        RoleModerator,
		SpeakerName: "主持人",
		Phase:       phase,
		Content:     question,
	})
	for _, p := range silent {
		if _, err := s.participantTurn(ctx, p, phase, question, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

// participantTurn 执行单个参与者的一次发言，含重试、跳过和中止判定
// 返回 nil 消息表示本轮被跳过；返回错误表示整场讨论需要中止
func (s *Simulator) participantTurn(ctx context.Context, p *Participant, phase Phase, question string, pending []*Participant, thisRound map[string]bool) (*Message, error) {
	content, inferred, err := s.respondWithRetry(ctx, p, phase, question)
	if err != nil {
		if llm.IsFatal(err) {
			log.Error("fatal generation error for %s: %v", p.Persona.Name, err)
			s.append(s.systemMessage(phase, fmt.Sprintf("讨论中止: %v", err)))
			return nil, err
		}
		s.consecutiveFailures++
		log.Warn("skip %s after retry (%d consecutive failures): %v", p.Persona.Name, s.consecutiveFailures, err)
		s.append(s.systemMessage(phase, fmt.Sprintf("%s 的回应生成失败，本轮跳过", p.Persona.Name)))
		if s.consecutiveFailures >= s.cfg.MaxConsecutiveFailures {
			s.append(s.systemMessage(phase, fmt.Sprintf("aborted: generation unavailable（连续 %d 次生成失败）", s.consecutiveFailures)))
			return nil, ErrGenerationUnavailable
		}
		return nil, nil
	}
	s.consecutiveFailures = 0

	// 群体动力学：先吸收自己说出口的内容，再叠加从众和社会期许
	prior := p.State.CurrentValence
	newValence := UpdateValence(prior, inferred, p.Persona.Conviction)
	conformity := ConformityPressure(&p.Persona, s.roundAgreementRatio(thisRound))
	expressed := newValence + conformity*(s.group.Mean-newValence)
	expressed = SoftenExpressed(expressed, s.group.Dominant, p.Persona.SocialDesirability)
	expressed = clampRange(expressed+(s.rng.Float64()-0.5)*0.04, -1, 1)
	newValence = s.checkedValence(p.Persona.Name, newValence)

	changed := math.Abs(newValence-prior) > ChangedMindThreshold
	turn := s.recorder.NextTurn()

	p.State.CurrentValence = newValence
	p.State.ExpressedHistory = append(p.State.ExpressedHistory, expressed)
	p.State.SpeakCount++
	p.State.LastSpokeTurn = turn
	p.State.InfluenceReceived += conformity * math.Abs(s.group.Mean-newValence)
	if changed {
		p.State.ChangedMindCount++
	}

	rawCopy, exprCopy := inferred, expressed
	msg := s.append(Message{
		TurnNumber:         turn,
		Role:               RoleParticipant,
		SpeakerID:          p.Persona.ID,
		SpeakerName:        p.Persona.Name,
		Phase:              phase,
		Content:            content,
		ExpressedSentiment: &exprCopy,
		RawSentiment:       &rawCopy,
		RepliedTo:          detectRepliedTo(content, s.recorder.Messages(), p.Persona.ID),
		ChangedMind:        changed,
	})

	s.group = s.group.Observe(expressed)
	s.updateOpinionLeader()

	// 意见领袖的发言会牵引本轮还没开口的人
	if s.group.OpinionLeaderID == p.Persona.ID {
		for _, other := range pending {
			nv, shift := ApplyCascade(other, expressed, s.group.Mean)
			if shift != 0 {
				other.State.CurrentValence = nv
				other.State.InfluenceReceived += math.Abs(shift)
			}
		}
	}
	return &msg, nil
}

// respondWithRetry 一次瞬时失败后退避重试一次，致命错误直接返回
func (s *Simulator) respondWithRetry(ctx context.Context, p *Participant, phase Phase, question string) (string, float64, error) {
	var lastErr error
	for attempt := 0; attempt <= 1; attempt++ {
		if attempt > 0 {
			log.Warn("retrying %s after %v", p.Persona.Name, s.cfg.RetryBaseDelay)
			select {
			case <-ctx.Done():
				return "", 0, llm.Classify(ctx.Err())
			case <-time.After(s.cfg.RetryBaseDelay):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		content, inferred, err := p.Respond(callCtx, s.completer, &s.cfg, phase, s.recorder.Messages(), question)
		cancel()
		if err == nil {
			return content, inferred, nil
		}
		lastErr = err
		if llm.IsFatal(err) {
			return "", 0, err
		}
	}
	return "", 0, lastErr
}

// roundAgreementRatio 本轮已发言者中与群体主导方向一致的比例
func (s *Simulator) roundAgreementRatio(thisRound map[string]bool) float64 {
	if len(thisRound) == 0 || s.group.Dominant == DirectionMixed {
		return 0
	}
	agree := 0
	for id := range thisRound {
		p := s.byID(id)
		if p == nil {
			continue
		}
		expressed := p.LastExpressed()
		if (s.group.Dominant == DirectionPositive && expressed > 0) ||
			(s.group.Dominant == DirectionNegative && expressed < 0) {
			agree++
		}
	}
	return float64(agree) / float64(len(thisRound))
}

// orderByInfluence 高影响力者先发言，同分时用随机数打破并列
func (s *Simulator) orderByInfluence(respondents []*Participant) {
	total := 0
	for _, p := range s.participants {
		total += p.State.SpeakCount
	}
	jitter := make(map[string]int64, len(respondents))
	for _, p := range respondents {
		jitter[p.Persona.ID] = s.rng.Int63()
	}
	sort.SliceStable(respondents, func(i, j int) bool {
		si := InfluenceScore(respondents[i], total)
		sj := InfluenceScore(respondents[j], total)
		if si != sj {
			return si > sj
		}
		return jitter[respondents[i].Persona.ID] < jitter[respondents[j].Persona.ID]
	})
}

// updateOpinionLeader 重算当前影响力最高的参与者
// 只在已发言者中选，没开过口的人不能当意见领袖
func (s *Simulator) updateOpinionLeader() {
	total := 0
	for _, p := range s.participants {
		total += p.State.SpeakCount
	}
	best := ""
	bestScore := -1.0
	for _, p := range s.participants {
		if p.State.SpeakCount == 0 {
			continue
		}
		if score := InfluenceScore(p, total); score > bestScore {
			bestScore = score
			best = p.Persona.ID
		}
	}
	s.group.OpinionLeaderID = best
}

// checkedValence 情感值越界时告警并截断
func (s *Simulator) checkedValence(name string, v float64) float64 {
	if v < -1 || v > 1 {
		log.Warn("valence %.3f for %s out of range, clamped", v, name)
		return clampRange(v, -1, 1)
	}
	return v
}

// byID 按画像 ID 查参与者
func (s *Simulator) byID(id string) *Participant {
	for _, p := range s.participants {
		if p.Persona.ID == id {
			return p
		}
	}
	return nil
}

// append 记录一条消息并触发回调
func (s *Simulator) append(msg Message) Message {
	msg = s.recorder.Append(msg)
	if s.onMessage != nil {
		s.onMessage(msg)
	}
	return msg
}

func (s *Simulator) systemMessage(phase Phase, content string) Message {
	return Message{
		TurnNumber:  s.recorder.NextTurn(),
		Role:        RoleSystem,
		SpeakerName: "系统",
		Phase:       phase,
		Content:     content,
	}
}

// abort 组装带部分内容的讨论记录并标记中止
func (s *Simulator) abort(phase Phase, note string, err error) (*Transcript, error) {
	if note != "" {
		s.append(s.systemMessage(phase, note))
	}
	t := s.buildTranscript()
	t.Aborted = true
	t.AbortReason = err.Error()
	log.Error("focus group aborted after %d messages: %v", len(t.Messages), err)
	return t, err
}

// buildTranscript 汇总消息和各参与者的最终状态快照
func (s *Simulator) buildTranscript() *Transcript {
	personas := make([]models.Persona, 0, len(s.participants))
	snapshots := make([]StateSnapshot, 0, len(s.participants))
	for _, p := range s.participants {
		personas = append(personas, p.Persona)
		snapshots = append(snapshots, StateSnapshot{
			PersonaID:         p.Persona.ID,
			Name:              p.Persona.Name,
			InitialValence:    p.Persona.InitialValence,
			FinalValence:      p.State.CurrentValence,
			FinalExpressed:    p.LastExpressed(),
			SpeakCount:        p.State.SpeakCount,
			ChangedMindCount:  p.State.ChangedMindCount,
			InfluenceReceived: p.State.InfluenceReceived,
		})
	}
	return &Transcript{
		RunID:     NewRunID(&s.cfg),
		Config:    s.cfg,
		Personas:  personas,
		Messages:  s.recorder.Messages(),
		Snapshots: snapshots,
	}
}
