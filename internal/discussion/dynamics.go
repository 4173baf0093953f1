package discussion

import (
	"math"
	"strings"

	"github.com/run-bigpig/fgsim/internal/models"
)

// 群体动力学的权重常量
const (
	ConformityWeight     = 0.85 // 从众压力整体权重
	CascadeFactor        = 0.3  // 意见级联的牵引强度
	CascadeThreshold     = 0.4  // 领袖情感偏离群体均值多少才触发级联
	FollowupThreshold    = 0.4  // 发言偏离群体均值多少才值得追问
	ChangedMindThreshold = 0.15 // 真实态度变化多少算改变主意
)

// 群体情感方向
const (
	DirectionPositive = "positive"
	DirectionNegative = "negative"
	DirectionMixed    = "mixed"
)

// GroupState 群体层面的滚动状态，随每条参与者消息更新
type GroupState struct {
	Count           int     // 已观察的发言数
	Mean            float64 // 表达情感的滚动均值
	m2              float64 // Welford 方差累计量
	Dominant        string  // 当前主导方向
	OpinionLeaderID string  // 当前意见领袖
}

// NewGroupState 返回空的群体状态
func NewGroupState() GroupState {
	return GroupState{Dominant: DirectionMixed}
}

// Observe 纳入一次公开表达，返回更新后的状态
func (g GroupState) Observe(expressed float64) GroupState {
	g.Count++
	delta := expressed - g.Mean
	g.Mean += delta / float64(g.Count)
	g.m2 += delta * (expressed - g.Mean)
	switch {
	case g.Mean > 0.15:
		g.Dominant = DirectionPositive
	case g.Mean < -0.15:
		g.Dominant = DirectionNegative
	default:
		g.Dominant = DirectionMixed
	}
	return g
}

// Variance 表达情感的样本方差
func (g GroupState) Variance() float64 {
	if g.Count < 2 {
		return 0
	}
	return g.m2 / float64(g.Count-1)
}

// ConformityPressure 计算从众压力
// 同意比例乘以宜人性，再减去由信念强度形成的抵抗，结果截断到 [0,1]
func ConformityPressure(p *models.Persona, agreementRatio float64) float64 {
	agree := models.Norm(p.Ocean.Agreeableness)
	resistance := p.Conviction * (1 - agree)
	return clampRange(agreementRatio*agree*ConformityWeight-resistance, 0, 1)
}

// InfluenceScore 计算发言影响力，用于决定同一问题下的发言顺序
func InfluenceScore(p *Participant, totalSpeaks int) float64 {
	expertise := perceivedExpertise(&p.Persona)
	ratio := 0.0
	if totalSpeaks > 0 {
		ratio = float64(p.State.SpeakCount) / float64(totalSpeaks)
	}
	return 0.4*models.Norm(p.Persona.Ocean.Extraversion) + 0.4*expertise + 0.2*ratio
}

// perceivedExpertise 感知专业度，由尽责性和开放性折算
func perceivedExpertise(p *models.Persona) float64 {
	return 0.5*models.Norm(p.Ocean.Conscientiousness) + 0.5*models.Norm(p.Ocean.Openness)
}

// ApplyCascade 意见级联：领袖发言后，未发言者的真实态度被牵引
// 低宜人性且高信念者走极化分支，反向移动
// 返回新态度和实际位移
func ApplyCascade(p *Participant, leaderSentiment, groupMean float64) (float64, float64) {
	if math.Abs(leaderSentiment-groupMean) <= CascadeThreshold {
		return p.State.CurrentValence, 0
	}
	agree := models.Norm(p.Persona.Ocean.Agreeableness)
	own := p.State.CurrentValence
	var shift float64
	if agree < 0.3 && p.Persona.Conviction > 0.7 {
		// 极化：有主见的人被强势观点推向反方向
		shift = -CascadeFactor * (leaderSentiment - own) * (1 - agree)
	} else {
		shift = CascadeFactor * (leaderSentiment - own) * agree
	}
	return clampRange(own+shift, -1, 1), shift
}

// SoftenExpressed 社会期许修饰：逆主流的表达被按个人偏置系数软化
// 只影响公开表达，真实态度不动
func SoftenExpressed(raw float64, dominant string, sdBias float64) float64 {
	against := (dominant == DirectionPositive && raw < 0) ||
		(dominant == DirectionNegative && raw > 0)
	if !against {
		return raw
	}
	return raw * (1 - sdBias)
}

// 情感词表，正负各一组，按出现次数计分
var (
	positiveWords = []string{"喜欢", "不错", "想买", "愿意", "划算", "心动", "靠谱", "满意", "有用", "值得"}
	negativeWords = []string{"担心", "顾虑", "怀疑", "太贵", "失望", "鸡肋", "风险", "没必要"}
)

// InferSentiment 从发言文本推断情感倾向，返回 [-1,1]
// 「不/没」前缀把正面词反转计入负面
func InferSentiment(text string) float64 {
	pos, neg := 0, 0
	for _, w := range positiveWords {
		c := strings.Count(text, w)
		negated := strings.Count(text, "不"+w) + strings.Count(text, "没"+w)
		if c > negated {
			pos += c - negated
		}
		neg += negated
	}
	for _, w := range negativeWords {
		neg += strings.Count(text, w)
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return clampRange(float64(pos-neg)/float64(total), -1, 1)
}

// UpdateValence 吸收一次自身发言的推断情感，信念越强移动越小
func UpdateValence(prior, inferred, conviction float64) float64 {
	return clampRange(prior+(inferred-prior)*(1-conviction), -1, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
