package models

// OceanScores 大五人格得分（0-100）
type OceanScores struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// Norm 将 0-100 的得分归一化到 0-1
func Norm(score float64) float64 {
	v := score / 100.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// VoiceProfile 表达风格画像
type VoiceProfile struct {
	Style      string  `json:"style"`      // analytical/diplomatic/storytelling/direct
	Verbosity  string  `json:"verbosity"`  // verbose/moderate/terse
	Vocabulary string  `json:"vocabulary"` // basic/moderate/advanced
	Hedging    float64 `json:"hedging"`    // 措辞犹豫倾向 0-1
}

// Demographics 人口属性摘要
type Demographics struct {
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Occupation string `json:"occupation"`
	City       string `json:"city"`
	Income     string `json:"income"` // low/middle/high
}

// Persona 参与者画像（模拟过程中不可变）
type Persona struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Demographics       Demographics `json:"demographics"`
	Ocean              OceanScores  `json:"ocean"`
	Voice              VoiceProfile `json:"voice"`
	InitialOpinion     string       `json:"initialOpinion"`     // 对产品概念的初始看法（自然语言）
	InitialValence     float64      `json:"initialValence"`     // 初始态度倾向 [-1,1]
	Conviction         float64      `json:"conviction"`         // 立场坚定度 [0,1]
	SocialDesirability float64      `json:"socialDesirability"` // 社会期许偏差系数 [0,1]
	CategoryEngagement string       `json:"categoryEngagement"` // heavy/moderate/light/non_user
}

// ExtraversionTertile 外向性分层：high（≥70）/ mid（30-70）/ low（<30）
func (p *Persona) ExtraversionTertile() string {
	switch {
	case p.Ocean.Extraversion >= 70:
		return "high"
	case p.Ocean.Extraversion >= 30:
		return "mid"
	default:
		return "low"
	}
}

// BaseSpeakProbability 基础发言概率（按外向性分层）
func (p *Persona) BaseSpeakProbability() float64 {
	switch p.ExtraversionTertile() {
	case "high":
		return 0.85
	case "mid":
		return 0.60
	default:
		return 0.35
	}
}
