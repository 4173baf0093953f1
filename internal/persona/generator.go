package persona

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/run-bigpig/fgsim/internal/embed"
	"github.com/run-bigpig/fgsim/internal/logger"
	"github.com/run-bigpig/fgsim/internal/models"
)

var log = logger.New("Persona")

// 画像 ID 的命名空间，保证同种子生成结果完全一致
var personaNamespace = uuid.MustParse("8f6f3f44-2f7e-4cbd-9c2a-6f0d6a4b9e21")

// basicData 嵌入数据的结构
type basicData struct {
	MaleNames        []string `json:"male_names"`
	FemaleNames      []string `json:"female_names"`
	Occupations      []string `json:"occupations"`
	Cities           []string `json:"cities"`
	EngagementLevels []string `json:"engagement_levels"`
}

// Generator 参与者画像生成器（种子确定，重复生成结果一致）
type Generator struct {
	rng  *rand.Rand
	data basicData
}

// NewGenerator 创建画像生成器
func NewGenerator(seed int64) (*Generator, error) {
	var data basicData
	if err := json.Unmarshal(embed.PersonaBasicJSON, &data); err != nil {
		return nil, fmt.Errorf("parse embedded persona data: %w", err)
	}
	if len(data.MaleNames) == 0 || len(data.FemaleNames) == 0 {
		return nil, fmt.Errorf("embedded persona data missing name pools")
	}
	return &Generator{
		rng:  rand.New(rand.NewSource(seed)),
		data: data,
	}, nil
}

// Generate 生成 n 个画像并按产品概念播种初始态度
func (g *Generator) Generate(n int, productConcept, category string) ([]models.Persona, error) {
	if n <= 0 {
		return nil, fmt.Errorf("persona count must be positive, got %d", n)
	}

	personas := make([]models.Persona, 0, n)
	usedNames := make(map[string]bool)

	for i := 0; i < n; i++ {
		demo := g.sampleDemographics(usedNames)
		ocean := g.sampleOcean()
		p := models.Persona{
			ID:                 uuid.NewSHA1(personaNamespace, []byte(fmt.Sprintf("persona-%d", i))).String(),
			Name:               demo.name,
			Demographics:       demo.demographics,
			Ocean:              ocean,
			Voice:              deriveVoice(demo.demographics, ocean),
			CategoryEngagement: g.data.EngagementLevels[g.rng.Intn(len(g.data.EngagementLevels))],
		}
		g.seedOpinion(&p, productConcept, category)
		personas = append(personas, p)
	}

	log.Debug("generated %d personas for concept %q", n, productConcept)
	return personas, nil
}

type sampledDemo struct {
	name         string
	demographics models.Demographics
}

// sampleDemographics 采样人口属性，姓名去重
func (g *Generator) sampleDemographics(used map[string]bool) sampledDemo {
	gender := "female"
	pool := g.data.FemaleNames
	if g.rng.Float64() < 0.5 {
		gender = "male"
		pool = g.data.MaleNames
	}

	name := pool[g.rng.Intn(len(pool))]
	for used[name] {
		name = pool[g.rng.Intn(len(pool))] + "·" + fmt.Sprint(g.rng.Intn(90)+10)
	}
	used[name] = true

	incomes := []string{"low", "middle", "middle", "high"}
	return sampledDemo{
		name: name,
		demographics: models.Demographics{
			Age:        22 + g.rng.Intn(44),
			Gender:     gender,
			Occupation: g.data.Occupations[g.rng.Intn(len(g.data.Occupations))],
			City:       g.data.Cities[g.rng.Intn(len(g.data.Cities))],
			Income:     incomes[g.rng.Intn(len(incomes))],
		},
	}
}

// sampleOcean 采样大五人格得分：均值 50、标准差 18 的截断正态
func (g *Generator) sampleOcean() models.OceanScores {
	sample := func() float64 {
		v := 50 + g.rng.NormFloat64()*18
		if v < 0 {
			return 0
		}
		if v > 100 {
			return 100
		}
		return v
	}
	return models.OceanScores{
		Openness:          sample(),
		Conscientiousness: sample(),
		Extraversion:      sample(),
		Agreeableness:     sample(),
		Neuroticism:       sample(),
	}
}

// seedOpinion 播种初始态度
// 基础倾向由开放性拉正、神经质拉负，品类介入度做倍乘，最后叠加有界噪声
func (g *Generator) seedOpinion(p *models.Persona, concept, category string) {
	o := p.Ocean.Openness
	n := p.Ocean.Neuroticism

	base := ((o-50)/50.0)*0.55 + ((50-n)/50.0)*0.45

	multiplier := map[string]float64{
		"heavy":    1.2,
		"moderate": 1.0,
		"light":    0.8,
		"non_user": 0.6,
	}[p.CategoryEngagement]
	if multiplier == 0 {
		multiplier = 1.0
	}

	noise := (g.rng.Float64() - 0.5) * 0.4
	p.InitialValence = clamp(base*multiplier+noise, -1, 1)
	p.InitialOpinion = opinionText(p.InitialValence, concept, category)

	// 坚定度：立场越极端、尽责性越高的人越难被带偏
	absValence := p.InitialValence
	if absValence < 0 {
		absValence = -absValence
	}
	p.Conviction = clamp01(absValence*0.5 + models.Norm(p.Ocean.Conscientiousness)*0.3 + g.rng.Float64()*0.2)

	// 社会期许偏差：宜人性高、情绪敏感的人更倾向把负面意见说软
	p.SocialDesirability = clamp01(models.Norm(p.Ocean.Agreeableness)*0.6 + models.Norm(p.Ocean.Neuroticism)*0.25 + g.rng.Float64()*0.15)
}

// opinionText 按态度区间生成初始看法文本
func opinionText(valence float64, concept, category string) string {
	switch {
	case valence > 0.5:
		return fmt.Sprintf("我挺喜欢这个%s概念的，「%s」感觉确实有用，值得一试。", category, concept)
	case valence > 0.15:
		return fmt.Sprintf("我对这个%s想法谨慎乐观，「%s」如果定价合理是有潜力的。", category, concept)
	case valence < -0.5:
		return fmt.Sprintf("我看不出这个%s概念的价值，「%s」对我来说风险大又没必要。", category, concept)
	case valence < -0.15:
		return fmt.Sprintf("我对这个%s想法持怀疑态度，没有更多证据之前不会考虑「%s」。", category, concept)
	default:
		return fmt.Sprintf("我对这个%s概念态度中立，「%s」有好有坏。", category, concept)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
