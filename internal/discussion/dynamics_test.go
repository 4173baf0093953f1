package discussion

import (
	"math"
	"testing"

	"github.com/run-bigpig/fgsim/internal/models"
)

// TestConformityPressure 测试从众压力计算
func TestConformityPressure(t *testing.T) {
	t.Run("高宜人性低信念者压力大", func(t *testing.T) {
		p := &models.Persona{
			Ocean:      models.OceanScores{Agreeableness: 90},
			Conviction: 0.2,
		}
		pressure := ConformityPressure(p, 0.8)
		t.Logf("压力: %.3f", pressure)
		if pressure < 0.4 {
			t.Errorf("高宜人性低信念者从众压力过低: %.3f", pressure)
		}
	})

	t.Run("低宜人性高信念者几乎免疫", func(t *testing.T) {
		p := &models.Persona{
			Ocean:      models.OceanScores{Agreeableness: 10},
			Conviction: 0.9,
		}
		pressure := ConformityPressure(p, 1.0)
		if pressure > 0.001 {
			t.Errorf("抵抗应压过从众, 得到 %.3f", pressure)
		}
	})

	t.Run("结果始终在零一之间", func(t *testing.T) {
		for _, agree := range []float64{0, 30, 50, 70, 100} {
			for _, ratio := range []float64{0, 0.5, 1} {
				p := &models.Persona{Ocean: models.OceanScores{Agreeableness: agree}, Conviction: 0.5}
				v := ConformityPressure(p, ratio)
				if v < 0 || v > 1 {
					t.Errorf("宜人性 %.0f 比例 %.1f 时压力越界: %.3f", agree, ratio, v)
				}
			}
		}
	})
}

// TestInfluenceScore 测试影响力计算
func TestInfluenceScore(t *testing.T) {
	loud := NewParticipant(models.Persona{
		ID:    "a",
		Ocean: models.OceanScores{Extraversion: 90, Conscientiousness: 80, Openness: 70},
	})
	quiet := NewParticipant(models.Persona{
		ID:    "b",
		Ocean: models.OceanScores{Extraversion: 20, Conscientiousness: 30, Openness: 30},
	})
	loud.State.SpeakCount = 4
	quiet.State.SpeakCount = 1

	if InfluenceScore(loud, 5) <= InfluenceScore(quiet, 5) {
		t.Error("高外向高专业度者影响力应更高")
	}

	// 没有任何发言时发言占比项为 0，不应 panic
	v := InfluenceScore(quiet, 0)
	if v < 0 || v > 1 {
		t.Errorf("影响力越界: %.3f", v)
	}
}

// TestApplyCascade 测试意见级联和极化分支
func TestApplyCascade(t *testing.T) {
	t.Run("偏离不足不触发", func(t *testing.T) {
		p := NewParticipant(models.Persona{Ocean: models.OceanScores{Agreeableness: 80}})
		p.State.CurrentValence = 0.1
		nv, shift := ApplyCascade(p, 0.3, 0.1)
		if shift != 0 || nv != 0.1 {
			t.Errorf("领袖情感接近均值时不应级联, 得到位移 %.3f", shift)
		}
	})

	t.Run("随和者被拉向领袖", func(t *testing.T) {
		p := NewParticipant(models.Persona{Ocean: models.OceanScores{Agreeableness: 80}, Conviction: 0.3})
		p.State.CurrentValence = -0.2
		nv, shift := ApplyCascade(p, 0.8, 0.1)
		t.Logf("新态度 %.3f 位移 %.3f", nv, shift)
		if shift <= 0 {
			t.Errorf("应向领袖方向移动, 位移 %.3f", shift)
		}
	})

	t.Run("有主见者反向极化", func(t *testing.T) {
		p := NewParticipant(models.Persona{Ocean: models.OceanScores{Agreeableness: 10}, Conviction: 0.9})
		p.State.CurrentValence = -0.2
		nv, shift := ApplyCascade(p, 0.8, 0.1)
		t.Logf("新态度 %.3f 位移 %.3f", nv, shift)
		if shift >= 0 {
			t.Errorf("极化分支应反向移动, 位移 %.3f", shift)
		}
		if nv < -1 || nv > 1 {
			t.Errorf("态度越界: %.3f", nv)
		}
	})
}

// TestSoftenExpressed 测试社会期许修饰
func TestSoftenExpressed(t *testing.T) {
	t.Run("逆主流表达被软化", func(t *testing.T) {
		got := SoftenExpressed(-0.8, DirectionPositive, 0.5)
		if got != -0.4 {
			t.Errorf("期望 -0.4, 得到 %.3f", got)
		}
	})
	t.Run("顺主流表达不变", func(t *testing.T) {
		if got := SoftenExpressed(0.6, DirectionPositive, 0.9); got != 0.6 {
			t.Errorf("顺主流不应软化, 得到 %.3f", got)
		}
	})
	t.Run("无主导方向不变", func(t *testing.T) {
		if got := SoftenExpressed(-0.6, DirectionMixed, 0.9); got != -0.6 {
			t.Errorf("群体方向混杂时不应软化, 得到 %.3f", got)
		}
	})
}

// TestInferSentiment 测试中文情感词推断
func TestInferSentiment(t *testing.T) {
	cases := []struct {
		name string
		text string
		sign int
	}{
		{"纯正面", "我很喜欢，价格也划算，挺心动的", 1},
		{"纯负面", "我担心质量，而且太贵了，有点鸡肋", -1},
		{"否定翻转", "我不喜欢这个方案", -1},
		{"没有情感词", "这个问题我需要再想想", 0},
		{"正负抵消", "功能不错但是我担心价格", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InferSentiment(tc.text)
			t.Logf("%q => %.3f", tc.text, got)
			switch tc.sign {
			case 1:
				if got <= 0 {
					t.Errorf("期望正面, 得到 %.3f", got)
				}
			case -1:
				if got >= 0 {
					t.Errorf("期望负面, 得到 %.3f", got)
				}
			default:
				if got != 0 {
					t.Errorf("期望中性, 得到 %.3f", got)
				}
			}
			if got < -1 || got > 1 {
				t.Errorf("情感值越界: %.3f", got)
			}
		})
	}
}

// TestUpdateValence 测试真实态度的吸收更新
func TestUpdateValence(t *testing.T) {
	t.Run("信念越强移动越小", func(t *testing.T) {
		weak := UpdateValence(0, 1, 0.1)
		strong := UpdateValence(0, 1, 0.9)
		if weak <= strong {
			t.Errorf("低信念者应移动更多: weak=%.3f strong=%.3f", weak, strong)
		}
	})
	t.Run("满信念不动", func(t *testing.T) {
		if got := UpdateValence(0.3, -1, 1); got != 0.3 {
			t.Errorf("信念为 1 时态度不应变化, 得到 %.3f", got)
		}
	})
	t.Run("始终截断在合法区间", func(t *testing.T) {
		if got := UpdateValence(0.9, 5, 0); got != 1 {
			t.Errorf("应截断到 1, 得到 %.3f", got)
		}
	})
}

// TestGroupState 测试群体状态的滚动统计
func TestGroupState(t *testing.T) {
	g := NewGroupState()
	if g.Dominant != DirectionMixed {
		t.Errorf("初始方向应为 mixed, 得到 %s", g.Dominant)
	}

	values := []float64{0.6, 0.8, 0.4}
	for _, v := range values {
		g = g.Observe(v)
	}
	if math.Abs(g.Mean-0.6) > 1e-9 {
		t.Errorf("均值期望 0.6, 得到 %.6f", g.Mean)
	}
	if g.Dominant != DirectionPositive {
		t.Errorf("主导方向期望 positive, 得到 %s", g.Dominant)
	}
	if v := g.Variance(); math.Abs(v-0.04) > 1e-9 {
		t.Errorf("方差期望 0.04, 得到 %.6f", v)
	}

	for i := 0; i < 6; i++ {
		g = g.Observe(-0.9)
	}
	if g.Dominant != DirectionNegative {
		t.Errorf("大量负面发言后方向应翻转, 得到 %s", g.Dominant)
	}
}
