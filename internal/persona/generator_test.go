package persona

import (
	"encoding/json"
	"testing"
)

// TestGenerateDeterministic 同种子生成的画像完全一致
func TestGenerateDeterministic(t *testing.T) {
	run := func() []byte {
		gen, err := NewGenerator(42)
		if err != nil {
			t.Fatalf("创建生成器失败: %v", err)
		}
		personas, err := gen.Generate(8, "便携咖啡机", "小家电")
		if err != nil {
			t.Fatalf("生成失败: %v", err)
		}
		data, _ := json.Marshal(personas)
		return data
	}
	if string(run()) != string(run()) {
		t.Error("相同种子生成的画像不一致")
	}
}

// TestGenerateBounds 检查各项得分的取值范围
func TestGenerateBounds(t *testing.T) {
	gen, err := NewGenerator(7)
	if err != nil {
		t.Fatalf("创建生成器失败: %v", err)
	}
	personas, err := gen.Generate(12, "智能水杯", "日用品")
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	if len(personas) != 12 {
		t.Fatalf("期望 12 个画像, 得到 %d", len(personas))
	}

	names := map[string]bool{}
	for _, p := range personas {
		if names[p.Name] {
			t.Errorf("姓名重复: %s", p.Name)
		}
		names[p.Name] = true

		for field, score := range map[string]float64{
			"开放性": p.Ocean.Openness, "尽责性": p.Ocean.Conscientiousness,
			"外向性": p.Ocean.Extraversion, "宜人性": p.Ocean.Agreeableness, "神经质": p.Ocean.Neuroticism,
		} {
			if score < 0 || score > 100 {
				t.Errorf("%s %s 得分越界: %.1f", p.Name, field, score)
			}
		}
		if p.InitialValence < -1 || p.InitialValence > 1 {
			t.Errorf("%s 初始态度越界: %.3f", p.Name, p.InitialValence)
		}
		if p.Conviction < 0 || p.Conviction > 1 {
			t.Errorf("%s 坚定度越界: %.3f", p.Name, p.Conviction)
		}
		if p.SocialDesirability < 0 || p.SocialDesirability > 1 {
			t.Errorf("%s 社会期许偏差越界: %.3f", p.Name, p.SocialDesirability)
		}
		if p.Demographics.Age < 22 || p.Demographics.Age > 65 {
			t.Errorf("%s 年龄越界: %d", p.Name, p.Demographics.Age)
		}
		if p.InitialOpinion == "" {
			t.Errorf("%s 初始看法为空", p.Name)
		}
		if p.ID == "" {
			t.Errorf("%s 缺少 ID", p.Name)
		}
		t.Logf("%s | %d岁 %s %s | 态度 %+.2f 坚定 %.2f",
			p.Name, p.Demographics.Age, p.Demographics.Occupation, p.Demographics.City, p.InitialValence, p.Conviction)
	}
}

// TestGenerateInvalidCount 非法数量报错
func TestGenerateInvalidCount(t *testing.T) {
	gen, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("创建生成器失败: %v", err)
	}
	if _, err := gen.Generate(0, "概念", "品类"); err == nil {
		t.Error("数量为 0 应报错")
	}
}

// TestDeriveVoice 测试表达风格推导
func TestDeriveVoice(t *testing.T) {
	gen, err := NewGenerator(3)
	if err != nil {
		t.Fatalf("创建生成器失败: %v", err)
	}
	personas, err := gen.Generate(10, "概念", "品类")
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	validStyles := map[string]bool{"analytical": true, "diplomatic": true, "storytelling": true, "direct": true}
	validVerbosity := map[string]bool{"verbose": true, "terse": true, "moderate": true}
	for _, p := range personas {
		if !validStyles[p.Voice.Style] {
			t.Errorf("%s 风格非法: %s", p.Name, p.Voice.Style)
		}
		if !validVerbosity[p.Voice.Verbosity] {
			t.Errorf("%s 话量非法: %s", p.Name, p.Voice.Verbosity)
		}
		if p.Voice.Hedging < 0 || p.Voice.Hedging > 1 {
			t.Errorf("%s 含糊度越界: %.3f", p.Name, p.Voice.Hedging)
		}
	}
}
