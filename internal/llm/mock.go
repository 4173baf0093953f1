package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// MockCompleter 确定性伪生成器，用于离线演示与测试
// 相同的输入恒定返回相同的文本，不产生任何网络调用
type MockCompleter struct {
	// FailWith 非空时每次调用都返回该错误（测试失败路径用）
	FailWith error
}

// NewMockCompleter 创建 Mock 生成器
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Name 返回模型标识
func (m *MockCompleter) Name() string {
	return "mock/focus-group"
}

// Complete 按提示词哈希返回固定文本
func (m *MockCompleter) Complete(_ context.Context, req Request) (string, error) {
	if m.FailWith != nil {
		return "", m.FailWith
	}

	digest := sha256.Sum256([]byte(req.SystemPrompt + "||" + req.UserPrompt))
	idx := int(binary.BigEndian.Uint32(digest[:4]))

	if strings.Contains(req.UserPrompt, "焦点小组的主持人") {
		return m.mockQuestion(req.UserPrompt, idx), nil
	}
	return m.mockResponse(idx), nil
}

// 各环节的主持人问题模板（每环节两条）
var mockQuestions = map[string][2]string{
	"warmup": {
		"咱们先随便聊聊，平时大家买这类产品一般是怎么挑的？",
		"开始之前，想听听各位最近一次买这类东西的经历。",
	},
	"exploration": {
		"听到这个概念，大家第一反应是什么？",
		"这个想法让你们联想到什么，有什么期待或者顾虑？",
	},
	"deep_dive": {
		"具体到功能和价格，哪一点最影响你们的判断？",
		"要让你们信得过这个产品，还缺什么？",
	},
	"reaction": {
		"看完刚才的材料，你们的直接感受是什么，会想做点什么？",
		"基于这些信息，你们会认真考虑试一试吗，为什么？",
	},
	"synthesis": {
		"最后一个问题：如果明天就能买到，你们会买吗，最主要的理由是什么？",
		"收个尾：这个产品适合谁，你们自己会掏钱吗？",
	},
}

// mockQuestion 根据提示词中的环节标记返回模板问题
func (m *MockCompleter) mockQuestion(prompt string, idx int) string {
	phase := "exploration"
	for candidate := range mockQuestions {
		if strings.Contains(prompt, "当前环节: "+candidate) {
			phase = candidate
			break
		}
	}
	pair := mockQuestions[phase]
	return pair[idx%2]
}

// 参与者回答模板，覆盖正负中不同倾向的措辞
var mockResponses = []string{
	"我觉得挺不错的，要是价格划算我会想买，确实有点心动。",
	"听起来有用，但我还是担心实际效果，得看到真实评价再说。",
	"我不太喜欢这种思路，感觉太贵了，对我来说有点鸡肋。",
	"方向我是满意的，尤其是上手简单的话，挺靠谱的。",
	"我有顾虑，主要是怀疑它能不能坚持用下去，不会马上买。",
	"可以试一次，不错是不错，但长期值不值还得观察。",
}

// mockResponse 返回固定的参与者回答
func (m *MockCompleter) mockResponse(idx int) string {
	base := mockResponses[idx%len(mockResponses)]
	switch idx % 3 {
	case 0:
		return "我同意前面几位说的。" + base
	case 1:
		return "我的看法跟刚才有些人不太一样。" + base
	default:
		return base
	}
}
