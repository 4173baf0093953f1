package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	go_openai "github.com/sashabaranov/go-openai"
)

// TestClassify 测试错误分类
func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"鉴权401", &go_openai.APIError{HTTPStatusCode: 401}, true},
		{"权限403", &go_openai.APIError{HTTPStatusCode: 403}, true},
		{"限流429", &go_openai.APIError{HTTPStatusCode: 429}, false},
		{"服务端500", &go_openai.APIError{HTTPStatusCode: 503}, false},
		{"客户端400", &go_openai.APIError{HTTPStatusCode: 400}, true},
		{"请求层401", &go_openai.RequestError{HTTPStatusCode: 401}, true},
		{"请求层超时", &go_openai.RequestError{HTTPStatusCode: 504}, false},
		{"上下文超时", context.DeadlineExceeded, false},
		{"上下文取消", context.Canceled, false},
		{"密钥消息兜底", errors.New("invalid API key provided"), true},
		{"未知错误按瞬时", errors.New("connection reset by peer"), false},
		{"包装后的鉴权错误", fmt.Errorf("出错: %w", &go_openai.APIError{HTTPStatusCode: 401}), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			if got == nil {
				t.Fatal("非空错误分类结果不应为空")
			}
			if tc.fatal && !IsFatal(got) {
				t.Errorf("%v 应归为致命", tc.err)
			}
			if !tc.fatal && !IsTransient(got) {
				t.Errorf("%v 应归为瞬时", tc.err)
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("空错误应返回空")
	}
}

// TestErrorUnwrap 分类错误应保留原始错误链
func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := Classify(fmt.Errorf("调用失败: %w", inner))
	if !errors.Is(wrapped, inner) {
		t.Error("分类后应能追溯原始错误")
	}
	// 再次包装后 IsTransient/IsFatal 仍可用
	outer := fmt.Errorf("参与者发言失败: %w", wrapped)
	if !IsTransient(outer) {
		t.Error("多层包装后仍应识别为瞬时错误")
	}
}

// TestMockCompleter 测试 Mock 生成器的确定性与路由
func TestMockCompleter(t *testing.T) {
	m := NewMockCompleter()
	ctx := context.Background()

	t.Run("相同输入输出一致", func(t *testing.T) {
		req := Request{SystemPrompt: "系统", UserPrompt: "随便说点什么"}
		a, err := m.Complete(ctx, req)
		if err != nil {
			t.Fatalf("Mock 不应报错: %v", err)
		}
		b, _ := m.Complete(ctx, req)
		if a != b {
			t.Error("相同输入应返回相同文本")
		}
	})

	t.Run("主持人提示词路由到问题模板", func(t *testing.T) {
		req := Request{UserPrompt: "你是一场市场调研焦点小组的主持人。\n\n当前环节: warmup\n请出题"}
		got, err := m.Complete(ctx, req)
		if err != nil {
			t.Fatalf("Mock 不应报错: %v", err)
		}
		t.Logf("问题: %s", got)
		found := false
		for _, q := range mockQuestions["warmup"] {
			if got == q {
				found = true
			}
		}
		if !found {
			t.Errorf("应返回 warmup 环节的模板问题, 得到 %q", got)
		}
	})

	t.Run("参与者提示词路由到回答模板", func(t *testing.T) {
		req := Request{SystemPrompt: "你是张三", UserPrompt: "讨论环节: warmup\n主持人的问题\n你怎么看？"}
		got, err := m.Complete(ctx, req)
		if err != nil {
			t.Fatalf("Mock 不应报错: %v", err)
		}
		if got == "" {
			t.Error("回答不应为空")
		}
		t.Logf("回答: %s", got)
	})

	t.Run("注入失败", func(t *testing.T) {
		want := errors.New("rate limited")
		failing := &MockCompleter{FailWith: &Error{Kind: KindTransient, Err: want}}
		if _, err := failing.Complete(ctx, Request{UserPrompt: "x"}); !errors.Is(err, want) {
			t.Errorf("应返回注入的错误, 得到 %v", err)
		}
	})
}

// TestResolveAIConfig 测试提供商注册表
func TestResolveAIConfig(t *testing.T) {
	t.Run("未知提供商", func(t *testing.T) {
		if _, err := ResolveAIConfig("nope", ""); !IsFatal(err) {
			t.Errorf("未知提供商应为致命错误, 得到 %v", err)
		}
	})

	t.Run("缺少密钥", func(t *testing.T) {
		t.Setenv("DEEPSEEK_API_KEY", "")
		if _, err := ResolveAIConfig("deepseek", ""); !IsFatal(err) {
			t.Errorf("缺少密钥应为致命错误, 得到 %v", err)
		}
	})

	t.Run("正常解析", func(t *testing.T) {
		t.Setenv("DEEPSEEK_API_KEY", "sk-test")
		cfg, err := ResolveAIConfig("deepseek", "")
		if err != nil {
			t.Fatalf("解析失败: %v", err)
		}
		if cfg.APIKey != "sk-test" || cfg.ModelName == "" || cfg.BaseURL == "" {
			t.Errorf("配置不完整: %+v", cfg)
		}
	})
}
