package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/run-bigpig/fgsim/internal/adk"
	"github.com/run-bigpig/fgsim/internal/analysis"
	"github.com/run-bigpig/fgsim/internal/discussion"
	"github.com/run-bigpig/fgsim/internal/llm"
	"github.com/run-bigpig/fgsim/internal/logger"
	"github.com/run-bigpig/fgsim/internal/persona"
	"github.com/run-bigpig/fgsim/internal/pkg/paths"
	"github.com/run-bigpig/fgsim/internal/stimulus"
)

var log = logger.New("CLI")

var (
	flagConfig   string
	flagConcept  string
	flagCategory string
	flagStimulus string
	flagCount    int
	flagSeed     int64
	flagProvider string
	flagModel    string
	flagMock     bool
	flagOutDir   string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:          "fgsim",
	Short:        "焦点小组讨论模拟器",
	Long:         "fgsim 用带人格画像的虚拟消费者模拟一场有主持人的焦点小组讨论，产出完整的讨论记录和态度分析。",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "运行一场焦点小组讨论",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiscussion(cmd)
	},
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "只生成讨论问题清单，不运行讨论",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printGuide(cmd)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{runCmd, guideCmd} {
		cmd.Flags().StringVarP(&flagConfig, "config", "c", "", "YAML 配置文件路径")
		cmd.Flags().StringVar(&flagConcept, "concept", "", "产品概念描述")
		cmd.Flags().StringVar(&flagCategory, "category", "消费电子", "产品品类")
		cmd.Flags().StringVar(&flagStimulus, "stimulus", "", "刺激材料，本地文件路径或网页 URL")
		cmd.Flags().IntVarP(&flagCount, "participants", "n", 8, "参与者数量")
		cmd.Flags().Int64Var(&flagSeed, "seed", 42, "随机种子，同配置同种子可复现")
		cmd.Flags().StringVar(&flagProvider, "provider", "deepseek", "模型提供商 (groq/deepseek/openrouter/moonshot/gemini)")
		cmd.Flags().StringVar(&flagModel, "model", "", "模型名称，留空用提供商默认")
		cmd.Flags().BoolVar(&flagMock, "mock", false, "使用内置 Mock 生成器，不调用任何外部模型")
		cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "输出调试日志")
	}
	runCmd.Flags().StringVarP(&flagOutDir, "out", "o", "", "讨论记录输出目录，默认应用数据目录")
	rootCmd.AddCommand(runCmd, guideCmd)
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

// buildConfig 把配置文件和命令行旗标合成最终配置
// 显式传入的旗标优先于配置文件，配置文件优先于默认值
func buildConfig(cmd *cobra.Command) (discussion.Config, error) {
	cfg := discussion.DefaultConfig(flagConcept, flagCategory)
	if flagConfig != "" {
		data, err := os.ReadFile(flagConfig)
		if err != nil {
			return cfg, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}
	// 只有用户真正传过的旗标才覆盖配置文件
	flags := cmd.Flags()
	if flags.Changed("concept") {
		cfg.ProductConcept = flagConcept
	}
	if flags.Changed("category") {
		cfg.Category = flagCategory
	}
	if flags.Changed("stimulus") {
		cfg.StimulusMaterial = flagStimulus
	}
	if flags.Changed("participants") {
		cfg.NumParticipants = flagCount
	}
	if flags.Changed("seed") {
		cfg.Seed = flagSeed
	}
	return cfg, nil
}

// buildCompleter 根据旗标选择 Mock 或真实模型
func buildCompleter(ctx context.Context, cfg *discussion.Config) (llm.Completer, error) {
	if flagMock {
		return llm.NewMockCompleter(), nil
	}
	aiCfg, err := llm.ResolveAIConfig(flagProvider, flagModel)
	if err != nil {
		return nil, err
	}
	m, err := adk.NewModelFactory().CreateModel(ctx, aiCfg)
	if err != nil {
		return nil, err
	}
	return llm.NewADKCompleter(m), nil
}

func setup() {
	godotenv.Load()
	if flagVerbose {
		logger.SetGlobalLevel(logger.DEBUG)
	}
}

// runDiscussion 组装并运行整场讨论，落盘记录和分析
func runDiscussion(cmd *cobra.Command) error {
	setup()
	ctx := cmd.Context()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// 刺激材料在进配置前解析为纯文本
	if cfg.StimulusMaterial != "" {
		loader, err := stimulus.NewLoader()
		if err != nil {
			return err
		}
		text, err := loader.Load(ctx, cfg.StimulusMaterial)
		if err != nil {
			return err
		}
		cfg.StimulusMaterial = text
	}

	gen, err := persona.NewGenerator(cfg.Seed)
	if err != nil {
		return err
	}
	personas, err := gen.Generate(cfg.NumParticipants, cfg.ProductConcept, cfg.Category)
	if err != nil {
		return err
	}

	completer, err := buildCompleter(ctx, &cfg)
	if err != nil {
		return err
	}
	log.Info("using completer %s", completer.Name())

	sim, err := discussion.NewSimulator(cfg, personas, completer)
	if err != nil {
		return err
	}
	sim.SetOnMessage(func(msg discussion.Message) {
		switch msg.Role {
		case discussion.RoleModerator:
			fmt.Printf("\n[%s] 主持人: %s\n", msg.Phase.DisplayName(), msg.Content)
		case discussion.RoleSystem:
			fmt.Printf("  -- %s\n", msg.Content)
		default:
			fmt.Printf("  %s: %s\n", msg.SpeakerName, msg.Content)
		}
	})

	transcript, runErr := sim.Run(ctx)
	if transcript != nil {
		if err := saveTranscript(transcript); err != nil {
			log.Error("save transcript failed: %v", err)
		}
		fmt.Println()
		fmt.Println(analysis.Analyze(transcript).Render())
	}
	return runErr
}

// printGuide 只出题不开讨论，便于预览主持人问题
func printGuide(cmd *cobra.Command) error {
	setup()
	ctx := cmd.Context()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	completer, err := buildCompleter(ctx, &cfg)
	if err != nil {
		return err
	}
	rng := discussion.NewSeededRand(cfg.Seed)
	moderator := discussion.NewModerator(&cfg, completer, rng)
	for i, q := range moderator.GenerateGuide(ctx) {
		fmt.Printf("%2d. %s\n", i+1, q)
	}
	return nil
}

// saveTranscript 把讨论记录写成 JSON 和 Markdown 两份
func saveTranscript(t *discussion.Transcript) error {
	outDir := flagOutDir
	if outDir == "" {
		outDir = paths.GetTranscriptDir()
	}
	paths.EnsureDir(outDir)

	data, err := t.ToJSON()
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(outDir, t.RunID+".json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return err
	}
	mdPath := filepath.Join(outDir, t.RunID+".md")
	if err := os.WriteFile(mdPath, []byte(t.ToMarkdown()), 0644); err != nil {
		return err
	}
	log.Info("transcript saved to %s", jsonPath)
	return nil
}
