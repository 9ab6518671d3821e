package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cli/browser"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"digital_insight_go/config"
	"digital_insight_go/model"
	"digital_insight_go/report"
	"digital_insight_go/worker/collect"
)

// 命令行会话 ID
const cliSession = "cli"

type rootFlags struct {
	configFile string
	cfg        *config.GlobalConfig
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "digital-insight",
		Short:         "本地数字行为采集与 AI 性格分析",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init" {
				return nil
			}
			cfg, err := config.InitConfig(flags.configFile)
			if err != nil {
				return err
			}
			config.SetupLogger(cfg.Log)
			flags.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	serve := newServeCmd(flags)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newCollectCmd(flags), newAnalyzeCmd(flags), newReportCmd(flags), newConfigCmd())

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
	})
	return root
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("错误: %v", err))
}

func initApp(flags *rootFlags) (*Application, error) {
	app := NewApplication(flags.cfg)
	if err := app.InitServices(); err != nil {
		return nil, err
	}
	return app, nil
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		open bool
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 Web 服务（默认命令）",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				flags.cfg.Server.Port = port
			}
			if open {
				flags.cfg.Server.OpenBrowser = true
			}

			app, err := initApp(flags)
			if err != nil {
				return err
			}
			if err := app.Start(); err != nil {
				_ = app.Stop(context.Background())
				return err
			}

			url := flags.cfg.Server.URL()
			printBanner(url)
			if flags.cfg.Server.OpenBrowser {
				if err := browser.OpenURL(url); err != nil {
					log.Warnf("打开浏览器失败: %v", err)
				}
			}

			app.waitForShutdown()
			log.Info("👋 应用程序已退出")
			return nil
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "启动后自动打开浏览器")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "监听端口（覆盖配置）")
	return cmd
}

func printBanner(url string) {
	title := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Println()
	fmt.Println(title("  数字行为分析服务已启动"))
	fmt.Printf("  访问地址: %s\n", color.GreenString(url))
	fmt.Println(color.HiBlackString("  按 Ctrl+C 停止服务"))
	fmt.Println()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newCollectCmd(flags *rootFlags) *cobra.Command {
	var opts model.CollectOptions
	cmd := &cobra.Command{
		Use:   "collect [kinds...]",
		Short: "采集数据并保存为 CSV（不指定类型时采集全部）",
		Long:  "可选类型: bookmarks, browser_history, system_info, chrome_extensions, recent_files, network_info, installed_programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := make([]model.Kind, 0, len(args))
			for _, a := range args {
				kind, ok := model.ParseKind(a)
				if !ok {
					return fmt.Errorf("未知的采集类型: %s", a)
				}
				kinds = append(kinds, kind)
			}

			app, err := initApp(flags)
			if err != nil {
				return err
			}
			defer app.Stop(context.Background())

			ctx, cancel := signalContext()
			defer cancel()

			results, err := app.collectJob.Execute(ctx, cliSession, kinds, opts, printProgress)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%-20s %4d 条  %s  %s\n", r.Kind, r.TotalCount, r.Filename, r.Source.Label())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.StartDate, "start", "", "书签起始日期 YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.EndDate, "end", "", "书签结束日期 YYYY-MM-DD")
	cmd.Flags().IntVar(&opts.DaysBack, "days", 0, "浏览历史/最近文件的天数")
	return cmd
}

func printProgress(m collect.JobProgressMessage) {
	text := m.Message
	if m.Current != nil && m.Total != nil {
		text = fmt.Sprintf("[%d/%d] %s", *m.Current, *m.Total, text)
	}
	switch m.Type {
	case "error":
		fmt.Println(color.RedString(text))
	case "warning":
		fmt.Println(color.YellowString(text))
	case "success":
		fmt.Println(color.GreenString(text))
	default:
		fmt.Println(text)
	}
}

func newAnalyzeCmd(flags *rootFlags) *cobra.Command {
	var apiKey string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "基于最新采集数据执行 AI 性格分析",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp(flags)
			if err != nil {
				return err
			}
			defer app.Stop(context.Background())

			ctx, cancel := signalContext()
			defer cancel()

			outcome, err := app.analysisService.Run(ctx, cliSession, apiKey)
			if err != nil {
				return err
			}
			r := outcome.AnalysisResult
			fmt.Println(color.GreenString(outcome.Message))
			fmt.Printf("结果文件: %s\n", outcome.Filename)
			fmt.Printf("MBTI: %s（置信度 %d%%）\n", r.MBTIAnalysis.PredictedType, r.MBTIAnalysis.Confidence)
			fmt.Printf("整体倾向: %s\n", r.AIInsights.Overview)
			return nil
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "临时使用的 API Key")
	return cmd
}

func newReportCmd(flags *rootFlags) *cobra.Command {
	var pdf bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "生成 HTML 分析报告（可选导出 PDF）",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp(flags)
			if err != nil {
				return err
			}
			defer app.Stop(context.Background())

			ai, _, err := app.analysisService.Latest()
			if err != nil {
				log.Warnf("没有AI分析结果，报告仅包含统计图表: %v", err)
				ai = nil
			}
			data := report.NewData(app.summaryService.BuildAnalysisData(), ai, time.Now())
			name, err := app.reports.SaveHTML(data)
			if err != nil {
				return err
			}
			fmt.Printf("HTML 报告: %s\n", name)

			if pdf {
				ctx, cancel := signalContext()
				defer cancel()
				pdfName, err := app.reports.ExportPDF(ctx, name)
				if err != nil {
					return err
				}
				fmt.Printf("PDF 报告: %s\n", pdfName)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pdf, "pdf", false, "同时导出 PDF（需要本机安装 Chrome）")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件管理",
	}

	var (
		path  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "写入默认配置文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Println(color.GreenString("已生成配置文件: %s", path))
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "config/config.yaml", "配置文件路径")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "覆盖已存在的文件")
	cmd.AddCommand(initCmd)
	return cmd
}
