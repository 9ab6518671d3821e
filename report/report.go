package report

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"

	"digital_insight_go/config"
	"digital_insight_go/model"
	"digital_insight_go/store"
)

// 报告文件前缀
const Prefix = "analysis_report"

//go:embed templates/*.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{"toJSON": toJSON}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

func toJSON(v interface{}) (template.JS, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(data), nil
}

// Row 报告中的一行评分
type Row struct {
	Label       string
	Score       int
	Tendency    string
	Description string
}

// Data 报告模板数据
type Data struct {
	GeneratedAt string
	Analysis    model.AnalysisData
	AI          *model.AnalysisResult
	MBTI        []Row
	Traits      []Row
	RecGroups   []RecGroup
}

// RecGroup 一组推荐
type RecGroup struct {
	Title string
	Items []string
}

// NewData 组装报告数据，ai 可以为空
func NewData(analysis model.AnalysisData, ai *model.AnalysisResult, now time.Time) Data {
	d := Data{
		GeneratedAt: now.Format("2006年01月02日 15:04:05"),
		Analysis:    analysis,
		AI:          ai,
	}
	if ai == nil {
		return d
	}

	m := ai.MBTIAnalysis
	d.MBTI = []Row{
		{Label: "E / I", Score: m.EI.Score, Tendency: m.EI.Tendency, Description: m.EI.Description},
		{Label: "S / N", Score: m.SN.Score, Tendency: m.SN.Tendency, Description: m.SN.Description},
		{Label: "T / F", Score: m.TF.Score, Tendency: m.TF.Tendency, Description: m.TF.Description},
		{Label: "J / P", Score: m.JP.Score, Tendency: m.JP.Tendency, Description: m.JP.Description},
	}

	p := ai.PersonalityTraits
	d.Traits = []Row{
		{Label: "开放性", Score: p.Openness.Score, Description: p.Openness.Description},
		{Label: "尽责性", Score: p.Conscientiousness.Score, Description: p.Conscientiousness.Description},
		{Label: "外向性", Score: p.Extraversion.Score, Description: p.Extraversion.Description},
		{Label: "宜人性", Score: p.Agreeableness.Score, Description: p.Agreeableness.Description},
		{Label: "神经质", Score: p.Neuroticism.Score, Description: p.Neuroticism.Description},
		{Label: "创造力", Score: p.Creativity.Score, Description: p.Creativity.Description},
		{Label: "技术亲和度", Score: p.TechSavviness.Score, Description: p.TechSavviness.Description},
	}

	r := ai.Recommendations
	d.RecGroups = []RecGroup{
		{Title: "生产力工具", Items: r.ProductivityTools},
		{Title: "学习资源", Items: r.LearningResources},
		{Title: "软件/应用", Items: r.SoftwareApps},
		{Title: "工作方式", Items: r.WorkStyle},
		{Title: "职业发展", Items: r.CareerDevelopment},
	}
	return d
}

// Render 渲染 HTML 报告
func Render(w io.Writer, data Data) error {
	return reportTemplate.Execute(w, data)
}

// Generator 报告生成器
type Generator struct {
	fileStore  *store.FileStore
	chromePath string
	pdfTimeout time.Duration
}

func NewGenerator(fileStore *store.FileStore, cfg config.ReportConfig) *Generator {
	timeout := cfg.PDFTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		fileStore:  fileStore,
		chromePath: cfg.ChromePath,
		pdfTimeout: timeout,
	}
}

// SaveHTML 渲染并保存 analysis_report_*.html
func (g *Generator) SaveHTML(data Data) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, data); err != nil {
		return "", fmt.Errorf("渲染报告失败: %w", err)
	}
	name := g.fileStore.TimestampedName(Prefix, ".html")
	if err := g.fileStore.SaveFile(name, buf.Bytes()); err != nil {
		return "", err
	}
	log.Infof("分析报告已保存: %s", name)
	return name, nil
}

// ExportPDF 用无头 Chrome 把已保存的 HTML 报告打印为 PDF
func (g *Generator) ExportPDF(ctx context.Context, htmlName string) (string, error) {
	if !strings.HasSuffix(htmlName, ".html") {
		return "", errors.New("只能导出 HTML 报告")
	}
	path, err := g.fileStore.DownloadPath(htmlName)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if g.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(g.chromePath))
	}

	ctx, cancel := context.WithTimeout(ctx, g.pdfTimeout)
	defer cancel()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+filepath.ToSlash(abs)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// 等待图表动画完成
		chromedp.Sleep(time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("生成PDF失败: %w", err)
	}

	name := strings.TrimSuffix(htmlName, ".html") + ".pdf"
	if err := g.fileStore.SaveFile(name, pdf); err != nil {
		return "", err
	}
	log.Infof("PDF报告已保存: %s", name)
	return name, nil
}
