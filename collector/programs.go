package collector

import (
	"context"
	"time"

	"digital_insight_go/model"
)

const unknownValue = "Unknown"

// ProgramCollector 已安装程序采集（Windows 注册表）
type ProgramCollector struct{}

// NewProgramCollector 创建已安装程序采集器
func NewProgramCollector() *ProgramCollector {
	return &ProgramCollector{}
}

func (c *ProgramCollector) Kind() model.Kind { return model.KindInstalledPrograms }

func (c *ProgramCollector) Header() []string { return model.InstalledProgram{}.CSVHeader() }

// Collect 非 Windows 平台返回 ErrUnsupported
func (c *ProgramCollector) Collect(ctx context.Context, _ model.CollectOptions) ([]model.Record, error) {
	programs, err := readInstalledPrograms(ctx)
	if err != nil {
		return nil, err
	}
	return toRecords(programs), nil
}

// newInstalledProgram 补全默认值并分类
func newInstalledProgram(name, version, publisher, installDate string) model.InstalledProgram {
	if version == "" {
		version = unknownValue
	}
	if publisher == "" {
		publisher = unknownValue
	}
	return model.InstalledProgram{
		Name:        name,
		Version:     version,
		Publisher:   publisher,
		InstallDate: FormatInstallDate(installDate),
		Category:    CategorizeProgram(name),
	}
}

// FormatInstallDate YYYYMMDD 转为 YYYY-MM-DD，其他格式返回 Unknown
func FormatInstallDate(raw string) string {
	if len(raw) != 8 {
		return unknownValue
	}
	return raw[:4] + "-" + raw[4:6] + "-" + raw[6:]
}

// Sample 示例已安装程序
func (c *ProgramCollector) Sample(_ time.Time) []model.Record {
	return toRecords([]model.InstalledProgram{
		{Name: "Google Chrome", Version: "120.0.6099.109", Publisher: "Google LLC", InstallDate: "2024-01-10", Category: "browser"},
		{Name: "Visual Studio Code", Version: "1.85.0", Publisher: "Microsoft Corporation", InstallDate: "2024-01-15", Category: "development"},
		{Name: "Python 3.11.7", Version: "3.11.7150.0", Publisher: "Python Software Foundation", InstallDate: "2024-01-20", Category: "development"},
		{Name: "Microsoft Office Professional Plus 2021", Version: "16.0.14332.20481", Publisher: "Microsoft Corporation", InstallDate: "2024-01-05", Category: "office"},
		{Name: "Adobe Photoshop 2024", Version: "25.0.0", Publisher: "Adobe Inc.", InstallDate: "2024-02-01", Category: "design"},
		{Name: "Discord", Version: "1.0.9013", Publisher: "Discord Inc.", InstallDate: "2024-01-25", Category: "communication"},
		{Name: "Spotify", Version: "1.2.25.1011", Publisher: "Spotify AB", InstallDate: "2024-01-30", Category: "media"},
		{Name: "Steam", Version: "3.0", Publisher: "Valve Corporation", InstallDate: "2024-02-05", Category: "gaming"},
		{Name: "Notion", Version: "2.0.18", Publisher: "Notion Labs, Inc.", InstallDate: "2024-02-10", Category: "office"},
		{Name: "Figma", Version: "116.15.8", Publisher: "Figma, Inc.", InstallDate: "2024-02-15", Category: "design"},
	})
}
