package utils

import (
	"os"
	"runtime"
	"strings"
)

// 云端部署目录标记
const ebDir = "/opt/elasticbeanstalk"

// 云端环境变量
var cloudEnvKeys = []string{"AWS_REGION", "AWS_EXECUTION_ENV", "EB_NODE_COMMAND"}

// IsCloudEnvironment 是否运行在云端（无法访问本地浏览器和系统数据）
func IsCloudEnvironment() bool {
	for _, key := range cloudEnvKeys {
		if os.Getenv(key) != "" {
			return true
		}
	}
	if strings.Contains(os.Getenv("PATH"), ebDir) {
		return true
	}
	return DirExists(ebDir)
}

// EnvironmentInfo 运行环境信息
type EnvironmentInfo struct {
	IsCloud    bool              `json:"is_cloud"`
	Indicators map[string]string `json:"indicators"`
	EBDirFound bool              `json:"eb_dir_found"`
	PathHasEB  bool              `json:"path_has_eb"`
	Platform   string            `json:"platform"`
	Arch       string            `json:"arch"`
	GoVersion  string            `json:"go_version"`
	WorkDir    string            `json:"work_dir"`
	HomeDir    string            `json:"home_dir"`
	HomeExists bool              `json:"home_exists"`
}

// GetEnvironmentInfo 汇总环境检测结果
func GetEnvironmentInfo() EnvironmentInfo {
	indicators := make(map[string]string, len(cloudEnvKeys))
	for _, key := range cloudEnvKeys {
		if v := os.Getenv(key); v != "" {
			indicators[key] = v
		} else {
			indicators[key] = "未设置"
		}
	}

	wd, _ := os.Getwd()
	home, _ := os.UserHomeDir()

	return EnvironmentInfo{
		IsCloud:    IsCloudEnvironment(),
		Indicators: indicators,
		EBDirFound: DirExists(ebDir),
		PathHasEB:  strings.Contains(os.Getenv("PATH"), ebDir),
		Platform:   runtime.GOOS,
		Arch:       runtime.GOARCH,
		GoVersion:  runtime.Version(),
		WorkDir:    wd,
		HomeDir:    home,
		HomeExists: home != "" && DirExists(home),
	}
}
