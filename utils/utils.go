package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ChromeUserDataDir 按操作系统返回 Chrome 用户数据目录
func ChromeUserDataDir(goos, home string) string {
	switch goos {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome")
	default:
		return filepath.Join(home, ".config", "google-chrome")
	}
}

// ChromeProfileDir 返回 Chrome 默认 Profile 目录
// override 非空时直接使用（配置项 collector.chrome_dir）
func ChromeProfileDir(override string) string {
	if override != "" {
		return ExpandHome(override)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(ChromeUserDataDir(runtime.GOOS, home), "Default")
}

// WindowsRecentDir Windows 最近使用文件目录
func WindowsRecentDir(home string) string {
	return filepath.Join(home, "AppData", "Roaming", "Microsoft", "Windows", "Recent")
}

// ExpandHome 展开路径开头的 ~
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// FileExists 检查文件或目录是否存在
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// DirExists 检查目录是否存在
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
