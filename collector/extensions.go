package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"digital_insight_go/config"
	"digital_insight_go/model"
	"digital_insight_go/utils"
)

// ExtensionCollector Chrome 扩展程序采集
type ExtensionCollector struct {
	profileDir string
}

// NewExtensionCollector 创建扩展程序采集器
func NewExtensionCollector(cfg config.CollectorConfig) *ExtensionCollector {
	return &ExtensionCollector{profileDir: utils.ChromeProfileDir(cfg.ChromeDir)}
}

func (c *ExtensionCollector) Kind() model.Kind { return model.KindChromeExtensions }

func (c *ExtensionCollector) Header() []string { return model.Extension{}.CSVHeader() }

// Collect 遍历 Extensions/<id>/<version>/manifest.json
func (c *ExtensionCollector) Collect(ctx context.Context, _ model.CollectOptions) ([]model.Record, error) {
	root := filepath.Join(c.profileDir, "Extensions")
	if !utils.DirExists(root) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, root)
	}

	ids, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("读取扩展目录失败: %w", err)
	}

	var extensions []model.Extension
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !id.IsDir() {
			continue
		}
		ext, err := readExtension(filepath.Join(root, id.Name()), id.Name())
		if err != nil {
			log.Debugf("跳过扩展 %s: %v", id.Name(), err)
			continue
		}
		extensions = append(extensions, ext)
	}
	return toRecords(extensions), nil
}

func readExtension(dir, id string) (model.Extension, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return model.Extension{}, err
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	if len(versions) == 0 {
		return model.Extension{}, fmt.Errorf("没有版本目录")
	}

	data, err := os.ReadFile(filepath.Join(dir, LatestVersion(versions), "manifest.json"))
	if err != nil {
		return model.Extension{}, err
	}
	return ParseManifest(id, data)
}

// ParseManifest 解析 manifest.json
func ParseManifest(id string, data []byte) (model.Extension, error) {
	if !gjson.ValidBytes(data) {
		return model.Extension{}, fmt.Errorf("manifest 格式错误")
	}
	manifest := gjson.ParseBytes(data)

	name := manifest.Get("name").String()
	if name == "" {
		name = "Unknown Extension"
	}
	version := manifest.Get("version").String()
	if version == "" {
		version = "Unknown"
	}

	permissions := []string{}
	for _, p := range manifest.Get("permissions").Array() {
		if p.Type == gjson.String {
			permissions = append(permissions, p.String())
		}
	}

	return model.Extension{
		ID:          id,
		Name:        name,
		Version:     version,
		Description: manifest.Get("description").String(),
		Permissions: permissions,
		Category:    CategorizeExtension(manifest.Get("name").String()),
	}, nil
}

// LatestVersion 取最新的版本目录名（形如 1.46.0_0）
// 无法按语义版本解析的按字符串比较
func LatestVersion(dirs []string) string {
	sorted := append([]string(nil), dirs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, erri := semver.NewVersion(versionCore(sorted[i]))
		vj, errj := semver.NewVersion(versionCore(sorted[j]))
		if erri == nil && errj == nil && !vi.Equal(vj) {
			return vi.GreaterThan(vj)
		}
		return sorted[i] > sorted[j]
	})
	return sorted[0]
}

// versionCore 去掉 Chrome 目录名的 _N 后缀，四段版本只保留前三段
func versionCore(dir string) string {
	v, _, _ := strings.Cut(dir, "_")
	parts := strings.Split(v, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, ".")
}

// Sample 示例扩展程序
func (c *ExtensionCollector) Sample(_ time.Time) []model.Record {
	item := func(id, name, version, desc string, perms []string, category string) model.Extension {
		return model.Extension{ID: id, Name: name, Version: version, Description: desc, Permissions: perms, Category: category}
	}
	return toRecords([]model.Extension{
		item("nkbihfbeogaeaoehlefnkodbefgpgknn", "MetaMask", "11.5.0", "Ethereum Wallet", []string{"storage", "tabs"}, "productivity"),
		item("cjpalhdlnbpafiamejdnhcphjbkeiagm", "uBlock Origin", "1.46.0", "Ad Blocker", []string{"webRequest", "storage"}, "privacy"),
		item("fhbjgbiflinjbdggehcddcbncdddomop", "Postman", "10.20.0", "API Development", []string{"tabs", "storage"}, "development"),
		item("bmnlcjabgnpnenekpadlanbbkooimhnj", "Honey", "13.8.3", "Coupon Finder", []string{"tabs", "storage"}, "shopping"),
		item("eimadpbcbfnmbkopoojfekhnkhdbieeh", "Dark Reader", "4.9.58", "Dark Mode", []string{"tabs", "storage"}, "accessibility"),
		item("hdokiejnpimakedhajhdlcegeplioahd", "LastPass", "4.106.0", "Password Manager", []string{"tabs", "storage"}, "security"),
		item("gighmmpiobklfepjocnamgkkbiglidom", "AdBlock", "5.17.0", "Ad Blocker", []string{"webRequest", "tabs"}, "privacy"),
		item("lmhkpmbekcpmknklioeibfkpmmfibljd", "Redux DevTools", "3.0.23", "Redux Debugging", []string{"tabs"}, "development"),
	})
}
