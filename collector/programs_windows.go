//go:build windows

package collector

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows/registry"

	"digital_insight_go/model"
)

type uninstallRoot struct {
	key  registry.Key
	path string
}

var uninstallRoots = []uninstallRoot{
	{registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
	{registry.LOCAL_MACHINE, `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`},
	{registry.CURRENT_USER, `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
}

func readInstalledPrograms(ctx context.Context) ([]model.InstalledProgram, error) {
	var (
		programs []model.InstalledProgram
		opened   int
	)
	for _, root := range uninstallRoots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		list, err := readUninstallKey(root)
		if err != nil {
			log.Debugf("读取注册表失败 %s: %v", root.path, err)
			continue
		}
		opened++
		programs = append(programs, list...)
	}
	if opened == 0 {
		return nil, fmt.Errorf("%w: 无法读取卸载信息注册表", ErrUnavailable)
	}
	return programs, nil
}

func readUninstallKey(root uninstallRoot) ([]model.InstalledProgram, error) {
	k, err := registry.OpenKey(root.key, root.path, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}

	programs := make([]model.InstalledProgram, 0, len(names))
	for _, name := range names {
		sk, err := registry.OpenKey(k, name, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		displayName := stringValue(sk, "DisplayName")
		if displayName != "" {
			programs = append(programs, newInstalledProgram(
				displayName,
				stringValue(sk, "DisplayVersion"),
				stringValue(sk, "Publisher"),
				stringValue(sk, "InstallDate"),
			))
		}
		sk.Close()
	}
	return programs, nil
}

func stringValue(k registry.Key, name string) string {
	v, _, err := k.GetStringValue(name)
	if err != nil {
		if !errors.Is(err, registry.ErrNotExist) {
			log.Debugf("读取注册表值 %s 失败: %v", name, err)
		}
		return ""
	}
	return v
}
