//go:build !windows

package collector

import (
	"context"
	"fmt"
	"runtime"

	"digital_insight_go/model"
)

func readInstalledPrograms(_ context.Context) ([]model.InstalledProgram, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, runtime.GOOS)
}
