package utils

import (
	"fmt"
	"time"
)

// FormatDuration 格式化耗时，格式为 "H时M分S秒"，不足一分钟时为 "S.s秒"
func FormatDuration(startTime, endTime time.Time) string {
	duration := endTime.Sub(startTime)
	if duration < 0 {
		duration = 0
	}
	if duration < time.Minute {
		return fmt.Sprintf("%.1f秒", duration.Seconds())
	}
	return FormatDurationSeconds(int64(duration.Seconds()))
}

// FormatDurationSeconds 将秒数格式化为 "H时M分S秒"
func FormatDurationSeconds(durationSeconds int64) string {
	hours := durationSeconds / 3600
	minutes := (durationSeconds % 3600) / 60
	seconds := durationSeconds % 60

	return fmt.Sprintf("%d时%d分%d秒", hours, minutes, seconds)
}
