package collector

import "time"

// Chrome 时间戳为 1601-01-01 起的微秒数
const chromeEpochOffsetSeconds int64 = 11644473600

// chromeTime 转换 Chrome 时间戳
func chromeTime(micros int64) time.Time {
	return time.UnixMicro(micros - chromeEpochOffsetSeconds*1_000_000).Local()
}

// toChromeTime 转换为 Chrome 时间戳
func toChromeTime(t time.Time) int64 {
	return t.UnixMicro() + chromeEpochOffsetSeconds*1_000_000
}
