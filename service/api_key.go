package service

import "strings"

// IsValidAPIKey sk- 开头且长度大于 20
func IsValidAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-") && len(key) > 20
}

// MaskAPIKey 保留前 7 位和后 7 位
func MaskAPIKey(key string) string {
	if len(key) <= 14 {
		return strings.Repeat("*", len(key))
	}
	return key[:7] + strings.Repeat("*", len(key)-14) + key[len(key)-7:]
}
