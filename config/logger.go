package config

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// SetupLogger 按配置初始化 logrus
func SetupLogger(cfg LogConfig) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("未知日志级别 %q，使用 info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
