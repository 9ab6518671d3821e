package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	consentCookie = "di_consent"
	ctxSessionID  = "sessionID"
)

// requestLogger 用 logrus 记录请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("请求失败")
		case status >= 400:
			entry.Warn("请求异常")
		default:
			entry.Debug("请求完成")
		}
	}
}

// sessionFromCookie 校验同意凭证，返回会话 ID
func (s *Server) sessionFromCookie(c *gin.Context) (string, bool) {
	token, err := c.Cookie(consentCookie)
	if err != nil {
		return "", false
	}
	sessionID, err := s.Consent.Verify(token)
	if err != nil {
		return "", false
	}
	return sessionID, true
}

// requireConsentPage 页面未同意时跳转到首页
func (s *Server) requireConsentPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := s.sessionFromCookie(c)
		if !ok {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Set(ctxSessionID, sessionID)
		c.Next()
	}
}

// requireConsentAPI 接口未同意时返回 403
func (s *Server) requireConsentAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := s.sessionFromCookie(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Consent not given"})
			return
		}
		c.Set(ctxSessionID, sessionID)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}
