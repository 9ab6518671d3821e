package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"digital_insight_go/model"
	"digital_insight_go/report"
	"digital_insight_go/service"
	"digital_insight_go/store"
	"digital_insight_go/utils"
	"digital_insight_go/worker/collect"
)

func errorJSON(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": "error", "message": message})
}

// bindOptionalJSON 解析可选的 JSON 请求体，空请求体（包括分块传输）视为未传参数
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func queryLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

// ================= 同意 =================

func (s *Server) consentPage(c *gin.Context) {
	_, consented := s.sessionFromCookie(c)
	c.HTML(http.StatusOK, "consent.html.tmpl", gin.H{"Consented": consented})
}

func (s *Server) giveConsent(c *gin.Context) {
	token, _, err := s.Consent.Grant(c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		log.Errorf("处理同意失败: %v", err)
		errorJSON(c, http.StatusInternalServerError, "处理同意失败")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(consentCookie, token, int(s.Consent.TTL().Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, "/data_collection")
}

func (s *Server) withdrawConsent(c *gin.Context) {
	if sessionID, ok := s.sessionFromCookie(c); ok {
		if err := s.Consent.Withdraw(sessionID); err != nil {
			log.Errorf("撤回同意失败: %v", err)
		}
	}
	c.SetCookie(consentCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// ================= 页面 =================

func (s *Server) dataCollectionPage(c *gin.Context) {
	c.HTML(http.StatusOK, "collect.html.tmpl", gin.H{
		"Kinds":      model.AllKinds,
		"SampleMode": s.Collector.SampleMode(),
	})
}

func (s *Server) analyzePage(c *gin.Context) {
	c.HTML(http.StatusOK, "analyze.html.tmpl", gin.H{})
}

// ================= 采集 =================

func (s *Server) collectKind(kind model.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var opts model.CollectOptions
		if err := bindOptionalJSON(c, &opts); err != nil {
			errorJSON(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
			return
		}
		result, err := s.Collector.Collect(c.Request.Context(), sessionID(c), kind, opts)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, fmt.Sprintf("%s收集中发生错误: %v", kind.Label(), err))
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type collectAllRequest struct {
	Kinds []string `json:"kinds"`
	model.CollectOptions
}

func (s *Server) collectAll(c *gin.Context) {
	var req collectAllRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	kinds := make([]model.Kind, 0, len(req.Kinds))
	for _, k := range req.Kinds {
		kind, ok := model.ParseKind(k)
		if !ok {
			errorJSON(c, http.StatusBadRequest, "未知的采集类型: "+k)
			return
		}
		kinds = append(kinds, kind)
	}

	err := s.Jobs.Start(sessionID(c), kinds, req.CollectOptions, s.Hub.Broadcast)
	if errors.Is(err, collect.ErrAlreadyRunning) {
		errorJSON(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started", "message": "采集任务已开始，可通过 /ws/progress 查看进度"})
}

func (s *Server) stopCollectAll(c *gin.Context) {
	s.Jobs.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "已请求停止采集任务"})
}

func (s *Server) collectAllStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Jobs.GetStatus())
}

func (s *Server) progressSocket(c *gin.Context) {
	if err := s.Hub.ServeWS(c.Writer, c.Request); err != nil {
		log.Warnf("websocket 升级失败: %v", err)
	}
}

func (s *Server) collectionRuns(c *gin.Context) {
	var kind model.Kind
	if raw := c.Query("kind"); raw != "" {
		k, ok := model.ParseKind(raw)
		if !ok {
			errorJSON(c, http.StatusBadRequest, "未知的采集类型: "+raw)
			return
		}
		kind = k
	}
	runs, err := s.Collector.RecentRuns(kind, queryLimit(c, 50))
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	stats, err := s.Collector.RunStats()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "runs": runs, "stats": stats})
}

// ================= 文件 =================

func fileErrorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrTypeNotAllow):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) listFiles(c *gin.Context) {
	files, err := s.FileStore.List()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	if files == nil {
		files = []store.FileInfo{}
	}
	c.JSON(http.StatusOK, files)
}

func (s *Server) downloadFile(c *gin.Context) {
	name := c.Param("filename")
	path, err := s.FileStore.DownloadPath(name)
	if err != nil {
		c.JSON(fileErrorStatus(err), gin.H{"error": "文件不存在"})
		return
	}
	c.FileAttachment(path, name)
}

func (s *Server) deleteFile(c *gin.Context) {
	name := c.Param("filename")
	if err := s.FileStore.Delete(name); err != nil {
		c.JSON(fileErrorStatus(err), gin.H{"error": "文件不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("%s 已删除", name)})
}

func (s *Server) clearAllFiles(c *gin.Context) {
	deleted, failed, err := s.FileStore.Clear()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "删除文件时发生错误: "+err.Error())
		return
	}

	message := "没有需要删除的文件"
	if deleted > 0 {
		message = fmt.Sprintf("初始化完成，已删除 %d 个文件", deleted)
		if failed > 0 {
			message += fmt.Sprintf("（%d 个文件删除失败）", failed)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       message,
		"deleted_count": deleted,
		"error_count":   failed,
	})
}

// ================= 分析 =================

func (s *Server) analysisData(c *gin.Context) {
	c.JSON(http.StatusOK, s.Summary.BuildAnalysisData())
}

func (s *Server) checkAPIKey(c *gin.Context) {
	c.JSON(http.StatusOK, s.Analysis.CheckAPIKey())
}

type aiAnalysisRequest struct {
	APIKey string `json:"openai_api_key"`
}

func (s *Server) aiAnalysis(c *gin.Context) {
	var req aiAnalysisRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}
	outcome, err := s.Analysis.Run(c.Request.Context(), sessionID(c), req.APIKey)
	if err != nil {
		log.Errorf("AI分析失败: %v", err)
		errorJSON(c, http.StatusInternalServerError, "AI分析过程中发生错误: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) latestAIAnalysis(c *gin.Context) {
	result, name, err := s.Analysis.Latest()
	if errors.Is(err, service.ErrNoAnalysis) {
		c.JSON(http.StatusOK, gin.H{"status": "no_data", "message": err.Error()})
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "读取AI分析结果失败: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "analysis_result": result, "filename": name})
}

func (s *Server) analysisHistory(c *gin.Context) {
	history, err := s.Analysis.History(queryLimit(c, 20))
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "history": history})
}

// saveReport 用当前统计和最新的 AI 结果生成 HTML 报告
func (s *Server) saveReport() (string, error) {
	ai, _, err := s.Analysis.Latest()
	if err != nil && !errors.Is(err, service.ErrNoAnalysis) {
		return "", err
	}
	data := report.NewData(s.Summary.BuildAnalysisData(), ai, s.now())
	return s.Reports.SaveHTML(data)
}

func (s *Server) exportHTML(c *gin.Context) {
	name, err := s.saveReport()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "保存HTML报告失败: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"message":      "分析结果已保存为HTML文件",
		"filename":     name,
		"download_url": "/download/" + name,
	})
}

type exportPDFRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) exportPDF(c *gin.Context) {
	var req exportPDFRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		errorJSON(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	htmlName := req.Filename
	if htmlName == "" {
		name, err := s.saveReport()
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "保存HTML报告失败: "+err.Error())
			return
		}
		htmlName = name
	}

	pdfName, err := s.Reports.ExportPDF(c.Request.Context(), htmlName)
	if err != nil {
		status := fileErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Errorf("导出PDF失败: %v", err)
		}
		errorJSON(c, status, "导出PDF失败: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"message":      "分析报告已导出为PDF",
		"filename":     pdfName,
		"download_url": "/download/" + pdfName,
	})
}

// ================= 设置 =================

func (s *Server) getSettings(c *gin.Context) {
	var (
		configs []*model.ConfigEntity
		err     error
	)
	if category := c.Query("category"); category != "" {
		configs, err = s.Config.GetConfigsByCategory(category)
	} else {
		configs, err = s.Config.GetAllConfigs()
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "configs": configs})
}

func (s *Server) updateSettings(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		errorJSON(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}
	updated, err := s.Config.BatchUpdateConfigs(values)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "updated": updated})
}

// ================= 运行环境 =================

func (s *Server) health(c *gin.Context) {
	env := "Local"
	if utils.IsCloudEnvironment() {
		env = "Cloud"
	}
	activeConsents, err := s.Consent.ActiveCount()
	if err != nil {
		log.Warnf("统计有效同意失败: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"timestamp":       s.now().Format("2006-01-02T15:04:05"),
		"environment":     env,
		"sample_mode":     s.Collector.SampleMode(),
		"active_consents": activeConsents,
		"go_version":      runtime.Version(),
	})
}

func (s *Server) environment(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"environment": utils.GetEnvironmentInfo(),
		"sample_mode": s.Collector.SampleMode(),
	})
}
