package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital_insight_go/collector"
	"digital_insight_go/config"
	"digital_insight_go/report"
	"digital_insight_go/repository"
	"digital_insight_go/service"
	"digital_insight_go/store"
	"digital_insight_go/worker/collect"
)

type testEnv struct {
	server *Server
	cookie *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.OpenDatabase("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	fileStore, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	collectorCfg := config.CollectorConfig{ForceSample: true, HistoryDays: 30, RecentDays: 7}
	collectorService := service.NewCollectorService(
		collector.NewRegistry(collectorCfg), fileStore, repository.NewCollectionRunRepository(db), collectorCfg)
	aiCfg := config.Default().AI
	configService := service.NewConfigService(repository.NewConfigRepository(db), aiCfg)
	summaryService := service.NewSummaryService(fileStore)
	analysisService := service.NewAnalysisService(
		service.NewAiService(aiCfg), configService, summaryService, fileStore,
		repository.NewAnalysisRepository(db), "zh")

	jobs := collect.NewCollectJobService(collectorService)
	hub := collect.NewHub()
	t.Cleanup(func() {
		jobs.Wait()
		hub.Close()
	})

	s := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0, Secret: "test-secret"}, Deps{
		Consent:   service.NewConsentService(repository.NewConsentRepository(db), "test-secret"),
		Collector: collectorService,
		Summary:   summaryService,
		Analysis:  analysisService,
		Config:    configService,
		FileStore: fileStore,
		Reports:   report.NewGenerator(fileStore, config.ReportConfig{}),
		Jobs:      jobs,
		Hub:       hub,
	})
	return &testEnv{server: s}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

// doChunked 发送不带 Content-Length 的请求体
func (e *testEnv) doChunked(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Body = io.NopCloser(strings.NewReader(body))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) consent(t *testing.T) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/consent", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/data_collection", w.Header().Get("Location"))

	for _, c := range w.Result().Cookies() {
		if c.Name == consentCookie {
			e.cookie = c
		}
	}
	require.NotNil(t, e.cookie)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestConsentGate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/data_collection", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = env.do(t, http.MethodGet, "/list_files", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Consent not given"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/consent"`)

	env.consent(t)

	w = env.do(t, http.MethodGet, "/data_collection", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-kind="bookmarks"`)
	assert.Contains(t, w.Body.String(), "示例数据模式")

	w = env.do(t, http.MethodGet, "/list_files", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodPost, "/withdraw_consent", "")
	assert.Equal(t, http.StatusFound, w.Code)

	// 撤回后旧凭证失效
	w = env.do(t, http.MethodGet, "/list_files", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestForgedCookieRejected(t *testing.T) {
	env := newTestEnv(t)
	env.cookie = &http.Cookie{Name: consentCookie, Value: "not-a-token"}
	w := env.do(t, http.MethodGet, "/get_analysis_data", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCollectAndManageFiles(t *testing.T) {
	env := newTestEnv(t)
	env.consent(t)

	w := env.do(t, http.MethodPost, "/collect_bookmarks", `{"start_date":"","end_date":""}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(15), body["total_count"])
	assert.Equal(t, "sample_cloud", body["source"])
	assert.Len(t, body["data_preview"], 5)
	filename := body["filename"].(string)
	assert.True(t, strings.HasPrefix(filename, "bookmarks_"))

	w = env.do(t, http.MethodPost, "/collect_bookmarks", `{bad json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/list_files", "")
	var files []store.FileInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, filename, files[0].Name)

	w = env.do(t, http.MethodGet, "/download/"+filename, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), filename)

	w = env.do(t, http.MethodGet, "/download/notes.txt", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/download/..secret.csv", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/collection_runs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["runs"], 1)

	w = env.do(t, http.MethodDelete, "/delete/"+filename, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, "/delete/"+filename, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/clear_all_files", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["deleted_count"])
}

func TestCollectAll(t *testing.T) {
	env := newTestEnv(t)
	env.consent(t)

	w := env.do(t, http.MethodPost, "/collect_all", `{"kinds":["bookmarks","nope"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/collect_all", `{"kinds":["bookmarks","network_info"]}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	env.server.Jobs.Wait()

	w = env.do(t, http.MethodGet, "/list_files", "")
	var files []store.FileInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	assert.Len(t, files, 2)

	w = env.do(t, http.MethodGet, "/collect_all/status", "")
	assert.Equal(t, false, decode(t, w)["isRunning"])
}

func TestCollectAllChunkedBody(t *testing.T) {
	env := newTestEnv(t)
	env.consent(t)

	w := env.doChunked(t, http.MethodPost, "/collect_all", `{"kinds":["bookmarks","nope"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doChunked(t, http.MethodPost, "/collect_all", `{"kinds":["bookmarks"]}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	env.server.Jobs.Wait()

	w = env.do(t, http.MethodGet, "/list_files", "")
	var files []store.FileInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	assert.Len(t, files, 1)

	w = env.do(t, http.MethodGet, "/collection_runs?kind=bookmarks", "")
	require.Equal(t, http.StatusOK, w.Code)
	runs := decode(t, w)["runs"].([]interface{})
	require.Len(t, runs, 1)
	assert.Equal(t, "bookmarks", runs[0].(map[string]interface{})["kind"])

	w = env.do(t, http.MethodGet, "/collection_runs?kind=system_info", "")
	assert.Len(t, decode(t, w)["runs"], 0)

	w = env.do(t, http.MethodGet, "/collection_runs?kind=nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doChunked(t, http.MethodPost, "/collect_all", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	env.server.Jobs.Wait()
}

func TestAnalysisFlowWithoutAPIKey(t *testing.T) {
	env := newTestEnv(t)
	env.consent(t)

	w := env.do(t, http.MethodGet, "/get_ai_analysis_data", "")
	assert.Equal(t, "no_data", decode(t, w)["status"])

	w = env.do(t, http.MethodGet, "/check_api_key", "")
	body := decode(t, w)
	assert.Equal(t, false, body["has_key"])
	assert.Equal(t, "not_found", body["status"])

	w = env.do(t, http.MethodPost, "/ai_analysis", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, false, body["ai_powered"])
	assert.True(t, strings.HasPrefix(body["filename"].(string), "ai_analysis_"))

	w = env.do(t, http.MethodGet, "/get_ai_analysis_data", "")
	body = decode(t, w)
	assert.Equal(t, "success", body["status"])
	result := body["analysis_result"].(map[string]interface{})
	assert.Equal(t, "ESTJ", result["mbti_analysis"].(map[string]interface{})["predicted_type"])

	w = env.do(t, http.MethodGet, "/analysis_history", "")
	assert.Len(t, decode(t, w)["history"], 1)

	w = env.do(t, http.MethodGet, "/get_analysis_data", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "timePattern")

	w = env.do(t, http.MethodPost, "/export_analysis_html", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.True(t, strings.HasPrefix(body["filename"].(string), report.Prefix+"_"))
	assert.Equal(t, "/download/"+body["filename"].(string), body["download_url"])

	w = env.do(t, http.MethodPost, "/export_analysis_pdf", `{"filename":"missing.html"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)
	env.consent(t)

	w := env.do(t, http.MethodPut, "/settings", `{"MODEL":"gpt-4o-mini","API_KEY":"sk-abcdefghijklmnopqrstuvwxyz"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode(t, w)["updated"])

	w = env.do(t, http.MethodGet, "/settings", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gpt-4o-mini")
	assert.NotContains(t, w.Body.String(), "sk-abcdefghijklmnopqrstuvwxyz")

	w = env.do(t, http.MethodGet, "/settings?category=ai", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gpt-4o-mini")
	assert.NotContains(t, w.Body.String(), "sk-abcdefghijklmnopqrstuvwxyz")

	w = env.do(t, http.MethodGet, "/settings?category=other", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "gpt-4o-mini")

	w = env.do(t, http.MethodGet, "/check_api_key", "")
	assert.Equal(t, true, decode(t, w)["has_key"])
}

func TestHealthAndEnvironment(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["sample_mode"])
	assert.Equal(t, float64(0), body["active_consents"])

	env.consent(t)
	w = env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, float64(1), decode(t, w)["active_consents"])

	w = env.do(t, http.MethodGet, "/environment", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "environment")
}
