package collector

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital_insight_go/config"
	"digital_insight_go/model"
)

func TestCategorize(t *testing.T) {
	assert.Equal(t, "development", CategorizeExtension("React Developer Tools"))
	assert.Equal(t, "privacy", CategorizeExtension("uBlock Origin"))
	assert.Equal(t, "other", CategorizeExtension("Some Unknown Thing"))

	assert.Equal(t, "development", CategorizeProgram("Microsoft Visual Studio Code"))
	assert.Equal(t, "browser", CategorizeProgram("Mozilla Firefox"))
	assert.Equal(t, "communication", CategorizeProgram("KakaoTalk"))
	assert.Equal(t, "other", CategorizeProgram("Foo"))

	assert.Equal(t, "document", CategorizeFile("report.DOCX"))
	assert.Equal(t, "code", CategorizeFile("main.go"))
	assert.Equal(t, "archive", CategorizeFile("backup.tar.gz"))
	assert.Equal(t, "other", CategorizeFile("README"))
}

func TestChromeTimeRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 30, 0, 0, time.Local)
	assert.True(t, chromeTime(toChromeTime(now)).Equal(now))
	assert.Equal(t, int64(11644473600*1_000_000), toChromeTime(time.Unix(0, 0)))
}

const bookmarksJSON = `{
  "roots": {
    "bookmark_bar": {
      "children": [
        {"type": "url", "name": "Go", "url": "https://go.dev", "date_added": "13380000000000000"},
        {"type": "folder", "name": "Work", "children": [
          {"type": "url", "name": "GitHub", "url": "https://github.com", "date_added": "13380000000000000"}
        ]}
      ]
    },
    "other": {"children": [
      {"type": "url", "name": "News", "url": "https://news.ycombinator.com", "date_added": "13380000000000000"}
    ]},
    "synced": {"children": [
      {"type": "url", "name": "Skipped", "url": "https://example.com", "date_added": "13380000000000000"}
    ]}
  }
}`

func TestParseBookmarks(t *testing.T) {
	bookmarks, err := ParseBookmarks([]byte(bookmarksJSON), true)
	require.NoError(t, err)
	require.Len(t, bookmarks, 3)

	assert.Equal(t, "Go", bookmarks[0].Title)
	assert.Equal(t, "bookmark_bar", bookmarks[0].Folder)
	assert.Equal(t, "bookmark_bar/Work", bookmarks[1].Folder)
	assert.Equal(t, "other", bookmarks[2].Folder)
	assert.Equal(t, model.FormatTime(chromeTime(13380000000000000)), bookmarks[0].DateAdded)

	flat, err := ParseBookmarks([]byte(bookmarksJSON), false)
	require.NoError(t, err)
	assert.Len(t, flat, 2)

	_, err = ParseBookmarks([]byte("{not json"), true)
	assert.Error(t, err)
}

func TestBookmarkCollector_Collect(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Bookmarks"), []byte(bookmarksJSON), 0o644))

	c := NewBookmarkCollector(config.CollectorConfig{ChromeDir: dir})
	records, err := c.Collect(context.Background(), model.CollectOptions{})
	require.NoError(t, err)
	assert.Len(t, records, 3)

	missing := NewBookmarkCollector(config.CollectorConfig{ChromeDir: filepath.Join(dir, "nope")})
	_, err = missing.Collect(context.Background(), model.CollectOptions{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBookmarkCollector_FilterSample(t *testing.T) {
	c := NewBookmarkCollector(config.CollectorConfig{})
	sample := c.Sample(time.Now())
	require.Len(t, sample, 15)

	all := c.Filter(sample, model.CollectOptions{}, time.Now())
	assert.Len(t, all, 15)

	feb := c.Filter(sample, model.CollectOptions{StartDate: "2025-02-01", EndDate: "2025-03-31"}, time.Now())
	assert.Len(t, feb, 6)

	// 结束日期当天包含在内
	firstDay := c.Filter(sample, model.CollectOptions{EndDate: "2025-01-06"}, time.Now())
	require.Len(t, firstDay, 1)
	assert.Equal(t, "ChatGPT", firstDay[0].(model.Bookmark).Title)
}

func TestHistoryCollector_FilterSample(t *testing.T) {
	c := NewHistoryCollector(config.CollectorConfig{HistoryDays: 30})
	now := time.Now()
	sample := c.Sample(now)
	require.Len(t, sample, 18)

	assert.Len(t, c.Filter(sample, model.CollectOptions{}, now), 15)
	assert.Len(t, c.Filter(sample, model.CollectOptions{DaysBack: 7}, now), 10)
	assert.Len(t, c.Filter(sample, model.CollectOptions{DaysBack: 90}, now), 18)
}

func TestHistoryCollector_Collect(t *testing.T) {
	dir := t.TempDir()
	db, err := sql.Open("sqlite", filepath.Join(dir, "History"))
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE urls (id INTEGER PRIMARY KEY, url TEXT, title TEXT, visit_count INTEGER, last_visit_time INTEGER)`)
	require.NoError(t, err)

	now := time.Now()
	insert := `INSERT INTO urls (url, title, visit_count, last_visit_time) VALUES (?, ?, ?, ?)`
	_, err = db.Exec(insert, "https://go.dev/doc", "Go Docs", 5, toChromeTime(now.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = db.Exec(insert, "https://pkg.go.dev", nil, 3, toChromeTime(now.Add(-2*time.Hour)))
	require.NoError(t, err)
	_, err = db.Exec(insert, "https://old.example.com", "Old", 1, toChromeTime(now.AddDate(0, 0, -60)))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c := NewHistoryCollector(config.CollectorConfig{ChromeDir: dir, HistoryDays: 30})
	records, err := c.Collect(context.Background(), model.CollectOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0].(model.HistoryEntry)
	assert.Equal(t, "go.dev", first.Domain)
	assert.Equal(t, 5, first.VisitCount)
	assert.Equal(t, "No Title", records[1].(model.HistoryEntry).Title)
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "github.com", Domain("https://github.com/trending"))
	assert.Equal(t, "localhost:8080", Domain("http://localhost:8080/x"))
	assert.Equal(t, "about:blank", Domain("about:blank"))
}

func TestLatestVersion(t *testing.T) {
	assert.Equal(t, "1.10.0_0", LatestVersion([]string{"1.9.2_0", "1.10.0_0", "1.2.0_1"}))
	assert.Equal(t, "120.0.6099.109_0", LatestVersion([]string{"119.0.1.1_0", "120.0.6099.109_0"}))
	assert.Equal(t, "b", LatestVersion([]string{"a", "b"}))
}

func TestExtensionCollector_Collect(t *testing.T) {
	dir := t.TempDir()
	writeManifest := func(id, version, body string) {
		p := filepath.Join(dir, "Extensions", id, version)
		require.NoError(t, os.MkdirAll(p, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(p, "manifest.json"), []byte(body), 0o644))
	}
	writeManifest("abc", "1.9.0_0", `{"name":"Old Postman","version":"1.9.0"}`)
	writeManifest("abc", "1.10.0_0", `{"name":"Postman Interceptor","version":"1.10.0","description":"API","permissions":["tabs",{"host":"x"},"storage"]}`)
	writeManifest("broken", "1.0_0", `{oops`)

	c := NewExtensionCollector(config.CollectorConfig{ChromeDir: dir})
	records, err := c.Collect(context.Background(), model.CollectOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	ext := records[0].(model.Extension)
	assert.Equal(t, "abc", ext.ID)
	assert.Equal(t, "1.10.0", ext.Version)
	assert.Equal(t, []string{"tabs", "storage"}, ext.Permissions)
	assert.Equal(t, "development", ext.Category)
	assert.Equal(t, "tabs;storage", ext.CSVRow()[4])
}

func TestParseManifestDefaults(t *testing.T) {
	ext, err := ParseManifest("x", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "Unknown Extension", ext.Name)
	assert.Equal(t, "Unknown", ext.Version)
	assert.Equal(t, "other", ext.Category)
	assert.Empty(t, ext.Permissions)
}

func TestFormatInstallDate(t *testing.T) {
	assert.Equal(t, "2024-01-15", FormatInstallDate("20240115"))
	assert.Equal(t, "Unknown", FormatInstallDate("2024"))
	assert.Equal(t, "Unknown", FormatInstallDate(""))

	p := newInstalledProgram("Steam", "", "", "20240205")
	assert.Equal(t, "Unknown", p.Version)
	assert.Equal(t, "Unknown", p.Publisher)
	assert.Equal(t, "2024-02-05", p.InstallDate)
	assert.Equal(t, "gaming", p.Category)
}

func TestRecentFilesCollector_Collect(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch := func(name string, mod time.Time) {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, nil, 0o644))
		require.NoError(t, os.Chtimes(p, mod, mod))
	}
	touch("report.docx.lnk", now.Add(-time.Hour))
	touch("main.py.lnk", now.Add(-48*time.Hour))
	touch("old.txt.lnk", now.Add(-10*24*time.Hour))
	touch("notes.txt", now)

	c := NewRecentFilesCollector(config.CollectorConfig{RecentDir: dir, RecentPattern: "*.lnk", RecentDays: 7})
	records, err := c.Collect(context.Background(), model.CollectOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0].(model.RecentFile)
	assert.Equal(t, "report.docx", first.Name)
	assert.Equal(t, ".docx", first.Extension)
	assert.Equal(t, "document", first.Category)
	assert.Equal(t, "code", records[1].(model.RecentFile).Category)

	wide, err := c.Collect(context.Background(), model.CollectOptions{DaysBack: 30})
	require.NoError(t, err)
	assert.Len(t, wide, 3)
}

func TestRecentFilesCollector_Unavailable(t *testing.T) {
	c := &RecentFilesCollector{pattern: "*.lnk", limit: 30, defaultDays: 7}
	_, err := c.Collect(context.Background(), model.CollectOptions{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(config.CollectorConfig{})
	assert.Equal(t, model.AllKinds, r.Kinds())
	for _, k := range model.AllKinds {
		c, ok := r.Get(k)
		require.True(t, ok, k)
		assert.NotEmpty(t, c.Header())
		assert.NotEmpty(t, c.Sample(time.Now()), k)
	}
}

func TestNetworkSampleRows(t *testing.T) {
	sample := NewNetworkCollector().Sample(time.Now())
	require.Len(t, sample, 5)
	row := sample[0].CSVRow()
	assert.Equal(t, "WiFi", row[0])
	assert.Equal(t, "true", row[4])
	assert.Equal(t, "1500", row[6])
	assert.Equal(t, "", sample[2].CSVRow()[4])
}
