package collector

import (
	"path/filepath"
	"strings"
)

const categoryOther = "other"

type keywordCategory struct {
	name     string
	keywords []string
}

// 按顺序匹配，先命中先返回
var extensionCategories = []keywordCategory{
	{"development", []string{"postman", "redux", "react", "vue", "github", "devtools", "json", "api"}},
	{"productivity", []string{"notion", "todoist", "evernote", "pocket", "grammarly", "metamask"}},
	{"privacy", []string{"ublock", "adblock", "ghostery", "privacy badger", "disconnect"}},
	{"security", []string{"lastpass", "1password", "bitwarden", "dashlane", "keeper"}},
	{"shopping", []string{"honey", "rakuten", "capital one", "paypal", "amazon"}},
	{"accessibility", []string{"dark reader", "mercury reader", "stylus", "zoom"}},
	{"social", []string{"facebook", "twitter", "linkedin", "pinterest", "instagram"}},
	{"media", []string{"youtube", "netflix", "spotify", "soundcloud", "twitch"}},
}

var programCategories = []keywordCategory{
	{"development", []string{"visual studio", "code", "python", "java", "git", "node", "npm", "docker", "intellij", "eclipse", "sublime", "atom"}},
	{"design", []string{"photoshop", "illustrator", "figma", "sketch", "canva", "gimp", "blender"}},
	{"office", []string{"word", "excel", "powerpoint", "outlook", "teams", "slack", "notion", "trello"}},
	{"browser", []string{"chrome", "firefox", "safari", "edge", "opera"}},
	{"media", []string{"spotify", "youtube", "vlc", "media player", "itunes", "netflix"}},
	{"communication", []string{"discord", "telegram", "whatsapp", "zoom", "skype", "kakao"}},
	{"gaming", []string{"steam", "game", "epic", "origin", "battle.net"}},
	{"utility", []string{"winrar", "zip", "antivirus", "cleaner", "driver"}},
}

var fileCategories = []keywordCategory{
	{"document", []string{".docx", ".doc", ".pdf", ".txt", ".rtf", ".odt", ".pages"}},
	{"spreadsheet", []string{".xlsx", ".xls", ".csv", ".ods", ".numbers"}},
	{"presentation", []string{".pptx", ".ppt", ".odp", ".key"}},
	{"code", []string{".py", ".js", ".html", ".css", ".java", ".cpp", ".c", ".php", ".rb", ".go", ".rs", ".ts", ".jsx", ".vue", ".json", ".xml", ".yaml", ".yml"}},
	{"image", []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".tiff", ".ico"}},
	{"media", []string{".mp4", ".avi", ".mov", ".wmv", ".flv", ".mkv", ".mp3", ".wav", ".flac", ".aac"}},
	{"archive", []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"}},
	{"design", []string{".psd", ".ai", ".sketch", ".fig", ".xd", ".indd"}},
}

func matchKeywords(table []keywordCategory, name string) string {
	lower := strings.ToLower(name)
	for _, c := range table {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.name
			}
		}
	}
	return categoryOther
}

// CategorizeExtension 按扩展名称分类
func CategorizeExtension(name string) string {
	return matchKeywords(extensionCategories, name)
}

// CategorizeProgram 按程序名称分类
func CategorizeProgram(name string) string {
	return matchKeywords(programCategories, name)
}

// CategorizeFile 按文件后缀分类
func CategorizeFile(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return categoryOther
	}
	for _, c := range fileCategories {
		for _, e := range c.keywords {
			if ext == e {
				return c.name
			}
		}
	}
	return categoryOther
}
