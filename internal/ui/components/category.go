package components

import (
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type category int

const (
	catOther category = iota
	catMedia
	catCode
	catArchive
	catDocument
	catSystem
	catExecutable
)

var categoryColors = map[category]lipgloss.Color{
	catMedia:      "#E06C75",
	catCode:       "#61AFEF",
	catArchive:    "#E5C07B",
	catDocument:   "#98C379",
	catSystem:     "#C678DD",
	catExecutable: "#D19A66",
	catOther:      "#ABB2BF",
}

func extensions(cat category, exts ...string) map[string]category {
	m := make(map[string]category, len(exts))
	for _, e := range exts {
		m[e] = cat
	}
	return m
}

var extCategories = func() map[string]category {
	all := map[string]category{}
	for _, group := range []map[string]category{
		extensions(catMedia,
			".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".heic", ".tiff", ".psd", ".raw",
			".mp4", ".mkv", ".avi", ".mov", ".webm", ".m4v", ".mpg",
			".mp3", ".flac", ".wav", ".aac", ".ogg", ".m4a", ".opus"),
		extensions(catCode,
			".go", ".py", ".js", ".ts", ".tsx", ".rs", ".c", ".cpp", ".h", ".java", ".kt", ".swift",
			".rb", ".php", ".cs", ".lua", ".html", ".css", ".sql", ".sh", ".json", ".yaml", ".yml",
			".toml", ".xml", ".proto"),
		extensions(catArchive,
			".zip", ".tar", ".gz", ".tgz", ".bz2", ".xz", ".zst", ".rar", ".7z", ".iso", ".dmg",
			".deb", ".rpm", ".jar"),
		extensions(catDocument,
			".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".odt", ".txt", ".md",
			".csv", ".epub"),
		extensions(catSystem,
			".log", ".bak", ".tmp", ".swp", ".lock", ".cache", ".db", ".sqlite", ".dll", ".dylib", ".so"),
		extensions(catExecutable,
			".exe", ".msi", ".bin", ".wasm", ".pyc", ".class", ".o", ".a"),
	} {
		for ext, cat := range group {
			all[ext] = cat
		}
	}
	return all
}()

// fileColor picks a treemap tile color from a file's extension.
func fileColor(name string) lipgloss.Color {
	cat, ok := extCategories[strings.ToLower(path.Ext(name))]
	if !ok {
		cat = catOther
	}
	return categoryColors[cat]
}
