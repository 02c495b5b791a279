package language

import (
	"path/filepath"
	"strings"
)

// extensionTags maps file extensions to language tags. Lookups are
// case-insensitive on the extension.
var extensionTags = map[string]string{
	".go":     "go",
	".py":     "python",
	".js":     "javascript",
	".jsx":    "javascript",
	".mjs":    "javascript",
	".ts":     "typescript",
	".tsx":    "typescript",
	".java":   "java",
	".rb":     "ruby",
	".rs":     "rust",
	".c":      "c",
	".h":      "c",
	".cpp":    "cpp",
	".cc":     "cpp",
	".hpp":    "cpp",
	".cs":     "csharp",
	".php":    "php",
	".swift":  "swift",
	".kt":     "kotlin",
	".kts":    "kotlin",
	".scala":  "scala",
	".sh":     "shell",
	".bash":   "shell",
	".zsh":    "shell",
	".ps1":    "powershell",
	".sql":    "sql",
	".html":   "html",
	".htm":    "html",
	".css":    "css",
	".scss":   "scss",
	".json":   "json",
	".yaml":   "yaml",
	".yml":    "yaml",
	".toml":   "toml",
	".md":     "markdown",
	".xml":    "xml",
	".proto":  "protobuf",
	".tf":     "terraform",
	".lua":    "lua",
	".r":      "r",
	".ex":     "elixir",
	".exs":    "elixir",
	".erl":    "erlang",
	".hs":     "haskell",
	".dart":   "dart",
	".vue":    "vue",
	".svelte": "svelte",
	".pl":     "perl",
	".m":      "objective-c",
	".gradle": "groovy",
}

// basenameTags covers well-known files with no meaningful extension.
var basenameTags = map[string]string{
	"dockerfile": "dockerfile",
	"makefile":   "makefile",
	"gemfile":    "ruby",
	"rakefile":   "ruby",
}

// DefaultTag is returned for any path with an unrecognized extension.
const DefaultTag = "plaintext"

// Detect maps a file path to a language tag. It never fails: unknown
// extensions map to DefaultTag.
func Detect(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if tag, ok := basenameTags[base]; ok {
		return tag
	}
	if tag, ok := extensionTags[strings.ToLower(filepath.Ext(path))]; ok {
		return tag
	}
	return DefaultTag
}
