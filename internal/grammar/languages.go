package grammar

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Default is the grammar used when none is selected. It recognizes array
// literals, which makes it a good fit for quick experiments.
const Default = "javascript"

// extToLanguage maps file extensions to canonical grammar names.
var extToLanguage = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".json": "javascript",
	".py":   "python",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".java": "java",
	".php":  "php",
	".rb":   "ruby",
}

// aliases maps common short names to canonical grammar names.
var aliases = map[string]string{
	"golang": "go",
	"js":     "javascript",
	"ts":     "typescript",
	"py":     "python",
	"rs":     "rust",
	"c++":    "cpp",
	"rb":     "ruby",
}

// langToGrammar maps grammar names to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			"go":         golang.GetLanguage(),
			"typescript": ts.GetLanguage(),
			"javascript": javascript.GetLanguage(),
			"python":     python.GetLanguage(),
			"rust":       rust.GetLanguage(),
			"c":          c.GetLanguage(),
			"cpp":        cpp.GetLanguage(),
			"java":       java.GetLanguage(),
			"php":        php.GetLanguage(),
			"ruby":       ruby.GetLanguage(),
		}
	})
}

// Canonical resolves aliases and case, e.g. "JS" -> "javascript".
func Canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canon, ok := aliases[name]; ok {
		return canon
	}
	return name
}

// Languages returns the registered grammar names in sorted order.
func Languages() []string {
	initGrammars()
	names := make([]string, 0, len(langToGrammar))
	for name := range langToGrammar {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LanguageForFile returns the grammar name for a file path based on its
// extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// LanguageByName returns the tree-sitter Language for a grammar name or
// alias. Returns (nil, false) if the grammar is not registered.
func LanguageByName(name string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[Canonical(name)]
	return l, ok
}
