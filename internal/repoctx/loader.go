package repoctx

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5"
	"github.com/yargevad/filepathx"

	"planify/internal/config"
)

// Binary extensions are never worth sending to a model.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".7z": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".wav": true, ".avi": true, ".mov": true,
	".sqlite": true, ".db": true, ".sqlite3": true,
	".pyc": true, ".pyo": true, ".class": true,
	".lock": true,
}

var skipDirs = map[string]bool{
	"node_modules":  true,
	".git":          true,
	"__pycache__":   true,
	".venv":         true,
	"venv":          true,
	".env":          true,
	"dist":          true,
	"build":         true,
	".next":         true,
	".nuxt":         true,
	"coverage":      true,
	".pytest_cache": true,
	".mypy_cache":   true,
}

// LoadedFile is a single file pulled into context.
type LoadedFile struct {
	Path      string
	Content   string
	Tokens    int
	Truncated bool
}

// LoadedContext aggregates everything loaded from a repository.
type LoadedContext struct {
	Files           []LoadedFile
	TotalTokens     int
	SecretsRedacted int
	FilesSkipped    []string
	Branch          string
	Commit          string
}

// ToPrompt renders the loaded files as a markdown context block.
func (c *LoadedContext) ToPrompt() string {
	var b strings.Builder
	b.WriteString("# Project Context\n")
	if c.Branch != "" {
		fmt.Fprintf(&b, "\nRepository branch: %s", c.Branch)
		if c.Commit != "" {
			fmt.Fprintf(&b, " (%s)", c.Commit)
		}
		b.WriteString("\n")
	}
	for _, f := range c.Files {
		fmt.Fprintf(&b, "## %s\n", f.Path)
		if f.Truncated {
			b.WriteString("(truncated)\n")
		}
		b.WriteString("```\n")
		b.WriteString(f.Content)
		b.WriteString("\n```\n\n")
	}
	return b.String()
}

// ContextLoader loads project files into an LLM-ready context, redacting
// secrets and enforcing token budgets along the way.
type ContextLoader struct {
	cfg           config.ContextConfig
	maxTokens     int
	maxFileTokens int
	sanitizer     *SecretSanitizer
}

// NewContextLoader builds a loader for the given context configuration.
// maxTokens and maxFileTokens fall back to 50000 and 5000 when zero.
func NewContextLoader(cfg config.ContextConfig, maxTokens, maxFileTokens int) *ContextLoader {
	if maxTokens <= 0 {
		maxTokens = 50000
	}
	if maxFileTokens <= 0 {
		maxFileTokens = 5000
	}
	return &ContextLoader{
		cfg:           cfg,
		maxTokens:     maxTokens,
		maxFileTokens: maxFileTokens,
		sanitizer:     NewSecretSanitizer(),
	}
}

// Load walks the repository and returns the assembled context. Auto-detected
// files (CLAUDE.md and friends) load first, then include pattern matches.
func (l *ContextLoader) Load(repoPath string) (*LoadedContext, error) {
	absRoot, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repo path: %w", err)
	}
	if info, err := os.Stat(absRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("repo path is not a directory: %s", repoPath)
	}

	ctx := &LoadedContext{}

	for _, name := range l.cfg.AutoDetect {
		path := filepath.Join(absRoot, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			l.loadFile(path, absRoot, ctx)
		}
	}

	for _, pattern := range l.cfg.IncludePatterns {
		matches, err := filepathx.Glob(filepath.Join(absRoot, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && info.Mode().IsRegular() {
				l.loadFile(match, absRoot, ctx)
			}
		}
	}

	l.attachGitMetadata(absRoot, ctx)

	return ctx, nil
}

// LoadSingleFile loads one file outside the normal include patterns. Returns
// nil when the file is missing, unreadable, or looks like a credential store.
func (l *ContextLoader) LoadSingleFile(path string) *LoadedFile {
	if l.sanitizer.IsDangerousFile(filepath.Base(path)) {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil || !utf8.Valid(data) {
		return nil
	}

	result := l.sanitizer.Sanitize(string(data))
	content := result.Text
	tokens := EstimateTokens(content)

	truncated := false
	if tokens > l.maxFileTokens {
		content = truncateToTokens(content, l.maxFileTokens)
		tokens = l.maxFileTokens
		truncated = true
	}

	return &LoadedFile{Path: path, Content: content, Tokens: tokens, Truncated: truncated}
}

func (l *ContextLoader) loadFile(path, root string, ctx *LoadedContext) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	for _, f := range ctx.Files {
		if f.Path == rel {
			return
		}
	}

	if l.shouldSkip(path, rel) {
		ctx.FilesSkipped = append(ctx.FilesSkipped, rel)
		return
	}

	if ctx.TotalTokens >= l.maxTokens {
		ctx.FilesSkipped = append(ctx.FilesSkipped, rel+" (token limit)")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		ctx.FilesSkipped = append(ctx.FilesSkipped, fmt.Sprintf("%s (%v)", rel, err))
		return
	}
	if !utf8.Valid(data) {
		ctx.FilesSkipped = append(ctx.FilesSkipped, rel+" (not utf-8)")
		return
	}

	result := l.sanitizer.Sanitize(string(data))
	content := result.Text
	ctx.SecretsRedacted += result.SecretsFound

	tokens := EstimateTokens(content)
	truncated := false
	if tokens > l.maxFileTokens {
		content = truncateToTokens(content, l.maxFileTokens)
		tokens = l.maxFileTokens
		truncated = true
	}

	if remaining := l.maxTokens - ctx.TotalTokens; tokens > remaining {
		content = truncateToTokens(content, remaining)
		tokens = remaining
		truncated = true
	}

	ctx.Files = append(ctx.Files, LoadedFile{
		Path:      rel,
		Content:   content,
		Tokens:    tokens,
		Truncated: truncated,
	})
	ctx.TotalTokens += tokens
}

func (l *ContextLoader) shouldSkip(path, rel string) bool {
	if binaryExtensions[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	for _, part := range strings.Split(rel, "/") {
		if skipDirs[part] {
			return true
		}
	}
	if l.sanitizer.IsDangerousFile(filepath.Base(path)) {
		return true
	}
	for _, pattern := range l.cfg.ExcludePatterns {
		if matchGlob(pattern, rel) {
			return true
		}
	}
	return false
}

// matchGlob matches a slash-separated path against a glob where * and **
// both cross path separators, mirroring fnmatch semantics.
func matchGlob(pattern, path string) bool {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// truncateToTokens cuts text down to roughly maxTokens, preferring a line
// boundary, and appends a truncation marker.
func truncateToTokens(text string, maxTokens int) string {
	if EstimateTokens(text) <= maxTokens {
		return text
	}
	maxChars := (maxTokens - 10) * 4
	if maxChars < 0 {
		maxChars = 0
	}
	if maxChars > len(text) {
		maxChars = len(text)
	}
	truncated := text[:maxChars]
	if idx := strings.LastIndex(truncated, "\n"); idx > maxChars/2 {
		truncated = truncated[:idx]
	}
	return truncated + "\n\n... [truncated]"
}

// attachGitMetadata records branch and short commit when the repo is a git
// working tree. Absence of git is not an error.
func (l *ContextLoader) attachGitMetadata(root string, ctx *LoadedContext) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return
	}
	head, err := repo.Head()
	if err != nil {
		return
	}
	if head.Name().IsBranch() {
		ctx.Branch = head.Name().Short()
	} else {
		ctx.Branch = "HEAD (detached)"
	}
	hash := head.Hash().String()
	if len(hash) >= 8 {
		ctx.Commit = hash[:8]
	}
}
