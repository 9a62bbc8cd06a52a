package gitignore

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// patternType picks the matching strategy precomputed at parse time.
type patternType int

const (
	patternExact patternType = iota
	patternPrefix
	patternSuffix
	patternWildcard
	patternComplex
)

// Pattern is one parsed gitignore line.
type Pattern struct {
	Raw       string
	Negate    bool
	Directory bool
	Anchored  bool

	kind     patternType
	prefix   string
	suffix   string
	compiled *regexp.Regexp
}

// Matcher evaluates paths against an ordered gitignore pattern list.
// Later patterns override earlier ones, negations included.
type Matcher struct {
	patterns []Pattern
}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// LoadFile parses one gitignore file. A missing file is not an error.
func (m *Matcher) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.Add(line)
	}
	return scanner.Err()
}

// Add parses and appends a single pattern line.
func (m *Matcher) Add(line string) {
	m.patterns = append(m.patterns, parsePattern(line))
}

// Patterns returns the parsed pattern list in file order.
func (m *Matcher) Patterns() []Pattern {
	return m.patterns
}

// Match reports whether the slash-separated relative path is ignored.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	ignored := false
	for _, p := range m.patterns {
		if p.matches(path, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func parsePattern(line string) Pattern {
	p := Pattern{Raw: line}
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Anchored = true
		line = line[1:]
	}
	// A slash in the middle anchors the pattern to the root too.
	if strings.Contains(line, "/") {
		p.Anchored = true
	}
	p.Raw = line
	p.kind, p.prefix, p.suffix, p.compiled = classify(line)
	return p
}

// classify picks the cheapest matching strategy the pattern allows.
func classify(pattern string) (patternType, string, string, *regexp.Regexp) {
	if !strings.ContainsAny(pattern, "*?[") {
		return patternExact, "", "", nil
	}
	simple := strings.Contains(pattern, "*") &&
		!strings.Contains(pattern, "**") &&
		!strings.ContainsAny(pattern, "?[")
	if simple {
		if strings.HasPrefix(pattern, "*") && !strings.Contains(pattern[1:], "*") {
			return patternSuffix, "", pattern[1:], nil
		}
		if strings.HasSuffix(pattern, "*") && !strings.Contains(pattern[:len(pattern)-1], "*") {
			return patternPrefix, pattern[:len(pattern)-1], "", nil
		}
	}
	if re, err := regexp.Compile(globRegex(pattern)); err == nil {
		return patternComplex, "", "", re
	}
	return patternWildcard, "", "", nil
}

// globRegex converts a gitignore glob to an anchored regex. "**" crosses
// directory boundaries, "*" and "?" do not.
func globRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				b.WriteString(".*")
				i++
				// Collapse "**/" so it also matches zero directories.
				if i+1 < len(pattern) && pattern[i+1] == '/' {
					b.WriteString("/?")
					i++
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(pattern[i:], ']')
			if end < 0 {
				b.WriteString(regexp.QuoteMeta(string(c)))
			} else {
				b.WriteString(pattern[i : i+end+1])
				i += end
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func (p Pattern) matches(path string, isDir bool) bool {
	if p.Directory {
		if isDir && p.matchAnyComponentRun(path) {
			return true
		}
		// Files inside a matching directory are covered too.
		return p.matchesParentDir(path)
	}
	return p.matchAnyComponentRun(path)
}

// matchAnyComponentRun matches the full path for anchored patterns, or
// any trailing component run for floating ones.
func (p Pattern) matchAnyComponentRun(path string) bool {
	if p.match(path) {
		return true
	}
	if p.Anchored {
		return false
	}
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if p.match(strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

func (p Pattern) matchesParentDir(path string) bool {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		dir := strings.Join(parts[:i+1], "/")
		if p.matchAnyComponentRun(dir) {
			return true
		}
	}
	return false
}

func (p Pattern) match(path string) bool {
	switch p.kind {
	case patternExact:
		return p.Raw == path
	case patternPrefix:
		return strings.HasPrefix(path, p.prefix)
	case patternSuffix:
		return strings.HasSuffix(path, p.suffix)
	case patternComplex:
		return p.compiled.MatchString(path)
	case patternWildcard:
		matched, _ := filepath.Match(p.Raw, path)
		return matched
	}
	return false
}
