package worktree

import (
	"bufio"
	"io"
	"path"
	"regexp"
	"strings"
)

// Matcher decides whether a repository-relative path is excluded from the
// working tree. Later rules override earlier ones, so a "!" rule can
// re-include something a previous rule excluded.
type Matcher struct {
	rules []rule
}

type rule struct {
	negated  bool
	dirOnly  bool
	anchored bool // contains a slash: matched against the full path
	re       *regexp.Regexp
}

// NewMatcher returns a Matcher that always excludes the given directory
// names wherever they appear.
func NewMatcher(alwaysExclude ...string) *Matcher {
	m := &Matcher{}
	for _, name := range alwaysExclude {
		m.rules = append(m.rules, rule{dirOnly: true, re: regexp.MustCompile("^" + regexp.QuoteMeta(name) + "$")})
	}
	return m
}

// AddPatterns parses gitignore-style lines from r. Blank lines and
// comments are skipped.
func (m *Matcher) AddPatterns(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ru, ok := parseRule(scanner.Text()); ok {
			m.rules = append(m.rules, ru)
		}
	}
	return scanner.Err()
}

// AddPattern adds a single pattern line.
func (m *Matcher) AddPattern(line string) {
	if ru, ok := parseRule(line); ok {
		m.rules = append(m.rules, ru)
	}
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}
	var ru rule
	if strings.HasPrefix(line, "!") {
		ru.negated = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\`) {
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		ru.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		ru.anchored = true
		line = line[1:]
	}
	if line == "" {
		return rule{}, false
	}
	ru.anchored = ru.anchored || strings.Contains(line, "/")
	re, err := regexp.Compile(globToRegex(line))
	if err != nil {
		return rule{}, false
	}
	ru.re = re
	return ru, true
}

// Excluded reports whether p (slash-separated, relative to the root)
// should be skipped. isDir tells whether p itself is a directory.
// A path inside an excluded directory is excluded too.
func (m *Matcher) Excluded(p string, isDir bool) bool {
	p = strings.Trim(p, "/")
	excluded := false
	matched := -1

	check := func(candidate string, candidateIsDir bool) {
		base := path.Base(candidate)
		for i, ru := range m.rules {
			if i <= matched {
				continue
			}
			if ru.dirOnly && !candidateIsDir {
				continue
			}
			target := base
			if ru.anchored {
				target = candidate
			}
			if ru.re.MatchString(target) {
				matched = i
				excluded = !ru.negated
			}
		}
	}

	// Ancestors first: a match on a parent directory applies to everything
	// beneath it unless a later rule re-includes the child.
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			check(p[:i], true)
		}
	}
	check(p, isDir)
	return excluded
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case ch == '*' && strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString("(?:.*/)?")
			i += 2
		case ch == '*' && strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(".*")
			i++
		case ch == '*':
			b.WriteString("[^/]*")
		case ch == '?':
			b.WriteString("[^/]")
		case ch == '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	b.WriteString("$")
	return b.String()
}
