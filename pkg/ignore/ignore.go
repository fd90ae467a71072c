// Package ignore decides which files of a checkpoint folder are uploaded.
//
// Patterns use fnmatch semantics against the slash-separated path relative
// to the folder root: '*' matches any run of characters including '/', '?'
// matches one character and [...] is a character class ([!...] negates).
// A pattern ending in '/' matches everything below that directory.
package ignore

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultIgnorePatterns are always applied on upload.
var DefaultIgnorePatterns = []string{
	".git",
	".git/*",
	"*/.git",
	"*/.git/*",
	".cache/huggingface",
	".cache/huggingface/*",
	"*/.cache/huggingface/*",
}

type pattern struct {
	raw string
	re  *regexp.Regexp
}

// Matcher checks relative paths against allow and ignore patterns.
type Matcher struct {
	allow  []pattern
	ignore []pattern
}

// New builds a Matcher. Blank patterns and patterns starting with '#' are
// skipped. With no allow patterns every path is allowed unless ignored.
func New(allow, ignore []string) *Matcher {
	return &Matcher{
		allow:  compile(allow),
		ignore: compile(ignore),
	}
}

// WithDefaults returns a Matcher that also applies DefaultIgnorePatterns.
func WithDefaults(allow, ignore []string) *Matcher {
	all := make([]string, 0, len(ignore)+len(DefaultIgnorePatterns))
	all = append(all, ignore...)
	all = append(all, DefaultIgnorePatterns...)
	return New(allow, all)
}

func compile(raw []string) []pattern {
	var out []pattern
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		glob := filepath.ToSlash(p)
		if strings.HasSuffix(glob, "/") {
			glob += "*"
		}
		out = append(out, pattern{raw: p, re: compileGlob(glob)})
	}
	return out
}

// Allowed reports whether relativePath should be uploaded.
func (m *Matcher) Allowed(relativePath string) bool {
	normalized := filepath.ToSlash(relativePath)
	if len(m.allow) > 0 && !matchAny(m.allow, normalized) {
		return false
	}
	return !matchAny(m.ignore, normalized)
}

// Ignored reports whether relativePath is excluded by an ignore pattern.
func (m *Matcher) Ignored(relativePath string) bool {
	return matchAny(m.ignore, filepath.ToSlash(relativePath))
}

// Patterns returns the effective ignore patterns in the order given.
func (m *Matcher) Patterns() []string {
	out := make([]string, len(m.ignore))
	for i, p := range m.ignore {
		out[i] = p.raw
	}
	return out
}

func matchAny(patterns []pattern, path string) bool {
	for _, p := range patterns {
		if p.re.MatchString(path) {
			return true
		}
	}
	return false
}

// Match reports whether path matches a single fnmatch pattern.
func Match(glob, path string) bool {
	return compileGlob(filepath.ToSlash(glob)).MatchString(filepath.ToSlash(path))
}

// compileGlob compiles a translated pattern. Should translation ever yield
// an invalid expression the pattern is matched literally.
func compileGlob(glob string) *regexp.Regexp {
	re, err := regexp.Compile(translate(glob))
	if err != nil {
		return regexp.MustCompile(`^` + regexp.QuoteMeta(glob) + `$`)
	}
	return re
}

// translate converts an fnmatch pattern into an anchored regular expression.
// An unterminated '[' is taken literally.
func translate(glob string) string {
	var b strings.Builder
	b.WriteString(`^(?s:`)
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			j := i + 1
			if j < len(glob) && glob[j] == '!' {
				j++
			}
			if j < len(glob) && glob[j] == ']' {
				j++
			}
			for j < len(glob) && glob[j] != ']' {
				j++
			}
			if j >= len(glob) {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(translateClass(glob[i+1 : j]))
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		}
	}
	b.WriteString(`)$`)
	return b.String()
}

// noMatch is a character class that matches nothing
const noMatch = `\p{^Any}`

// translateClass converts the inside of a [...] class. Ranges whose ends
// are reversed are empty and dropped; a class left empty never matches,
// and a negated empty class matches any character.
func translateClass(class string) string {
	negate := strings.HasPrefix(class, "!")
	if negate {
		class = class[1:]
	}

	runes := []rune(class)
	var items strings.Builder
	for k := 0; k < len(runes); k++ {
		lo := runes[k]
		if k+2 < len(runes) && runes[k+1] == '-' {
			hi := runes[k+2]
			k += 2
			if lo > hi {
				continue
			}
			items.WriteString(escapeClassRune(lo) + "-" + escapeClassRune(hi))
			continue
		}
		items.WriteString(escapeClassRune(lo))
	}

	switch {
	case items.Len() == 0 && negate:
		return `.`
	case items.Len() == 0:
		return noMatch
	case negate:
		return "[^" + items.String() + "]"
	default:
		return "[" + items.String() + "]"
	}
}

func escapeClassRune(r rune) string {
	switch r {
	case '\\', ']', '[', '^', '-':
		return `\` + string(r)
	}
	return string(r)
}
