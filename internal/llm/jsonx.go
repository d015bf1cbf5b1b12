package llm

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// FencedBlocks returns the bodies of every ``` fenced block in text.
func FencedBlocks(text string) []string {
	var out []string
	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		if body := strings.TrimSpace(m[1]); body != "" {
			out = append(out, body)
		}
	}
	return out
}

// ExtractObject finds a JSON object in an LLM response. It tries, in order,
// every fenced code block, a brace-matched scan from the first '{', and the
// span from the first '{' to the last '}'. Only syntactically valid JSON is
// returned.
func ExtractObject(text string) (string, bool) {
	return extract(text, '{', '}')
}

// ExtractArray is ExtractObject for a top-level JSON array.
func ExtractArray(text string) (string, bool) {
	return extract(text, '[', ']')
}

func extract(text string, open, close byte) (string, bool) {
	var candidates []string
	for _, b := range FencedBlocks(text) {
		candidates = append(candidates, b)
		if s, ok := matchBalanced(b, open, close); ok {
			candidates = append(candidates, s)
		}
	}
	if s, ok := matchBalanced(text, open, close); ok {
		candidates = append(candidates, s)
	}
	if start, end := strings.IndexByte(text, open), strings.LastIndexByte(text, close); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if len(c) == 0 || c[0] != open {
			continue
		}
		if gjson.Valid(c) {
			return c, true
		}
	}
	return "", false
}

// matchBalanced returns the substring from the first open byte to its
// matching close byte, skipping brackets inside JSON strings.
func matchBalanced(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// StringList reads a JSON array of strings at path, skipping blanks.
func StringList(obj, path string) []string {
	var out []string
	for _, v := range gjson.Get(obj, path).Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
