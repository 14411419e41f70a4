package parser

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)^```([\\w.+#-]*)[ \\t]*\\n(.*?)\\n?```$")

// StripFence removes a single ``` fence wrapping the whole of s, with an
// optional language tag. Fenced blocks inside the wrapper are left for the
// tokenizer. Anything else is returned trimmed but otherwise unchanged.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	m := fenceRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	body := m[2]
	if !innerFencesBalanced(body) {
		return s
	}
	return strings.TrimSpace(body)
}

// innerFencesBalanced reports whether every fence opened inside body is
// closed again. A fence line with an info string only opens; a bare fence
// line closes the open fence or opens a new one. An unbalanced body means
// the outer fence closed early and s is not one wrapper.
func innerFencesBalanced(body string) bool {
	open := false
	for _, line := range strings.Split(body, "\n") {
		l := strings.TrimSpace(line)
		if !strings.HasPrefix(l, "```") {
			continue
		}
		info := strings.TrimSpace(strings.TrimLeft(l, "`"))
		switch {
		case info == "":
			open = !open
		case !open:
			open = true
		}
	}
	return !open
}
