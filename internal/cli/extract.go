package cli

import "strings"

// extractCode pulls the contents of fenced code blocks out of a markdown
// response. When the response has no fences the full text is returned, so
// saving output never loses anything.
func extractCode(text string) string {
	var blocks []string
	inCode := false
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inCode {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
			}
			inCode = !inCode
			continue
		}
		if inCode {
			current = append(current, line)
		}
	}
	if len(blocks) == 0 {
		return text
	}
	return strings.Join(blocks, "\n\n") + "\n"
}
