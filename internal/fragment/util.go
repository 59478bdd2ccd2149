package fragment

import "strings"

func joinLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

func estimateTokens(content string) int {
	return len(Tokenize(content)) + strings.Count(content, "\n")/4
}
