package ingestion

import (
	"regexp"
	"strings"
)

var (
	multiSpace     = regexp.MustCompile(`\s+`)
	excessiveBlank = regexp.MustCompile(`\n\n\n+`)
)

// bulletGlyphs are list markers that word processors and PDFs emit, mapped to "- ".
var bulletGlyphs = []string{"• ", "· ", "▪ ", "◦ ", "● ", "– "}

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = excessiveBlank.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	indent := len(line) - len(trimmed)

	// Markdown headings lose their indentation.
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	for _, glyph := range bulletGlyphs {
		if strings.HasPrefix(trimmed, glyph) {
			trimmed = "- " + strings.TrimPrefix(trimmed, glyph)
			break
		}
	}
	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return strings.Repeat(" ", indent) + trimmed[:2] + multiSpace.ReplaceAllString(strings.TrimSpace(trimmed[2:]), " ")
	}

	return strings.Repeat(" ", indent) + multiSpace.ReplaceAllString(strings.TrimSpace(line), " ")
}
