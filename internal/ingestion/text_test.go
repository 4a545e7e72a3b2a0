package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText_PreserveMarkdownHeadings(t *testing.T) {
	input := "# Title\n  ## Subtitle\nContent here"
	result := CleanText(input)

	assert.Contains(t, result, "# Title")
	assert.Contains(t, result, "\n## Subtitle")
	assert.Contains(t, result, "Content here")
}

func TestCleanText_PreserveBulletLists(t *testing.T) {
	input := "- Item 1\n- Item   2\n* Item 3"
	result := CleanText(input)

	assert.Equal(t, "- Item 1\n- Item 2\n* Item 3", result)
}

func TestCleanText_NormalizesBulletGlyphs(t *testing.T) {
	input := "• Go\n· Kubernetes\n● PostgreSQL"
	assert.Equal(t, "- Go\n- Kubernetes\n- PostgreSQL", CleanText(input))
}

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	result := CleanText("Line    with \t multiple spaces")
	assert.Equal(t, "Line with multiple spaces", result)
}

func TestCleanText_RemoveExcessiveBlankLines(t *testing.T) {
	result := CleanText("Line 1\n\n\n\n\nLine 2")
	assert.Equal(t, "Line 1\n\nLine 2", result)
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	result := CleanText("Line 1\r\nLine 2\rLine 3\nLine 4")
	assert.Equal(t, "Line 1\nLine 2\nLine 3\nLine 4", result)
}

func TestCleanText_Idempotent(t *testing.T) {
	input := "  Test content   with   spaces\n\n\n• Multiple   blank   lines\r\n"
	once := CleanText(input)
	assert.Equal(t, once, CleanText(once))
}

func TestCleanText_EmptyInput(t *testing.T) {
	assert.Empty(t, CleanText(""))
	assert.Empty(t, CleanText("   \n  \n  "))
}

func TestCleanText_SpecialCharacters(t *testing.T) {
	result := CleanText("Test with émojis 🚀 and spéciàl chàracters")
	assert.Equal(t, "Test with émojis 🚀 and spéciàl chàracters", result)
}

func TestCleanText_PreserveIndentation(t *testing.T) {
	result := CleanText("Header\n    Indented   line\n  - nested")
	assert.Equal(t, "Header\n    Indented line\n  - nested", result)
}
