package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainTextStripsMarkup(t *testing.T) {
	out := PlainText("# Title\n\nSome **bold** and [a link](http://x.y).\n\n- one\n- two\n")
	require.Contains(t, out, "Title")
	require.Contains(t, out, "Some bold and a link.")
	require.Contains(t, out, "one")
	require.Contains(t, out, "two")
	require.NotContains(t, out, "**")
	require.NotContains(t, out, "http://x.y")
}

func TestPlainTextKeepsCode(t *testing.T) {
	out := PlainText("intro\n\n```go\nfmt.Println(1)\n```\n")
	require.Contains(t, out, "fmt.Println(1)")
	require.NotContains(t, out, "```")
}

func TestPlainTextCollapsesBlankLines(t *testing.T) {
	out := PlainText("a\n\n\n\nb")
	require.False(t, strings.Contains(out, "\n\n\n"))
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML("# Hi\n\n~~gone~~")
	require.NoError(t, err)
	require.Contains(t, out, "<h1>Hi</h1>")
	require.Contains(t, out, "<del>gone</del>")
}
