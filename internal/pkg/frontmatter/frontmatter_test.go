package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWithHeader(t *testing.T) {
	input := "---\ntitle: Groceries\ntags:\n  - home\n  - list\npinned: true\n---\n# Groceries\n\n- milk\n"
	meta, body, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Equal(t, "Groceries", meta.Title)
	require.Equal(t, []string{"home", "list"}, meta.Tags)
	require.True(t, meta.Pinned)
	require.Equal(t, "# Groceries\n\n- milk\n", body)
}

func TestParseWithoutHeader(t *testing.T) {
	meta, body, err := Parse([]byte("plain text"))
	require.NoError(t, err)
	require.Empty(t, meta.Title)
	require.Equal(t, "plain text", body)
}

func TestParseCRLF(t *testing.T) {
	meta, body, err := Parse([]byte("---\r\ntitle: x\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.Equal(t, "x", meta.Title)
	require.Equal(t, "body\n", body)
}

func TestParseUnterminated(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: x\nbody"))
	require.ErrorIs(t, err, ErrUnterminated)
}

func TestFormatThenParse(t *testing.T) {
	data, err := Format(Meta{Title: "Trip", Notebook: "Travel", Tags: []string{"japan"}}, "day one")
	require.NoError(t, err)
	meta, body, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, "Trip", meta.Title)
	require.Equal(t, "Travel", meta.Notebook)
	require.Equal(t, []string{"japan"}, meta.Tags)
	require.Equal(t, "day one\n", body)
}
