package importer

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/griffin/internal/client"
	"github.com/xxxsen/griffin/internal/model"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"inbox.md":           {Data: []byte("loose note\n")},
		"work/plan.md":       {Data: []byte("---\ntitle: Q3 Plan\ntags: [work, plan]\npinned: true\n---\nship it\n")},
		"work/deep/notes.md": {Data: []byte("---\nnotebook: Research\n---\nbody\n")},
		"work/image.png":     {Data: []byte("png")},
	}
}

func TestScanResolvesTitleAndNotebook(t *testing.T) {
	docs, err := Scan(testFS(), "", "Imported")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	require.Equal(t, "inbox", docs[0].Title)
	require.Equal(t, "Imported", docs[0].Notebook)

	require.Equal(t, "work/deep/notes.md", docs[1].Path)
	require.Equal(t, "notes", docs[1].Title)
	require.Equal(t, "Research", docs[1].Notebook)

	require.Equal(t, "Q3 Plan", docs[2].Title)
	require.Equal(t, "work", docs[2].Notebook)
	require.Equal(t, []string{"work", "plan"}, docs[2].Tags)
	require.True(t, docs[2].Pinned)
	require.Equal(t, "ship it\n", docs[2].Body)
}

func TestScanPattern(t *testing.T) {
	docs, err := Scan(testFS(), "work/*.md", "Imported")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	_, err = Scan(testFS(), "[", "Imported")
	require.Error(t, err)
}

type fakeAPI struct {
	notebooks []model.Notebook
	notes     []client.NoteCreate
	failTitle string
}

func (f *fakeAPI) ListNotebooks(ctx context.Context) ([]model.Notebook, error) {
	return f.notebooks, nil
}

func (f *fakeAPI) CreateNotebook(ctx context.Context, title, parentID string) (*model.Notebook, error) {
	nb := model.Notebook{ID: "nb-" + title, Title: title}
	f.notebooks = append(f.notebooks, nb)
	return &nb, nil
}

func (f *fakeAPI) CreateNote(ctx context.Context, in client.NoteCreate) (*client.Note, error) {
	if in.Title == f.failTitle {
		return nil, errors.New("boom")
	}
	f.notes = append(f.notes, in)
	return &client.Note{}, nil
}

func TestRunReusesAndCreatesNotebooks(t *testing.T) {
	api := &fakeAPI{
		notebooks: []model.Notebook{{ID: "existing", Title: "work"}},
		failTitle: "notes",
	}
	docs, err := Scan(testFS(), "", "Imported")
	require.NoError(t, err)

	res, err := Run(context.Background(), api, docs)
	require.NoError(t, err)
	require.Equal(t, 2, res.Created)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, 2, res.Notebooks)

	require.Equal(t, "nb-Imported", api.notes[0].NotebookID)
	require.Equal(t, "existing", api.notes[1].NotebookID)
	require.Equal(t, []string{"work", "plan"}, api.notes[1].TagNames)
}
