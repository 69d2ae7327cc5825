// Package importer turns a directory of markdown files into notes through the
// API client. Notebooks are matched by title and created when missing.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/griffin/internal/client"
	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/frontmatter"
)

const DefaultPattern = "**/*.md"

type Document struct {
	Path     string
	Title    string
	Notebook string
	Tags     []string
	Pinned   bool
	Body     string
}

// API is the part of the client an import needs.
type API interface {
	ListNotebooks(ctx context.Context) ([]model.Notebook, error)
	CreateNotebook(ctx context.Context, title, parentID string) (*model.Notebook, error)
	CreateNote(ctx context.Context, in client.NoteCreate) (*client.Note, error)
}

type Result struct {
	Created   int
	Failed    int
	Notebooks int
}

// Scan reads every file under dir matching pattern. The notebook of a file is
// its frontmatter notebook, else its top-level directory, else fallback. The
// title is the frontmatter title, else the file name.
func Scan(fsys fs.FS, pattern, fallback string) ([]Document, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %s", pattern)
	}
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	docs := make([]Document, 0, len(matches))
	for _, name := range matches {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		meta, body, err := frontmatter.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		doc := Document{
			Path:     name,
			Title:    strings.TrimSpace(meta.Title),
			Notebook: strings.TrimSpace(meta.Notebook),
			Tags:     meta.Tags,
			Pinned:   meta.Pinned,
			Body:     body,
		}
		if doc.Title == "" {
			doc.Title = strings.TrimSuffix(path.Base(name), path.Ext(name))
		}
		if doc.Notebook == "" {
			if dir, _, ok := strings.Cut(name, "/"); ok {
				doc.Notebook = dir
			} else {
				doc.Notebook = fallback
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func ScanDir(dir, pattern, fallback string) ([]Document, error) {
	return Scan(os.DirFS(dir), pattern, fallback)
}

// Run creates one note per document. A failed note is logged and counted;
// failing to resolve a notebook aborts.
func Run(ctx context.Context, api API, docs []Document) (*Result, error) {
	notebooks, err := api.ListNotebooks(ctx)
	if err != nil {
		return nil, err
	}
	byTitle := make(map[string]string, len(notebooks))
	for _, nb := range notebooks {
		if nb.ParentID != "" {
			continue
		}
		if _, ok := byTitle[nb.Title]; !ok {
			byTitle[nb.Title] = nb.ID
		}
	}
	res := &Result{}
	for _, doc := range docs {
		nbID, ok := byTitle[doc.Notebook]
		if !ok {
			nb, err := api.CreateNotebook(ctx, doc.Notebook, "")
			if err != nil {
				return res, fmt.Errorf("create notebook %s: %w", doc.Notebook, err)
			}
			nbID = nb.ID
			byTitle[doc.Notebook] = nbID
			res.Notebooks++
		}
		_, err := api.CreateNote(ctx, client.NoteCreate{
			NotebookID: nbID,
			Title:      doc.Title,
			Content:    doc.Body,
			TagNames:   doc.Tags,
			Pinned:     doc.Pinned,
		})
		if err != nil {
			logutil.GetLogger(ctx).Error("import note failed", zap.String("path", doc.Path), zap.Error(err))
			res.Failed++
			continue
		}
		res.Created++
	}
	return res, nil
}
