package tabs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xxxsen/griffin/internal/localstore"
)

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := localstore.Open(path)
	require.NoError(t, err)
	m, err := Load(store)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Unix(1700000000, 0) }
	return m, path
}

func reload(t *testing.T, path string) *Manager {
	t.Helper()
	store, err := localstore.Open(path)
	require.NoError(t, err)
	m, err := Load(store)
	require.NoError(t, err)
	return m
}

func TestOpenDedupesByNoteID(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Open("n1", "First")
	require.NoError(t, err)
	_, err = m.Open("n2", "Second")
	require.NoError(t, err)
	tab, err := m.Open("n1", "")
	require.NoError(t, err)

	require.Len(t, m.List(), 2)
	require.Equal(t, "First", tab.Title)
	require.Equal(t, "n1", m.ActiveID())
	require.Equal(t, int64(1700000000), tab.OpenedAt)
}

func TestOpenRejectsEmptyNoteID(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Open("a", "Alpha")
	require.NoError(t, err)

	_, err = m.Open("", "x")
	require.ErrorIs(t, err, ErrEmptyNote)
	_, err = m.Open("", "x")
	require.ErrorIs(t, err, ErrEmptyNote)
	require.Len(t, m.List(), 1)
	require.Equal(t, "a", m.ActiveID())
}

func TestCloseActivatesNeighbour(t *testing.T) {
	m, _ := newManager(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := m.Open(id, id)
		require.NoError(t, err)
	}
	require.NoError(t, m.Activate("b"))
	require.NoError(t, m.Close("b"))
	require.Equal(t, "c", m.ActiveID())

	require.NoError(t, m.Close("c"))
	require.Equal(t, "a", m.ActiveID())

	require.NoError(t, m.Close("a"))
	require.Equal(t, "", m.ActiveID())
	require.Empty(t, m.List())

	require.ErrorIs(t, m.Close("a"), ErrNotOpen)
}

func TestCloseInactiveKeepsActive(t *testing.T) {
	m, _ := newManager(t)
	_, _ = m.Open("a", "")
	_, _ = m.Open("b", "")
	require.NoError(t, m.Close("a"))
	require.Equal(t, "b", m.ActiveID())
}

func TestStateSurvivesReload(t *testing.T) {
	m, path := newManager(t)
	_, err := m.Open("a", "Alpha")
	require.NoError(t, err)
	_, err = m.Open("b", "Beta")
	require.NoError(t, err)
	require.NoError(t, m.Rename("a", "Alpha 2"))
	require.NoError(t, m.Activate("a"))

	m2 := reload(t, path)
	require.Equal(t, "a", m2.ActiveID())
	tabs := m2.List()
	require.Len(t, tabs, 2)
	require.Equal(t, "Alpha 2", tabs[0].Title)
	require.Equal(t, "b", tabs[1].NoteID)
}

type memKV struct {
	state State
}

func (m *memKV) Get(key string, dst interface{}) (bool, error) {
	*(dst.(*State)) = m.state
	return true, nil
}

func (m *memKV) Set(key string, v interface{}) error {
	m.state = v.(State)
	return nil
}

func TestLoadRepairsState(t *testing.T) {
	kv := &memKV{state: State{
		Tabs:     []Tab{{NoteID: "a"}, {NoteID: "a"}, {NoteID: ""}, {NoteID: "b"}},
		ActiveID: "zz",
	}}
	m, err := Load(kv)
	require.NoError(t, err)
	require.Len(t, m.List(), 2)
	require.Equal(t, "", m.ActiveID())
}
