// Package tabs tracks the notes a user has open, persisted between sessions.
package tabs

import (
	"errors"
	"time"
)

// StorageKey is the state-file key the tab list is stored under.
const StorageKey = "griffin.tabs.v1"

var (
	ErrNotOpen   = errors.New("tab not open")
	ErrEmptyNote = errors.New("note id is required")
)

type Tab struct {
	NoteID   string `json:"note_id"`
	Title    string `json:"title"`
	OpenedAt int64  `json:"opened_at"`
}

type State struct {
	Tabs     []Tab  `json:"tabs"`
	ActiveID string `json:"active_id"`
}

// KV is the persistence the tab list is written through.
type KV interface {
	Get(key string, dst interface{}) (bool, error)
	Set(key string, v interface{}) error
}

type Manager struct {
	kv    KV
	state State
	now   func() time.Time
}

// Load restores the tab list from kv. Unknown or missing state starts empty;
// an active id that points at no tab is dropped.
func Load(kv KV) (*Manager, error) {
	m := &Manager{kv: kv, now: time.Now}
	if _, err := kv.Get(StorageKey, &m.state); err != nil {
		return nil, err
	}
	m.state.Tabs = dedupe(m.state.Tabs)
	if m.indexOf(m.state.ActiveID) < 0 {
		m.state.ActiveID = ""
	}
	return m, nil
}

func (m *Manager) List() []Tab {
	out := make([]Tab, len(m.state.Tabs))
	copy(out, m.state.Tabs)
	return out
}

func (m *Manager) ActiveID() string {
	return m.state.ActiveID
}

func (m *Manager) Snapshot() State {
	return State{Tabs: m.List(), ActiveID: m.state.ActiveID}
}

// Open activates the tab for noteID, adding it first if it is not open yet.
// A non-empty title refreshes the stored one.
func (m *Manager) Open(noteID, title string) (Tab, error) {
	if noteID == "" {
		return Tab{}, ErrEmptyNote
	}
	idx := m.indexOf(noteID)
	if idx < 0 {
		m.state.Tabs = append(m.state.Tabs, Tab{NoteID: noteID, Title: title, OpenedAt: m.now().Unix()})
		idx = len(m.state.Tabs) - 1
	} else if title != "" {
		m.state.Tabs[idx].Title = title
	}
	m.state.ActiveID = noteID
	return m.state.Tabs[idx], m.save()
}

// Close removes the tab for noteID. Closing the active tab activates the
// tab that took its place, or the one before it when it was the last.
func (m *Manager) Close(noteID string) error {
	idx := m.indexOf(noteID)
	if idx < 0 {
		return ErrNotOpen
	}
	m.state.Tabs = append(m.state.Tabs[:idx], m.state.Tabs[idx+1:]...)
	if m.state.ActiveID == noteID {
		switch {
		case len(m.state.Tabs) == 0:
			m.state.ActiveID = ""
		case idx < len(m.state.Tabs):
			m.state.ActiveID = m.state.Tabs[idx].NoteID
		default:
			m.state.ActiveID = m.state.Tabs[idx-1].NoteID
		}
	}
	return m.save()
}

func (m *Manager) Activate(noteID string) error {
	if m.indexOf(noteID) < 0 {
		return ErrNotOpen
	}
	m.state.ActiveID = noteID
	return m.save()
}

func (m *Manager) Rename(noteID, title string) error {
	idx := m.indexOf(noteID)
	if idx < 0 {
		return ErrNotOpen
	}
	m.state.Tabs[idx].Title = title
	return m.save()
}

func (m *Manager) CloseAll() error {
	m.state = State{}
	return m.save()
}

func (m *Manager) indexOf(noteID string) int {
	if noteID == "" {
		return -1
	}
	for i, t := range m.state.Tabs {
		if t.NoteID == noteID {
			return i
		}
	}
	return -1
}

func (m *Manager) save() error {
	if m.state.Tabs == nil {
		m.state.Tabs = []Tab{}
	}
	return m.kv.Set(StorageKey, m.state)
}

func dedupe(in []Tab) []Tab {
	seen := make(map[string]struct{}, len(in))
	out := make([]Tab, 0, len(in))
	for _, t := range in {
		if t.NoteID == "" {
			continue
		}
		if _, ok := seen[t.NoteID]; ok {
			continue
		}
		seen[t.NoteID] = struct{}{}
		out = append(out, t)
	}
	return out
}
