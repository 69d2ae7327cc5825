package model

const (
	MediaKindImage = "image"
	MediaKindAudio = "audio"
	MediaKindFile  = "file"
)

type Media struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	NoteID      string `json:"note_id"`
	Kind        string `json:"kind"`
	StorageKey  string `json:"storage_key"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Transcript  string `json:"transcript"`
	Ctime       int64  `json:"ctime"`
}
