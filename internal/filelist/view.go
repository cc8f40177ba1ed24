package filelist

import (
	"time"

	"github.com/mergebox/mergebox/internal/mergesdk"
)

// Action names a user action going through the controller
type Action string

const (
	ActionUpload Action = "upload"
	ActionRemove Action = "remove"
	ActionClear  Action = "clear"
	ActionMerge  Action = "merge"
)

type AlertKind int

const (
	AlertError AlertKind = iota
	AlertSuccess
)

func (k AlertKind) String() string {
	switch k {
	case AlertSuccess:
		return "success"
	default:
		return "error"
	}
}

// Alert is the message currently in the single alert slot
type Alert struct {
	Text    string
	Kind    AlertKind
	ShownAt time.Time
}

// ButtonState says which list-wide actions are available
type ButtonState struct {
	Merge bool
	Clear bool
}

func buttonsFor(n int) ButtonState {
	hasFiles := n > 0
	return ButtonState{Merge: hasFiles, Clear: hasFiles}
}

// Progress of the upload in flight
type Progress struct {
	Sent  int64
	Total int64
}

func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Sent) / float64(p.Total)
}

// View is an immutable snapshot of everything a render target shows
type View struct {
	Files   []mergesdk.FileRecord
	Buttons ButtonState

	// Alert is nil when no alert is visible
	Alert *Alert

	// InFlight is the action whose request is running, empty when idle
	InFlight Action

	// Queued counts actions waiting for the one in flight
	Queued int

	// Progress is set while an upload body is being sent
	Progress *Progress

	// SelectionEpoch increases after every upload attempt; render targets
	// clear their file picker when it changes
	SelectionEpoch uint64

	// LastDownload is where the most recent merge was saved
	LastDownload string
}

func (v View) HasFiles() bool {
	return len(v.Files) > 0
}

func (v View) Busy() bool {
	return v.InFlight != ""
}

// Renderer receives a fresh View after every state change. Render is called
// with the controller's lock held and must not call back into the controller.
type Renderer interface {
	Render(View)
}

// RendererFunc adapts a func to a Renderer
type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

type nopRenderer struct{}

func (nopRenderer) Render(View) {}
