package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mergebox/mergebox/internal/filelist"
	"github.com/mergebox/mergebox/internal/mergesdk"
	"github.com/mergebox/mergebox/internal/mergetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tuiHarness struct {
	ctrl *filelist.Controller
	srv  *mergetest.Server
	src  string
	out  string
}

func newTUIHarness(t *testing.T) (tuiModel, *tuiHarness) {
	t.Helper()
	srv := mergetest.New(t)
	sdk, err := mergesdk.New(&mergesdk.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	t.Cleanup(sdk.Close)

	h := &tuiHarness{srv: srv, src: t.TempDir(), out: t.TempDir()}
	feed := newViewFeed()
	h.ctrl = filelist.New(sdk.Files, filelist.WithRenderer(feed), filelist.WithSink(filelist.NewDirSink(h.out)))
	t.Cleanup(h.ctrl.Close)

	m := newTUIModel(t.Context(), h.ctrl, feed, tuiInfo{ServerURL: srv.URL, DownloadDir: h.out})
	return m, h
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m tuiModel, msg tea.Msg) (tuiModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(tuiModel)
	require.True(t, ok)
	return model, cmd
}

// perform runs the action cmd synchronously and feeds the resulting view back
func (h *tuiHarness) perform(t *testing.T, m tuiModel, cmd tea.Cmd) tuiModel {
	t.Helper()
	require.NotNil(t, cmd)
	done, ok := cmd().(actionDoneMsg)
	require.True(t, ok)
	m, _ = update(t, m, done)
	m, _ = update(t, m, viewMsg(h.ctrl.Snapshot()))
	return m
}

func (h *tuiHarness) uploadAll(t *testing.T, m tuiModel, names ...string) tuiModel {
	t.Helper()
	writePDFs(t, h.src, names...)
	m.input.SetValue(filepath.Join(h.src, "*.pdf"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	return h.perform(t, m, cmd)
}

func TestTUI_UploadFromPicker(t *testing.T) {
	m, h := newTUIHarness(t)

	m = h.uploadAll(t, m, "b.pdf", "a.pdf")

	require.Len(t, m.view.Files, 2)
	assert.Equal(t, "a.pdf", m.view.Files[0].Name)
	assert.Empty(t, m.input.Value(), "picker is reset after an upload")
	assert.True(t, m.keys.Merge.Enabled())

	out := stripANSI(m.View())
	assert.Contains(t, out, "Files (2)")
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "Files uploaded successfully")
}

func TestTUI_PickerErrorStaysLocal(t *testing.T) {
	m, h := newTUIHarness(t)

	m.input.SetValue(filepath.Join(h.src, "*.pdf"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Contains(t, m.inputErr, "no files match")
	assert.Empty(t, h.srv.Requests())
	assert.Contains(t, stripANSI(m.View()), "no files match")
}

func TestTUI_EmptySubmitGoesToServer(t *testing.T) {
	m, h := newTUIHarness(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = h.perform(t, m, cmd)

	require.NotNil(t, m.view.Alert)
	assert.Equal(t, "No files selected", m.view.Alert.Text)
	assert.Contains(t, stripANSI(m.View()), "ERROR: No files selected")
}

func TestTUI_ListKeysDisabledWhenEmpty(t *testing.T) {
	m, h := newTUIHarness(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, focusList, m.focus)

	for _, k := range []string{"m", "C", "d"} {
		var cmd tea.Cmd
		m, cmd = update(t, m, runes(k))
		assert.Nil(t, cmd, "key %q", k)
	}
	assert.Empty(t, h.srv.Requests())
}

func TestTUI_RemoveSelected(t *testing.T) {
	m, h := newTUIHarness(t)
	m = h.uploadAll(t, m, "a.pdf", "b.pdf", "c.pdf")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	m, _ = update(t, m, runes("j"))
	assert.Equal(t, 1, m.cursor)

	m, cmd := update(t, m, runes("d"))
	m = h.perform(t, m, cmd)

	require.Len(t, m.view.Files, 2)
	assert.Equal(t, "a.pdf", m.view.Files[0].Name)
	assert.Equal(t, "c.pdf", m.view.Files[1].Name)

	// cursor stays in range after removing the last entry
	m, _ = update(t, m, runes("j"))
	m, cmd = update(t, m, runes("x"))
	m = h.perform(t, m, cmd)
	assert.Equal(t, 0, m.cursor)
	require.Len(t, m.view.Files, 1)
}

func TestTUI_Merge(t *testing.T) {
	m, h := newTUIHarness(t)
	m = h.uploadAll(t, m, "a.pdf")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	m, cmd := update(t, m, runes("m"))
	m = h.perform(t, m, cmd)

	assert.Empty(t, m.view.Files)
	assert.False(t, m.keys.Merge.Enabled())
	assert.FileExists(t, filepath.Join(h.out, "merged.pdf"))
	assert.Contains(t, stripANSI(m.View()), "Merged PDF saved to")
}

func TestTUI_ClearAll(t *testing.T) {
	m, h := newTUIHarness(t)
	m = h.uploadAll(t, m, "a.pdf", "b.pdf")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	m, cmd := update(t, m, runes("C"))
	m = h.perform(t, m, cmd)

	assert.Empty(t, m.view.Files)
	assert.Contains(t, stripANSI(m.View()), "No files uploaded yet")
	entries, err := os.ReadDir(h.out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTUI_StatusLine(t *testing.T) {
	m, _ := newTUIHarness(t)

	m, _ = update(t, m, viewMsg(filelist.View{
		InFlight: filelist.ActionUpload,
		Queued:   2,
		Progress: &filelist.Progress{Sent: 512, Total: 1024},
	}))

	out := stripANSI(m.View())
	assert.Contains(t, out, "Uploading...")
	assert.Contains(t, out, "(2 queued)")
	assert.Contains(t, out, "512 B / 1.0 kB")
}

func TestTUI_Quit(t *testing.T) {
	m, _ := newTUIHarness(t)

	// q is text while the picker has focus
	m, _ = update(t, m, runes("q"))
	assert.Equal(t, "q", m.input.Value())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestViewFeed_Coalesces(t *testing.T) {
	feed := newViewFeed()
	for i := range 3 {
		feed.Render(filelist.View{SelectionEpoch: uint64(i + 1)})
	}

	msg := feed.wait(t.Context())()
	assert.Equal(t, uint64(3), filelist.View(msg.(viewMsg)).SelectionEpoch)
}

func TestViewFeed_StopsWhenContextDone(t *testing.T) {
	feed := newViewFeed()
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan tea.Msg, 1)
	go func() { done <- feed.wait(ctx)() }()
	cancel()

	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not return after cancel")
	}
}

func TestTUI_PickerAcceptsAwkwardNames(t *testing.T) {
	m, h := newTUIHarness(t)
	writePDFs(t, h.src, "report [1].pdf")
	require.NoError(t, os.MkdirAll(filepath.Join(h.src, "my scans"), 0o755))
	writePDFs(t, filepath.Join(h.src, "my scans"), "x.pdf")

	// unquoted path with a space naming one file
	m.input.SetValue(filepath.Join(h.src, "my scans", "x.pdf"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = h.perform(t, m, cmd)
	require.Len(t, m.view.Files, 1)
	assert.Equal(t, "x.pdf", m.view.Files[0].Name)

	// quoted arguments, one with glob characters in a literal name
	m.input.SetValue(fmt.Sprintf("%q %q", filepath.Join(h.src, "report [1].pdf"), filepath.Join(h.src, "my scans", "*.pdf")))
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = h.perform(t, m, cmd)
	assert.Empty(t, m.inputErr)
	require.Len(t, m.view.Files, 3)
	assert.Equal(t, "report [1].pdf", m.view.Files[1].Name)
	assert.Equal(t, "x.pdf", m.view.Files[2].Name)
}

func TestTUI_PickerUnterminatedQuote(t *testing.T) {
	m, h := newTUIHarness(t)

	m.input.SetValue(`"` + filepath.Join(h.src, "a.pdf"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.NotEmpty(t, m.inputErr)
	assert.Empty(t, h.srv.Requests())
}
