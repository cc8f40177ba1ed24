package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/mergebox/mergebox/internal/config"
	"github.com/mergebox/mergebox/internal/filelist"
	"github.com/mergebox/mergebox/internal/mergesdk"
	"github.com/mergebox/mergebox/internal/utils"
)

// Strings
const (
	txtTitle       = "MergeBox"
	txtInputPrompt = "Add files"
	txtPlaceholder = `paths or globs, e.g. ~/scans/*.pdf "my docs/a.pdf"`
	txtNoFiles     = "No files uploaded yet"
	txtMerge       = "[m] Merge PDFs"
	txtClear       = "[C] Clear all"
)

var actionLabels = map[filelist.Action]string{
	filelist.ActionUpload: "Uploading",
	filelist.ActionRemove: "Removing",
	filelist.ActionClear:  "Clearing",
	filelist.ActionMerge:  "Merging",
}

// Styles
var (
	titleStyle    = cyan.Bold(true)
	cursorStyle   = cyan.Bold(true)
	enabledStyle  = green.Bold(true)
	disabledStyle = gray
	errorStyle    = red
	alertErrStyle = red.Bold(true)
	alertOKStyle  = green.Bold(true)
)

type focus int

const (
	focusList focus = iota
	focusInput
)

// fileController is what the TUI drives; *filelist.Controller in production
type fileController interface {
	Upload(ctx context.Context, files ...mergesdk.UploadFile) error
	Remove(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
	Merge(ctx context.Context) error
	Snapshot() filelist.View
}

// viewFeed hands controller views to the program. Views are coalesced: a
// slow reader only ever sees the latest one.
type viewFeed struct {
	mu     sync.Mutex
	latest filelist.View
	notify chan struct{}
}

func newViewFeed() *viewFeed {
	return &viewFeed{notify: make(chan struct{}, 1)}
}

func (f *viewFeed) Render(v filelist.View) {
	f.mu.Lock()
	f.latest = v
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// wait delivers the next view. It gives up with a nil message once ctx is done.
func (f *viewFeed) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-f.notify:
		case <-ctx.Done():
			return nil
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		return viewMsg(f.latest)
	}
}

// --- Messages ---
type viewMsg filelist.View
type actionDoneMsg struct {
	action filelist.Action
	err    error
}

type tuiInfo struct {
	ServerURL   string
	DownloadDir string
}

type tuiModel struct {
	ctx  context.Context
	ctrl fileController
	feed *viewFeed
	info tuiInfo

	input    textinput.Model
	spinner  spinner.Model
	progress progress.Model
	help     help.Model
	keys     keyMap

	view     filelist.View
	cursor   int
	focus    focus
	inputErr string
}

func newTUIModel(ctx context.Context, ctrl fileController, feed *viewFeed, info tuiInfo) tuiModel {
	input := textinput.New()
	input.Placeholder = txtPlaceholder
	input.Width = 60
	input.PromptStyle = green
	input.TextStyle = green
	input.PlaceholderStyle = gray
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = cyan

	m := tuiModel{
		ctx:      ctx,
		ctrl:     ctrl,
		feed:     feed,
		info:     info,
		input:    input,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:     help.New(),
		keys:     newKeyMap(),
		focus:    focusInput,
	}
	m.applyView(ctrl.Snapshot())
	return m
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.feed.wait(m.ctx))
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.focus == focusInput {
			return m.updateInput(msg)
		}
		return m.updateList(msg)

	case viewMsg:
		m.applyView(filelist.View(msg))
		return m, m.feed.wait(m.ctx)

	case actionDoneMsg:
		if msg.err != nil {
			slog.Debug("tui action finished with error", "action", msg.action, "error", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.progress.Width = max(10, min(msg.Width-4, 60))
		return m, nil
	}

	return m, nil
}

func (m tuiModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Back):
		m.focus = focusList
		m.input.Blur()
		return m, nil
	}

	m.inputErr = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Add):
		m.focus = focusInput
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.Files)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Remove):
		if m.cursor < len(m.view.Files) {
			id := m.view.Files[m.cursor].ID
			return m, m.do(filelist.ActionRemove, func(ctx context.Context) error {
				return m.ctrl.Remove(ctx, id)
			})
		}

	case key.Matches(msg, m.keys.Merge):
		return m, m.do(filelist.ActionMerge, m.ctrl.Merge)

	case key.Matches(msg, m.keys.Clear):
		return m, m.do(filelist.ActionClear, m.ctrl.ClearAll)
	}

	return m, nil
}

// submit expands the picker input and uploads every matched file in one
// request. An empty input still goes to the server, which rejects it.
func (m tuiModel) submit() (tea.Model, tea.Cmd) {
	m.inputErr = ""

	raw, err := utils.SplitPathList(m.input.Value())
	if err != nil {
		m.inputErr = err.Error()
		return m, nil
	}

	var files []mergesdk.UploadFile
	if len(raw) > 0 {
		paths, err := utils.ExpandPaths(raw)
		if err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		for _, p := range paths {
			f, err := mergesdk.FileFromPath(p)
			if err != nil {
				m.inputErr = err.Error()
				return m, nil
			}
			files = append(files, f)
		}
	}

	return m, m.do(filelist.ActionUpload, func(ctx context.Context) error {
		return m.ctrl.Upload(ctx, files...)
	})
}

func (m tuiModel) do(action filelist.Action, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m *tuiModel) applyView(v filelist.View) {
	if v.SelectionEpoch != m.view.SelectionEpoch {
		m.input.Reset()
	}
	m.view = v

	if m.cursor >= len(v.Files) {
		m.cursor = max(0, len(v.Files)-1)
	}
	m.keys.setHasFiles(v.Buttons.Merge, v.Buttons.Clear)
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(txtTitle))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Server     "), green.Render(m.info.ServerURL)))
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Downloads  "), green.Render(m.info.DownloadDir)))
	b.WriteString("\n")

	m.renderInput(&b)
	m.renderFiles(&b)
	m.renderButtons(&b)
	m.renderStatus(&b)
	m.renderAlert(&b)

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m tuiModel) renderInput(b *strings.Builder) {
	b.WriteString(txtInputPrompt)
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.inputErr != "" {
		b.WriteString(errorStyle.Render(m.inputErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m tuiModel) renderFiles(b *strings.Builder) {
	b.WriteString(fmt.Sprintf("Files (%d)\n", len(m.view.Files)))
	if len(m.view.Files) == 0 {
		b.WriteString(gray.Render("  " + txtNoFiles))
		b.WriteString("\n\n")
		return
	}

	for i, f := range m.view.Files {
		line := fmt.Sprintf("%2d. %s", i+1, f.Name)
		if i == m.cursor && m.focus == focusList {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m tuiModel) renderButtons(b *strings.Builder) {
	button := func(label string, enabled bool) string {
		if enabled {
			return enabledStyle.Render(label)
		}
		return disabledStyle.Render(label)
	}
	b.WriteString(button(txtMerge, m.view.Buttons.Merge))
	b.WriteString("   ")
	b.WriteString(button(txtClear, m.view.Buttons.Clear))
	b.WriteString("\n\n")
}

func (m tuiModel) renderStatus(b *strings.Builder) {
	if !m.view.Busy() {
		return
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(actionLabels[m.view.InFlight] + "...")
	if m.view.Queued > 0 {
		b.WriteString(yellow.Render(fmt.Sprintf(" (%d queued)", m.view.Queued)))
	}
	b.WriteString("\n")

	if p := m.view.Progress; p != nil && p.Total > 0 {
		b.WriteString(m.progress.ViewAs(p.Fraction()))
		b.WriteString(gray.Render(fmt.Sprintf(" %s / %s", humanize.Bytes(uint64(p.Sent)), humanize.Bytes(uint64(p.Total)))))
		b.WriteString("\n")
	}
}

func (m tuiModel) renderAlert(b *strings.Builder) {
	a := m.view.Alert
	if a == nil {
		return
	}
	switch a.Kind {
	case filelist.AlertSuccess:
		b.WriteString(alertOKStyle.Render("✓") + " " + a.Text)
	default:
		b.WriteString(alertErrStyle.Render("ERROR:") + " " + a.Text)
	}
	b.WriteString("\n")
}

func runTUI(ctx context.Context, cfg *config.Config) error {
	sdk, err := mergesdk.New(cfg.SDKConfig())
	if err != nil {
		return err
	}
	defer sdk.Close()

	// canceled on return so the view feed stops waiting
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := newViewFeed()
	ctrl := filelist.New(sdk.Files,
		filelist.WithRenderer(feed),
		filelist.WithSink(filelist.NewDirSink(cfg.DownloadDir)),
		filelist.WithAlertTimeout(cfg.AlertTimeout),
	)
	defer ctrl.Close()

	m := newTUIModel(ctx, ctrl, feed, tuiInfo{ServerURL: cfg.ServerURL, DownloadDir: cfg.DownloadDir})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
