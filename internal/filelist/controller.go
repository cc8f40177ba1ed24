// Package filelist keeps the client side view of the server's file list: the
// ordered records, the derived button state and the alert slot. Every change
// follows a server-confirmed response.
package filelist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mergebox/mergebox/internal/mergesdk"
	"golang.org/x/sync/semaphore"
)

const UploadSuccessText = "Files uploaded successfully"

// FilesAPI is the server surface the controller drives
type FilesAPI interface {
	Upload(ctx context.Context, params *mergesdk.UploadParams) (*mergesdk.UploadResponse, error)
	Remove(ctx context.Context, fileID string) (*mergesdk.MessageResponse, error)
	Clear(ctx context.Context) (*mergesdk.MessageResponse, error)
	Merge(ctx context.Context) (*mergesdk.MergeResult, error)
}

var _ FilesAPI = (*mergesdk.FilesAPI)(nil)

// SaveError is a merge whose document came back but could not be stored
type SaveError struct {
	Name string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Name, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

type Option func(*Controller)

func WithRenderer(r Renderer) Option {
	return func(c *Controller) {
		if r != nil {
			c.renderer = r
		}
	}
}

func WithSink(s Sink) Option {
	return func(c *Controller) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithAlertTimeout sets how long alerts stay visible. Non-positive values keep the default.
func WithAlertTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.alert.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller applies user actions against the server. Actions pass through a
// FIFO gate one at a time, so responses are applied in the order the actions
// were issued.
type Controller struct {
	api      FilesAPI
	sink     Sink
	renderer Renderer
	logger   *slog.Logger
	gate     *semaphore.Weighted
	seq      atomic.Uint64

	mu           sync.Mutex
	files        *List
	alert        alertSlot
	inFlight     Action
	queued       int
	progress     *Progress
	epoch        uint64
	lastDownload string
	closed       bool
}

func New(api FilesAPI, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		sink:     NewDirSink("."),
		renderer: nopRenderer{},
		logger:   slog.Default(),
		gate:     semaphore.NewWeighted(1),
		files:    NewList(),
	}
	c.alert.timeout = DefaultAlertTimeout

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "filelist")

	return c
}

// Upload sends files in one request and appends the records the server
// confirms. The selection epoch moves forward whatever the outcome.
func (c *Controller) Upload(ctx context.Context, files ...mergesdk.UploadFile) error {
	defer c.resetSelection()

	attrs := []any{"files", len(files), "size", humanize.Bytes(uint64(mergesdk.TotalSize(files)))}
	return c.run(ctx, ActionUpload, attrs, func(ctx context.Context, log *slog.Logger) (func(), error) {
		resp, err := c.api.Upload(ctx, &mergesdk.UploadParams{
			Files:    files,
			Callback: c.onProgress,
		})
		if err != nil {
			return nil, err
		}

		return func() {
			added := c.files.Append(resp.Files...)
			c.showAlertLocked(UploadSuccessText, AlertSuccess)
			log.Info("files uploaded", "added", added, "total", c.files.Len())
		}, nil
	})
}

// Remove deletes one file. An id the list does not hold is not an error.
func (c *Controller) Remove(ctx context.Context, id string) error {
	return c.run(ctx, ActionRemove, []any{"id", id}, func(ctx context.Context, log *slog.Logger) (func(), error) {
		if _, err := c.api.Remove(ctx, id); err != nil {
			return nil, err
		}

		return func() {
			removed := c.files.Remove(id)
			log.Info("file removed", "found", removed, "total", c.files.Len())
		}, nil
	})
}

// ClearAll deletes every file
func (c *Controller) ClearAll(ctx context.Context) error {
	return c.run(ctx, ActionClear, nil, func(ctx context.Context, log *slog.Logger) (func(), error) {
		if _, err := c.api.Clear(ctx); err != nil {
			return nil, err
		}

		return func() {
			n := c.files.Len()
			c.files.Clear()
			log.Info("files cleared", "count", n)
		}, nil
	})
}

// Merge asks the server to merge every file and saves the result through the
// sink as merged.pdf. The server drops its files once the merge succeeded, so
// the list is emptied even when the local save fails.
func (c *Controller) Merge(ctx context.Context) error {
	return c.run(ctx, ActionMerge, nil, func(ctx context.Context, log *slog.Logger) (func(), error) {
		res, err := c.api.Merge(ctx)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		log.Debug("merge response", "type", res.ContentType, "name", res.FileName)

		path, saveErr := c.sink.Save(ctx, mergesdk.MergedFileName, res.Body)
		empty := func() {
			n := c.files.Len()
			c.files.Clear()
			log.Info("files merged", "count", n, "path", path)
		}
		if saveErr != nil {
			return empty, &SaveError{Name: mergesdk.MergedFileName, Err: saveErr}
		}

		return func() {
			empty()
			c.lastDownload = path
			c.showAlertLocked("Merged PDF saved to "+path, AlertSuccess)
		}, nil
	})
}

// Snapshot returns the current view
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close stops the alert timer. Later state changes are no longer rendered.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.alert.stop()
}

type actionFunc func(ctx context.Context, log *slog.Logger) (apply func(), err error)

// run waits for the gate, performs fn and applies its result under the lock.
// apply runs whenever fn returned one, even alongside an error.
func (c *Controller) run(ctx context.Context, action Action, attrs []any, fn actionFunc) error {
	seq := c.seq.Add(1)
	log := c.logger.With(append([]any{"action", action, "seq", seq}, attrs...)...)

	c.mu.Lock()
	c.queued++
	c.renderLocked()
	c.mu.Unlock()

	err := c.gate.Acquire(ctx, 1)

	c.mu.Lock()
	c.queued--
	if err != nil {
		c.renderLocked()
		c.mu.Unlock()
		log.Warn("action dropped while queued", "error", err)
		return err
	}
	c.inFlight = action
	c.renderLocked()
	c.mu.Unlock()

	defer c.gate.Release(1)

	start := time.Now()
	apply, err := fn(ctx, log)

	c.mu.Lock()
	defer c.mu.Unlock()

	if apply != nil {
		apply()
	}
	c.inFlight = ""
	c.progress = nil

	switch {
	case err == nil:
		log.Debug("action done", "took", time.Since(start))
	case errors.Is(err, context.Canceled):
		log.Warn("action canceled", "error", err, "took", time.Since(start))
	default:
		text := alertText(err)
		c.showAlertLocked(text, AlertError)
		log.Error("action failed", "error", err, "alert", text, "took", time.Since(start))
	}

	c.renderLocked()
	return err
}

func alertText(err error) string {
	var saveErr *SaveError
	if errors.As(err, &saveErr) {
		return fmt.Sprintf("Could not save %s: %v", saveErr.Name, saveErr.Err)
	}
	return mergesdk.ErrorMessage(err)
}

func (c *Controller) onProgress(sent, total int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight != ActionUpload {
		return
	}
	c.progress = &Progress{Sent: sent, Total: total}
	c.renderLocked()
}

func (c *Controller) resetSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.renderLocked()
}

func (c *Controller) showAlertLocked(text string, kind AlertKind) {
	if c.closed {
		c.alert.show(text, kind, nil)
		return
	}
	c.alert.show(text, kind, c.expireAlert)
}

func (c *Controller) expireAlert(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.alert.hide(gen) {
		c.renderLocked()
	}
}

func (c *Controller) renderLocked() {
	if c.closed {
		return
	}
	c.renderer.Render(c.viewLocked())
}

func (c *Controller) viewLocked() View {
	v := View{
		Files:          c.files.Records(),
		Buttons:        buttonsFor(c.files.Len()),
		Alert:          c.alert.visible(),
		InFlight:       c.inFlight,
		Queued:         c.queued,
		SelectionEpoch: c.epoch,
		LastDownload:   c.lastDownload,
	}
	if c.progress != nil {
		p := *c.progress
		v.Progress = &p
	}
	return v
}
