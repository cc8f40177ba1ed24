package filelist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mergebox/mergebox/internal/mergesdk"
	"github.com/mergebox/mergebox/internal/utils"
)

const maxNameAttempts = 1000

// Sink stores a downloaded document and returns where it ended up
type Sink interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// DirSink saves downloads into a directory. The body is written to a temp file
// next to the destination and renamed into place; an existing file is never
// overwritten, the name gets a " (n)" suffix instead.
type DirSink struct {
	Dir string
}

func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

func (s *DirSink) Save(ctx context.Context, name string, r io.Reader) (path string, err error) {
	name = cleanName(name)

	if err := utils.EnsureDir(s.Dir); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".mergebox-*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	dest, err := reserveName(s.Dir, name)
	if err != nil {
		return "", err
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("move %s into place: %w", name, err)
	}

	return dest, nil
}

// reserveName creates an empty placeholder under the first free name
func reserveName(dir, name string) (string, error) {
	for i := 0; i < maxNameAttempts; i++ {
		candidate := filepath.Join(dir, numberedName(name, i))
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("reserve %s: %w", candidate, err)
		}
		f.Close()
		return candidate, nil
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

// numberedName returns name for n == 0, otherwise "base (n).ext"
func numberedName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}

func cleanName(name string) string {
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == ".." || name == string(filepath.Separator) || name == "" {
		return mergesdk.MergedFileName
	}
	return name
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
