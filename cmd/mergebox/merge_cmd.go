package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mergebox/mergebox/internal/config"
	"github.com/mergebox/mergebox/internal/filelist"
	"github.com/mergebox/mergebox/internal/mergesdk"
	"github.com/mergebox/mergebox/internal/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newMergeCmd())
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge [paths or globs...]",
		Short: "Upload files in one request, merge them and save merged.pdf",
		Example: `  mergebox merge a.pdf b.pdf
  mergebox merge 'scans/**/*.pdf' -o ~/Desktop`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closeLog, err := setup(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			cmd.SilenceUsage = true
			path, err := runMerge(cmd.Context(), cfg, args, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}

// runMerge uploads every file matched by args, merges and returns the saved path.
// Alerts are echoed to status as they appear.
func runMerge(ctx context.Context, cfg *config.Config, args []string, status io.Writer) (string, error) {
	paths, err := utils.ExpandPaths(args)
	if err != nil {
		return "", err
	}

	files := make([]mergesdk.UploadFile, 0, len(paths))
	for _, p := range paths {
		f, err := mergesdk.FileFromPath(p)
		if err != nil {
			return "", err
		}
		files = append(files, f)
	}

	sdk, err := mergesdk.New(cfg.SDKConfig())
	if err != nil {
		return "", err
	}
	defer sdk.Close()

	ctrl := filelist.New(sdk.Files,
		filelist.WithSink(filelist.NewDirSink(cfg.DownloadDir)),
		filelist.WithAlertTimeout(cfg.AlertTimeout),
		filelist.WithRenderer(&consoleRenderer{w: status}),
	)
	defer ctrl.Close()

	fmt.Fprintf(status, "%s %d file(s), %s\n", cyan.Render("Uploading"), len(files), humanize.Bytes(uint64(mergesdk.TotalSize(files))))
	if err := ctrl.Upload(ctx, files...); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	if err := ctrl.Merge(ctx); err != nil {
		var saveErr *filelist.SaveError
		if errors.As(err, &saveErr) {
			return "", err
		}
		return "", fmt.Errorf("merge: %w", err)
	}

	return ctrl.Snapshot().LastDownload, nil
}

// consoleRenderer prints each new alert once. The controller serializes Render calls.
type consoleRenderer struct {
	w         io.Writer
	lastAlert time.Time
}

func (r *consoleRenderer) Render(v filelist.View) {
	if v.Alert == nil || v.Alert.ShownAt.Equal(r.lastAlert) {
		return
	}
	r.lastAlert = v.Alert.ShownAt

	switch v.Alert.Kind {
	case filelist.AlertSuccess:
		fmt.Fprintf(r.w, "%s %s\n", green.Render("OK"), v.Alert.Text)
	default:
		fmt.Fprintf(r.w, "%s %s\n", red.Bold(true).Render("ERROR:"), v.Alert.Text)
	}
}
