package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solarops/internal/domain"
	"solarops/internal/service"
)

var ingestConcurrency int

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-dir>...",
	Short: "Process paperwork files from disk",
	Long: `Uploads each file to storage, extracts and validates its fields and creates a
pending record. Directories are scanned (non-recursively) for supported files.
One failing file does not stop the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		paths, err := collectPaperwork(args)
		if err != nil {
			return err
		}
		zap.L().Info("ingest: files found", zap.Int("files", len(paths)))

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(ingestConcurrency)

		var valid, invalid, failed atomic.Int64
		for _, path := range paths {
			g.Go(func() error {
				res, err := ingestFile(gCtx, env.Ingest, path)
				if err != nil {
					failed.Add(1)
					zap.L().Error("ingest: file failed", zap.String("path", path), zap.Error(err))
					return nil
				}
				if res.Verdict.Valid {
					valid.Add(1)
				} else {
					invalid.Add(1)
				}
				zap.L().Info("ingest: file processed",
					zap.String("filename", res.Record.Filename),
					zap.Bool("valid", res.Verdict.Valid),
					zap.Int("confidence", res.Verdict.Confidence),
					zap.Strings("issues", res.Verdict.Issues))
				return nil
			})
		}
		_ = g.Wait()

		zap.L().Info("ingest: batch complete",
			zap.Int("total", len(paths)),
			zap.Int64("valid", valid.Load()),
			zap.Int64("invalid", invalid.Load()),
			zap.Int64("failed", failed.Load()))
		if failed.Load() > 0 {
			return eris.Errorf("%d of %d files failed", failed.Load(), len(paths))
		}
		return nil
	},
}

func ingestFile(ctx context.Context, svc service.IngestService, path string) (*service.IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, eris.Wrapf(err, "stat %s", path)
	}
	return svc.Upload(ctx, service.UploadInput{
		Filename: filepath.Base(path),
		Body:     f,
		Size:     info.Size(),
	})
}

// collectPaperwork expands directories into their supported files.
func collectPaperwork(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "stat %s", arg)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "read dir %s", arg)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, ok := domain.FileTypeFromName(e.Name()); ok {
				out = append(out, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func init() {
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 4, "files processed in parallel")
	rootCmd.AddCommand(ingestCmd)
}
