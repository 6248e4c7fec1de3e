package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solarops/internal/domain"
	"solarops/internal/export"
)

var (
	exportFormat string
	exportOutput string
	exportStatus string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every record to a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		out := exportOutput
		if out == "" {
			out = export.BuildFilename("solarops_records", format, time.Now())
		}

		db, records, err := openRecordStore(ctx, &cfg.DB)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "create %s", out)
		}
		defer func() { _ = f.Close() }()

		w, err := export.New(format, f)
		if err != nil {
			return err
		}
		if err := w.WriteHeader(); err != nil {
			return eris.Wrap(err, "write header")
		}

		filter := domain.RecordFilter{Status: domain.ReviewStatus(exportStatus)}
		written := 0
		for {
			page, total, err := records.List(ctx, filter, written, 500)
			if err != nil {
				return eris.Wrap(err, "list records")
			}
			if err := w.WriteRecords(page); err != nil {
				return eris.Wrap(err, "write rows")
			}
			written += len(page)
			if len(page) == 0 || written >= total {
				break
			}
		}
		if err := w.Close(); err != nil {
			return eris.Wrap(err, "finish export")
		}

		zap.L().Info("export complete", zap.String("file", out), zap.Int("records", written))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default solarops_records_<date>.<format>)")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "only export records with this review status")
	rootCmd.AddCommand(exportCmd)
}
