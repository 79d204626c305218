// Package importer feeds CSV expense files through the ledger. Each row is
// classified and booked exactly like a POST /transactions/calc request.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ghostbudget/models"
	"ghostbudget/pkg/ledger"

	"github.com/shopspring/decimal"
)

// ProcessedDir is the subdirectory files are moved into once imported.
const ProcessedDir = "processed"

// Importer books expense files found in Dir for one user (the demo user when
// UserID is nil).
type Importer struct {
	Svc     *ledger.Service
	UserID  *uint
	Dir     string
	DryRun  bool
	Verbose bool
}

// FileResult summarises one imported file.
type FileResult struct {
	Name     string
	Rows     int
	Imported int
	Failed   int
	Surplus  decimal.Decimal // total surcharge moved to the ghost budget
	Err      error
}

// Row is a parsed CSV line.
type Row struct {
	Line  int
	Input ledger.ExpenseInput
}

// ParseCSV reads expense_date,expense_type,amount rows. A header line is
// skipped when its first cell is not a date. Malformed lines are returned as
// errors alongside the good rows.
func ParseCSV(r io.Reader) ([]Row, []error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var (
		rows []Row
		errs []error
	)
	for first := true; ; first = false {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err)
			if errors.Is(err, csv.ErrFieldCount) {
				continue
			}
			break
		}
		line, _ := cr.FieldPos(0)
		d, err := models.ParseDate(strings.TrimSpace(rec[0]))
		if err != nil {
			if first && strings.EqualFold(strings.TrimSpace(rec[0]), "expense_date") {
				continue
			}
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		amt, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: invalid amount %q", line, rec[2]))
			continue
		}
		rows = append(rows, Row{Line: line, Input: ledger.ExpenseInput{Date: d, Type: strings.TrimSpace(rec[1]), Amount: amt}})
	}
	return rows, errs
}

// ImportFile books every row of Dir/name. In dry-run mode rows are only
// classified. The file is moved to Dir/processed afterwards so it is imported
// once.
func (im *Importer) ImportFile(ctx context.Context, name string) FileResult {
	res := FileResult{Name: name, Surplus: decimal.Zero}
	path := filepath.Join(im.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	rows, parseErrs := ParseCSV(f)
	f.Close()
	for _, e := range parseErrs {
		log.Printf("WARN %s: %v", name, e)
	}
	res.Rows = len(rows) + len(parseErrs)
	res.Failed = len(parseErrs)

	for _, row := range rows {
		if im.DryRun {
			pred, err := im.Svc.Predict(ctx, row.Input)
			if err != nil {
				res.Failed++
				log.Printf("WARN %s line %d: %v", name, row.Line, err)
				continue
			}
			im.logV("DRY %s line %d %s %s -> label=%d", name, row.Line, row.Input.Type, row.Input.Amount, pred.Label)
			continue
		}
		out, err := im.Svc.ProcessExpense(ctx, im.UserID, row.Input)
		if err != nil {
			res.Failed++
			log.Printf("WARN %s line %d: %v", name, row.Line, err)
			if errors.Is(err, ledger.ErrNotFound) || ctx.Err() != nil {
				res.Err = err
				return res
			}
			continue
		}
		res.Imported++
		res.Surplus = res.Surplus.Add(out.Difference)
		im.logV("BOOKED %s line %d %s charge=%s type=%s", name, row.Line, row.Input.Type, out.FinalCharge, out.ChargeType)
	}

	if !im.DryRun {
		if err := moveToProcessed(im.Dir, name); err != nil {
			log.Printf("WARN failed to move processed file %s: %v", name, err)
		}
	}
	log.Printf("IMPORTED %s rows=%d booked=%d failed=%d ghost+=%s", name, res.Rows, res.Imported, res.Failed, res.Surplus.StringFixed(2))
	return res
}

// Run imports files with a pool of workers and returns one result per file,
// in input order.
func (im *Importer) Run(ctx context.Context, files []string, workers int) []FileResult {
	if workers <= 0 {
		workers = 1
	}
	results := make([]FileResult, len(files))
	idxCh := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxCh {
				results[idx] = im.ImportFile(ctx, files[idx])
			}
		}()
	}
feed:
	for i := range files {
		select {
		case idxCh <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(idxCh)
	wg.Wait()
	return results
}

// ListFiles returns the CSV files directly inside dir, sorted by name.
func ListFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	// editors and partial copies leave dotfiles behind
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

func moveToProcessed(dir, name string) error {
	dst := filepath.Join(dir, ProcessedDir)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(dir, name), filepath.Join(dst, name))
}

func (im *Importer) logV(format string, args ...any) {
	if im.Verbose {
		log.Printf(format, args...)
	}
}
