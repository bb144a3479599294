// Package marketdata loads price histories and holding metadata from CSV
// files and from the EODHD end-of-day API, and assembles portfolios from
// them.
package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/quantfolio/internal/asset"
	"github.com/aristath/quantfolio/internal/portfolio"
	"github.com/aristath/quantfolio/internal/timeseries"
)

// DefaultPriceField is the per-asset price column used when a table carries
// several fields per asset ("GOOG - Adj. Close", "GOOG - Volume", ...).
const DefaultPriceField = "Adj. Close"

const dateLayout = "2006-01-02"

var (
	// ErrNoDateColumn reports a price table whose first column is not a date
	// index.
	ErrNoDateColumn = errors.New("marketdata: first column must be the date index")

	// ErrMissingColumn reports a required metadata column that is absent.
	ErrMissingColumn = errors.New("marketdata: missing required column")

	// ErrBadValue reports a cell that does not parse as the expected type.
	ErrBadValue = errors.New("marketdata: malformed value")
)

// ReadPriceTable parses a CSV price table: a date column first, then one
// price column per asset. A column named "<asset> - Adj. Close" (or any
// "<asset> - <field>" with the default price field) resolves to the bare
// asset name; other field suffixes are skipped.
func ReadPriceTable(r io.Reader) (timeseries.Frame, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return timeseries.Frame{}, fmt.Errorf("marketdata: read prices: %w", err)
	}
	if len(rows) < 2 {
		return timeseries.Frame{}, timeseries.ErrEmptySeries
	}

	header := rows[0]
	if len(header) < 2 || !isDateHeader(header[0]) {
		return timeseries.Frame{}, fmt.Errorf("%w: got %q", ErrNoDateColumn, header[0])
	}

	// Resolve which columns carry prices and under what asset name.
	type column struct {
		name string
		idx  int
	}
	var cols []column
	for i := 1; i < len(header); i++ {
		name, ok := resolveAssetName(header[i])
		if !ok {
			continue
		}
		cols = append(cols, column{name: name, idx: i})
	}
	if len(cols) == 0 {
		return timeseries.Frame{}, fmt.Errorf("%w: no price columns in header", ErrMissingColumn)
	}

	dates := make([]string, 0, len(rows)-1)
	data := make(map[string][]float64, len(cols))
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, dup := data[c.name]; dup {
			return timeseries.Frame{}, fmt.Errorf("%w: %q", timeseries.ErrDuplicateColumn, c.name)
		}
		data[c.name] = make([]float64, 0, len(rows)-1)
		names = append(names, c.name)
	}

	for rowNum, row := range rows[1:] {
		if len(row) != len(header) {
			return timeseries.Frame{}, fmt.Errorf("%w: row %d has %d cells, header has %d", ErrBadValue, rowNum+2, len(row), len(header))
		}
		if _, err := time.Parse(dateLayout, row[0]); err != nil {
			return timeseries.Frame{}, fmt.Errorf("%w: row %d date %q", ErrBadValue, rowNum+2, row[0])
		}
		dates = append(dates, row[0])

		for _, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c.idx]), 64)
			if err != nil {
				return timeseries.Frame{}, fmt.Errorf("%w: row %d column %q: %q", ErrBadValue, rowNum+2, c.name, row[c.idx])
			}
			data[c.name] = append(data[c.name], v)
		}
	}

	return timeseries.FrameFromColumns(dates, names, data)
}

// LoadPriceTable reads a price table from a CSV file on disk.
func LoadPriceTable(path string) (timeseries.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return timeseries.Frame{}, fmt.Errorf("marketdata: %w", err)
	}
	defer f.Close()
	return ReadPriceTable(f)
}

// ReadMetadata parses holding metadata from CSV. The header must carry
// "name" and "invested_amount"; every other column is kept verbatim in the
// asset's Extra map.
func ReadMetadata(r io.Reader) ([]asset.Metadata, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("marketdata: read metadata: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("%w: empty metadata file", ErrMissingColumn)
	}

	header := rows[0]
	nameIdx, amountIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name":
			nameIdx = i
		case "invested_amount":
			amountIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: name", ErrMissingColumn)
	}
	if amountIdx < 0 {
		return nil, fmt.Errorf("%w: invested_amount", ErrMissingColumn)
	}

	out := make([]asset.Metadata, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d", ErrBadValue, rowNum+2, len(row), len(header))
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(row[amountIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d invested_amount %q", ErrBadValue, rowNum+2, row[amountIdx])
		}

		meta := asset.Metadata{
			Name:           strings.TrimSpace(row[nameIdx]),
			InvestedAmount: amount,
		}
		for i, h := range header {
			if i == nameIdx || i == amountIdx {
				continue
			}
			if meta.Extra == nil {
				meta.Extra = map[string]string{}
			}
			meta.Extra[strings.TrimSpace(h)] = row[i]
		}
		out = append(out, meta)
	}
	return out, nil
}

// LoadMetadata reads holding metadata from a CSV file on disk.
func LoadMetadata(path string) ([]asset.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("marketdata: %w", err)
	}
	defer f.Close()
	return ReadMetadata(f)
}

// BuildPortfolio assembles a portfolio from holding metadata and a joint
// price table. Each holding's price series is looked up by name.
func BuildPortfolio(metas []asset.Metadata, table timeseries.Frame) (*portfolio.Portfolio, error) {
	p := portfolio.New()
	for _, meta := range metas {
		series, err := table.Series(meta.Name)
		if err != nil {
			return nil, fmt.Errorf("marketdata: holding %q: %w", meta.Name, err)
		}
		a, err := asset.New(meta, series)
		if err != nil {
			return nil, err
		}
		if err := p.Add(a); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func isDateHeader(h string) bool {
	switch strings.ToLower(strings.TrimSpace(h)) {
	case "date", "index":
		return true
	}
	return false
}

// resolveAssetName maps a header cell to an asset name. Bare names pass
// through; "<name> - <field>" keeps only the default price field.
func resolveAssetName(header string) (string, bool) {
	header = strings.TrimSpace(header)
	name, field, found := strings.Cut(header, " - ")
	if !found {
		return header, header != ""
	}
	if strings.TrimSpace(field) != DefaultPriceField {
		return "", false
	}
	return strings.TrimSpace(name), name != ""
}
