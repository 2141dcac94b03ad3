package record

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type Parser struct {
	options Options
}

// Parse reads every row of the source and returns the rendered records in
// source order. Any malformed row aborts the whole parse.
func (p *Parser) Parse(ctx context.Context) ([]string, error) {
	if p.options.Reader != nil {
		return p.parse(ctx, p.options.Reader)
	}

	f, err := os.Open(p.options.Location)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.options.Location, err)
	}
	defer f.Close()

	return p.parse(ctx, f)
}

func (p *Parser) parse(ctx context.Context, r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty source, no header row", ErrMissingField)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[strings.TrimSpace(h)] = i
	}

	for _, f := range Fields {
		if _, ok := columns[f.Column]; !ok {
			return nil, fmt.Errorf("%w: column %s not in header", ErrMissingField, f.Column)
		}
	}

	var records []string

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		row := make(map[string]string, len(Fields))
		for _, f := range Fields {
			idx := columns[f.Column]
			if idx >= len(cells) {
				continue
			}
			row[f.Column] = cells[idx]
		}

		rec, err := ParseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		records = append(records, rec)
	}

	return records, nil
}

func NewParser(opts ...Option) *Parser {
	return &Parser{
		options: NewOptions(opts...),
	}
}
