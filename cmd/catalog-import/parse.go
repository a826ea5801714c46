package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/workshop-pos/internal/domain/catalog"
)

const maxLineBytes = 1 << 20

// fileResult holds the valid items of one price list and how many lines
// were rejected.
type fileResult struct {
	items    []catalog.Item
	rejected int
}

// readPriceList streams a gzip-compressed JSON-lines file. Lines that fail to
// decode or validate are logged and skipped; I/O errors abort.
func readPriceList(ctx context.Context, path string) (fileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileResult{}, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return fileResult{}, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	var res fileResult
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return fileResult{}, err
		}
		line++

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		item, err := parseItem(raw)
		if err == nil {
			err = item.Validate()
		}
		if err != nil {
			res.rejected++
			slog.Warn("rejected line",
				slog.String("file", path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.items = append(res.items, item)
	}

	if err := scanner.Err(); err != nil {
		return fileResult{}, errors.Wrapf(err, "scan %s", path)
	}
	return res, nil
}

// parseItem decodes one JSON object. unitPrice may be a JSON string or
// number; unknown keys are ignored.
func parseItem(raw []byte) (catalog.Item, error) {
	var (
		item     catalog.Item
		hasPrice bool
	)

	d := jx.DecodeBytes(raw)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			item.ID, err = d.Str()
		case "name":
			item.Name, err = d.Str()
		case "type":
			var t string
			t, err = d.Str()
			item.Type = catalog.Type(t)
		case "category":
			if d.Next() == jx.Null {
				return d.Null()
			}
			item.Category, err = d.Str()
		case "unitPrice":
			item.UnitPrice, err = decodePrice(d)
			hasPrice = err == nil
		default:
			return d.Skip()
		}
		return errors.Wrap(err, string(key))
	}); err != nil {
		return catalog.Item{}, errors.Wrap(err, "decode item")
	}

	if !hasPrice {
		return catalog.Item{}, errors.Errorf("item %s: unitPrice required", item.ID)
	}
	return item, nil
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = n.String()
	default:
		return decimal.Decimal{}, errors.Errorf("unexpected %s", d.Next())
	}
	return decimal.NewFromString(raw)
}
