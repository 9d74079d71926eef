package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ItemColumns is the header of cargo CSV files, in order.
var ItemColumns = []string{
	"item_id", "name", "category", "module", "section", "location",
	"mass_kg", "priority", "expiry_date", "usage_limit",
}

// RowError describes a CSV row that could not be used.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// WriteItemsCSV writes items with the ItemColumns header.
func WriteItemsCSV(w io.Writer, items []Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ItemColumns); err != nil {
		return err
	}
	for _, it := range items {
		usage := ""
		if it.UsageLimit > 0 {
			usage = strconv.Itoa(it.UsageLimit)
		}
		row := []string{
			it.ItemID, it.Name, it.Category, it.Module, it.Section, it.Location,
			strconv.FormatFloat(it.MassKg, 'f', -1, 64),
			strconv.Itoa(it.Priority),
			it.ExpiryDate,
			usage,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadItemsCSV parses a cargo CSV. Columns are matched by header name so
// their order is free; item_id, name and module are required. Rows that
// fail validation are reported and skipped.
func ReadItemsCSV(r io.Reader) ([]Item, []RowError, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range []string{"item_id", "name", "module"} {
		if _, ok := index[col]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var (
		items   []Item
		rowErrs []RowError
	)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, nil, fmt.Errorf("failed to read line %d: %w", line, err)
			}
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		it, err := parseItem(field)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		items = append(items, it)
	}

	return items, rowErrs, nil
}

// ValidMass reports whether kg is a finite, non-negative mass.
func ValidMass(kg float64) bool {
	return kg >= 0 && !math.IsInf(kg, 0)
}

func parseItem(field func(string) string) (Item, error) {
	it := Item{
		ItemID:     field("item_id"),
		Name:       field("name"),
		Category:   field("category"),
		Module:     field("module"),
		Section:    field("section"),
		Location:   field("location"),
		ExpiryDate: field("expiry_date"),
	}
	if it.ItemID == "" || it.Name == "" || it.Module == "" {
		return Item{}, errors.New("item_id, name and module are required")
	}

	if v := field("mass_kg"); v != "" {
		mass, err := strconv.ParseFloat(v, 64)
		if err != nil || !ValidMass(mass) {
			return Item{}, fmt.Errorf("invalid mass_kg %q", v)
		}
		it.MassKg = mass
	}
	if v := field("priority"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 0 || p > 100 {
			return Item{}, fmt.Errorf("invalid priority %q", v)
		}
		it.Priority = p
	}
	if it.ExpiryDate != "" {
		if _, err := time.Parse(time.DateOnly, it.ExpiryDate); err != nil {
			return Item{}, fmt.Errorf("invalid expiry_date %q", it.ExpiryDate)
		}
	}
	if v := field("usage_limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Item{}, fmt.Errorf("invalid usage_limit %q", v)
		}
		it.UsageLimit = n
	}
	return it, nil
}
