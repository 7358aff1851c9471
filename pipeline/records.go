// Package pipeline loads and cleans raw government market-price records into
// the prepared form the model trains on.
package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// RawPriceRecord is one row of the source dataset, untouched. Price stays a
// string until the preparer coerces it; government exports routinely carry
// blanks and junk in numeric columns.
type RawPriceRecord struct {
	Commodity string
	Market    string
	Price     string
	Date      string
	State     string
}

// PreparedRecord is a cleaned training row. Every field is present and
// non-empty, the crop is in the supported vocabulary, and the price sits
// inside the configured percentile band.
type PreparedRecord struct {
	Crop   string
	Market string
	Price  float64
	Month  int
	Year   int
}

// columnAliases maps the dataset's export headers onto the canonical schema.
var columnAliases = map[string]string{
	"commodity":                 "crop",
	"crop":                      "crop",
	"modal price (rs./quintal)": "price",
	"modal price":               "price",
	"price":                     "price",
	"market name":               "market",
	"market":                    "market",
	"price date":                "date",
	"date":                      "date",
	"state":                     "state",
}

// LoadCSV reads raw price records from a CSV file with government headers.
func LoadCSV(path string) ([]RawPriceRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadRecords(file)
}

// ReadRecords parses raw price records from CSV data. Column order is
// irrelevant; headers are resolved through the alias table. Rows with the
// wrong field count are skipped rather than fatal.
func ReadRecords(r io.Reader) ([]RawPriceRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int)
	for i, name := range header {
		canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if ok {
			columns[canonical] = i
		}
	}
	for _, required := range []string{"crop", "price", "market", "date"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("dataset missing required column %q", required)
		}
	}

	var records []RawPriceRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		record := RawPriceRecord{
			Commodity: field(row, columns, "crop"),
			Market:    field(row, columns, "market"),
			Price:     field(row, columns, "price"),
			Date:      field(row, columns, "date"),
			State:     field(row, columns, "state"),
		}
		records = append(records, record)
	}
	return records, nil
}

func field(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
