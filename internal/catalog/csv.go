package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/scbrown/shelf/internal/model"
)

// ErrMissingColumn is returned when a catalog file lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Column names recognized in a catalog header, compared case-insensitively.
var (
	nameColumns        = []string{"name", "product_name", "title"}
	tagsColumns        = []string{"tags", "keywords"}
	brandColumns       = []string{"brand"}
	imageColumns       = []string{"imageurl", "image_url", "image"}
	ratingColumns      = []string{"rating"}
	reviewCountColumns = []string{"reviewcount", "review_count", "reviews"}
)

// CSVSource reads products from a CSV (or, by extension, TSV) file.
type CSVSource struct {
	Path string
}

// Products implements Source.
func (s CSVSource) Products(ctx context.Context) ([]model.Product, error) {
	return ReadCSVFile(s.Path)
}

// String describes the source for log messages.
func (s CSVSource) String() string {
	return "csv:" + s.Path
}

// LoadCSV reads a catalog file and builds a Catalog from it.
func LoadCSV(path string) (*Catalog, error) {
	products, err := ReadCSVFile(path)
	if err != nil {
		return nil, err
	}
	return New(products), nil
}

// ReadCSVFile opens path and parses it with ReadCSV. Files ending in .tsv are
// read tab-delimited.
func ReadCSVFile(path string) ([]model.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	comma := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		comma = '\t'
	}
	products, err := ReadCSV(f, comma)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return products, nil
}

// ReadCSV parses catalog rows from r. The first row is the header; Name and
// Tags columns are required. Rows shorter than the header have their missing
// cells treated as empty, and unparsable numbers read as zero.
func ReadCSV(r io.Reader, comma rune) ([]model.Product, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty catalog file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = cleanCell(header[i])
	}

	nameCol := findColumn(header, nameColumns)
	if nameCol < 0 {
		return nil, fmt.Errorf("%w: Name", ErrMissingColumn)
	}
	tagsCol := findColumn(header, tagsColumns)
	if tagsCol < 0 {
		return nil, fmt.Errorf("%w: Tags", ErrMissingColumn)
	}
	brandCol := findColumn(header, brandColumns)
	imageCol := findColumn(header, imageColumns)
	ratingCol := findColumn(header, ratingColumns)
	reviewCol := findColumn(header, reviewCountColumns)

	var products []model.Product
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if isBlankRow(row) {
			continue
		}
		products = append(products, model.Product{
			Name:        cell(row, nameCol),
			Tags:        cell(row, tagsCol),
			Brand:       cell(row, brandCol),
			ImageURL:    cell(row, imageCol),
			Rating:      parseFloat(cell(row, ratingCol)),
			ReviewCount: parseInt(cell(row, reviewCol)),
		})
	}
	return products, nil
}

// WriteCSV writes products with a header row in the same layout ReadCSV accepts.
func WriteCSV(w io.Writer, products []model.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Tags", "Brand", "ImageURL", "Rating", "ReviewCount"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range products {
		rec := []string{
			p.Name,
			p.Tags,
			p.Brand,
			p.ImageURL,
			strconv.FormatFloat(p.Rating, 'f', -1, 64),
			strconv.Itoa(p.ReviewCount),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\uFEFF")
	return strings.TrimSpace(v)
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, col := range header {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return cleanCell(row[col])
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// Counts exported from spreadsheets often arrive as "12.0".
	return int(parseFloat(s))
}
