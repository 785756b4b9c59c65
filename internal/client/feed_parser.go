package client

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/bot/internal/config"
	"storefront/bot/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

type feedParser interface {
	Parse(body []byte) ([]domain.FeedRow, error)
}

func newFeedParser(format string, columns config.ColumnsConfig) (feedParser, error) {
	switch format {
	case "", "csv":
		return &csvParser{columns: columns}, nil
	case "html":
		return &htmlTableParser{columns: columns}, nil
	default:
		return nil, fmt.Errorf("unsupported feed format %q", format)
	}
}

// columnIndex maps product fields to positions in a header row
type columnIndex struct {
	category, title, description, price int
	photo                               int // -1 when the sheet has no photo column
}

func resolveColumns(header []string, columns config.ColumnsConfig) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := positions[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	idx := columnIndex{
		category:    lookup(columns.Category),
		title:       lookup(columns.Title),
		description: lookup(columns.Description),
		price:       lookup(columns.Price),
		photo:       -1,
	}
	if i, ok := positions[columns.Photo]; ok && columns.Photo != "" {
		idx.photo = i
	}

	if len(missing) > 0 {
		return columnIndex{}, fmt.Errorf("%w: missing columns %s", domain.ErrFeedMalformed, strings.Join(missing, ", "))
	}
	return idx, nil
}

// row builds a FeedRow from one record. Malformed rows are reported so the
// caller can skip them without failing the whole load.
func (idx columnIndex) row(record []string) (domain.FeedRow, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	category := cell(idx.category)
	if category == "" {
		return domain.FeedRow{}, errors.New("empty category")
	}
	title := cell(idx.title)
	if title == "" {
		return domain.FeedRow{}, errors.New("empty title")
	}

	rawPrice := cell(idx.price)
	price, err := strconv.ParseInt(rawPrice, 10, 64)
	if err != nil || price < 0 {
		return domain.FeedRow{}, fmt.Errorf("invalid price %q", rawPrice)
	}

	return domain.FeedRow{
		Category: category,
		Product: domain.Product{
			Title:       title,
			Description: cell(idx.description),
			Price:       price,
			Photo:       cell(idx.photo),
		},
	}, nil
}

type csvParser struct {
	columns config.ColumnsConfig
}

func (p *csvParser) Parse(body []byte) ([]domain.FeedRow, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %w", domain.ErrFeedMalformed, err)
	}

	idx, err := resolveColumns(header, p.columns)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.FeedRow, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrFeedMalformed, line, err)
		}

		row, err := idx.row(record)
		if err != nil {
			log.Warnf("⚠️ Skipping feed line %d: %v", line, err)
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// htmlTableParser reads the first <table> of a published sheet; the first
// row is the header.
type htmlTableParser struct {
	columns config.ColumnsConfig
}

func (p *htmlTableParser) Parse(body []byte) ([]domain.FeedRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %w", domain.ErrFeedMalformed, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table found", domain.ErrFeedMalformed)
	}

	var records [][]string
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("th, td")
		if cells.Length() == 0 {
			return
		}
		record := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			record = append(record, strings.TrimSpace(cell.Text()))
		})
		records = append(records, record)
	})

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty table", domain.ErrFeedMalformed)
	}

	idx, err := resolveColumns(records[0], p.columns)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.FeedRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := idx.row(record)
		if err != nil {
			log.Warnf("⚠️ Skipping table row %d: %v", i+2, err)
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}
