// Package htmltable loads HTML <table> elements into tables. Road-safety
// portals publish crash extracts as HTML pages; this loader turns one such
// table into the same shape the CSV loader produces.
//
// Cells load as trimmed text (empty cells become missing); numeric typing is
// left to the coerce_numeric step, since HTML tables are formatted for
// display rather than for machines.
package htmltable

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"crashprep/internal/config"
	"crashprep/internal/table"
)

// Load resolves the HTML source named by the options and parses one table
// out of it.
//
// Options:
//   - path: read the document from a file ("-" for stdin).
//   - url: fetch the document over HTTP when no path is given.
//   - selector (default "table"): CSS selector for the table element.
//   - table_index (default 0): which selector match to use.
//   - timeout_seconds (default 30): HTTP fetch budget.
func Load(ctx context.Context, opt config.Options) (*table.Table, error) {
	var html string
	switch {
	case opt.String("path", "") != "":
		path := opt.String("path", "")
		if path == "-" {
			b, err := readAllStdin()
			if err != nil {
				return nil, err
			}
			html = b
		} else {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("htmltable: %w", err)
			}
			html = string(b)
		}
	case opt.String("url", "") != "":
		l := NewLoader(nil, timeoutOption(opt))
		fetched, err := l.Fetch(ctx, opt.String("url", ""))
		if err != nil {
			return nil, err
		}
		html = fetched
	default:
		return nil, fmt.Errorf("htmltable: need a path or a url")
	}
	return Parse(html, opt)
}

// Parse extracts one table element from an HTML document.
//
// The header row comes from the table's thead when present, otherwise from
// the first row. Data rows shorter than the header are padded with missing
// cells; longer rows fail with their index.
func Parse(html string, opt config.Options) (*table.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("htmltable: parse html: %w", err)
	}

	selector := opt.String("selector", "table")
	idx := opt.Int("table_index", 0)
	sel := doc.Find(selector).Eq(idx)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("htmltable: no table matched selector %q index %d", selector, idx)
	}

	var headerRow, dataRows *goquery.Selection
	if head := sel.Find("thead tr").First(); head.Length() > 0 {
		headerRow = head
		dataRows = sel.Find("tbody tr")
	} else {
		all := sel.Find("tr")
		headerRow = all.First()
		dataRows = all.Slice(1, all.Length())
	}

	headers := headerNames(headerRow)
	if len(headers) == 0 {
		return nil, fmt.Errorf("htmltable: table has no header cells")
	}
	out, err := table.New(headers)
	if err != nil {
		return nil, fmt.Errorf("htmltable: %w", err)
	}

	var rowErr error
	dataRows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("th, td")
		if cells.Length() > len(headers) {
			rowErr = fmt.Errorf("htmltable: row %d has %d cells, want %d", i, cells.Length(), len(headers))
			return false
		}
		vals := make([]table.Value, len(headers))
		for c := range vals {
			vals[c] = table.Missing()
		}
		cells.Each(func(c int, cell *goquery.Selection) {
			if text := strings.TrimSpace(cell.Text()); text != "" {
				vals[c] = table.Text(text)
			}
		})
		if err := out.AppendRow(vals...); err != nil {
			rowErr = fmt.Errorf("htmltable: %w", err)
			return false
		}
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return out, nil
}

// headerNames extracts column names from the header row. Blank headers get
// positional names and duplicates get a numeric suffix, so presentation
// quirks never abort a load.
func headerNames(row *goquery.Selection) []string {
	var headers []string
	counts := map[string]int{}
	row.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		name := strings.TrimSpace(cell.Text())
		if name == "" {
			name = "col_" + strconv.Itoa(i+1)
		}
		counts[name]++
		if n := counts[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		headers = append(headers, name)
	})
	return headers
}

func readAllStdin() (string, error) {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("htmltable: read stdin: %w", err)
	}
	return string(b), nil
}
