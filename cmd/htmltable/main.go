// Command htmltable extracts one HTML table into a flat file.
//
// The document comes from -url, -path, or stdin when neither is given, so it
// drops into shell pipelines:
//
//	curl -s https://example.org/road-stats | htmltable -selector "table.data" > stats.csv
//	htmltable -url https://example.org/road-stats -index 1 -o stats.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"crashprep/internal/config"
	"crashprep/internal/loader/htmltable"
	"crashprep/internal/render"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("htmltable", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		flagURL      = fs.String("url", "", "fetch the document over HTTP")
		flagPath     = fs.String("path", "", "read the document from a file (default stdin)")
		flagSelector = fs.String("selector", "table", "CSS selector for the table element")
		flagIndex    = fs.Int("index", 0, "which selector match to extract")
		flagTimeout  = fs.Int("timeout", 30, "HTTP fetch budget in seconds")
		flagFormat   = fs.String("format", "csv", "output format: csv, json, or table")
		flagOut      = fs.String("o", "", "output file (default stdout)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	f, err := render.ForKind(*flagFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	opt := config.Options{
		"selector":        *flagSelector,
		"table_index":     *flagIndex,
		"timeout_seconds": *flagTimeout,
	}
	switch {
	case *flagURL != "":
		opt["url"] = *flagURL
	case *flagPath != "":
		opt["path"] = *flagPath
	default:
		opt["path"] = "-"
	}

	tab, err := htmltable.Load(context.Background(), opt)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if *flagOut != "" && *flagOut != "-" {
		file, err := os.Create(*flagOut)
		if err != nil {
			fmt.Fprintf(stderr, "create %s: %v\n", *flagOut, err)
			return 1
		}
		if err := f.Format(tab, file); err != nil {
			file.Close()
			fmt.Fprintf(stderr, "write table: %v\n", err)
			return 1
		}
		if err := file.Close(); err != nil {
			fmt.Fprintf(stderr, "write table: %v\n", err)
			return 1
		}
		return 0
	}

	if err := f.Format(tab, stdout); err != nil {
		fmt.Fprintf(stderr, "write table: %v\n", err)
		return 1
	}
	return 0
}
