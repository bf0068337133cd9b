// Command profile samples a dataset and reports what a preparation run will
// face: per-column quality and which columns look delimiter-packed.
//
// Two output modes:
//
//   - Default: emit a ready-to-run crashprep pipeline config as JSON, with
//     the detected multi-value columns wired into an explode step.
//   - Report (-report): print a human-readable quality report instead and
//     suppress the config output.
//
// The sample is bounded (-rows), so detection can miss packing that only
// shows up deep in the file. The generated explode step covers that case by
// falling back to run-time detection when the sample flagged no columns.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"crashprep/internal/profile"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		// flagPath and flagURL name the dataset; exactly one is needed.
		flagPath = fs.String("path", "", "local dataset file (CSV, JSON, or HTML)")
		flagURL  = fs.String("url", "", "fetch the dataset over HTTP instead of -path")

		// flagKind forces the source kind when sniffing gets it wrong, for
		// example a CSV extract served without a file extension.
		flagKind = fs.String("kind", "", "source kind: csv, json, or html (default sniffed)")

		flagRows     = fs.Int("rows", 500, "maximum rows to sample")
		flagDelim    = fs.String("delimiter", ",", "multi-value separator to scan for")
		flagColumns  = fs.String("columns", "", "comma-separated columns to restrict detection to")
		flagMinShare = fs.Float64("min-share", 0, "detection threshold in [0,1] (0 means the classifier default)")

		flagName = fs.String("name", "", "dataset name used for job and output naming")
		flagJob  = fs.String("job", "", "job name for the generated config; defaults to the normalized -name")

		flagReport = fs.Bool("report", false, "print the quality report and suppress config output")
		flagPretty = fs.Bool("pretty", true, "indent the JSON config output")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*flagPath) == "" && strings.TrimSpace(*flagURL) == "" {
		fmt.Fprintln(stderr, "usage: profile -path <file> | -url <http url> [-report]")
		return 2
	}

	var columns []string
	for _, c := range strings.Split(*flagColumns, ",") {
		if c = strings.TrimSpace(c); c != "" {
			columns = append(columns, c)
		}
	}

	// Profiling reads a bounded sample; a slow source should fail fast
	// rather than hang.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	opt := profile.Options{
		Path:      *flagPath,
		URL:       *flagURL,
		Kind:      *flagKind,
		MaxRows:   *flagRows,
		Delimiter: *flagDelim,
		Columns:   columns,
		MinShare:  *flagMinShare,
		Name:      *flagName,
		Job:       *flagJob,
	}
	prof, err := profile.Run(ctx, opt)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if *flagReport {
		fmt.Fprintln(stdout, prof.Report())
		return 0
	}

	enc := json.NewEncoder(stdout)
	if *flagPretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(prof.Pipeline(opt)); err != nil {
		fmt.Fprintf(stderr, "encode config: %v\n", err)
		return 1
	}
	return 0
}
