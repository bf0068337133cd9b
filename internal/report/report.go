// Package report summarizes tables for humans: per-column data quality,
// category frequencies, and token frequencies for packed multi-value
// columns. Every report also lays itself out as a table so the render
// package can deliver it in any output format.
package report

import "math"

func round2(f float64) float64 { return math.Round(f*100) / 100 }

func round4(f float64) float64 { return math.Round(f*1e4) / 1e4 }
