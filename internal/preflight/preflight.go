package preflight

import (
	"context"

	"github.com/lisaguthrie/sipdashboard/internal/config"
	"github.com/lisaguthrie/sipdashboard/internal/unitindex"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every applicable preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	idxResult, idx := CheckIndex(cfg.Paths.IndexFile)
	results = append(results, idxResult)

	for _, bucket := range config.Buckets {
		path, ok := cfg.GridPath(bucket)
		if !ok {
			if idx != nil && len(idx.Bucket(bucket)) > 0 {
				results = append(results, Result{Name: gridName(bucket), Detail: "not configured but the index lists schools"})
			}
			continue
		}
		results = append(results, CheckGrid(bucket, path, bucketEntries(idx, bucket)))
	}

	if idx != nil {
		for _, bucket := range config.Buckets {
			if path, ok := cfg.PDFPath(bucket); ok {
				results = append(results, CheckPDFRanges(bucket, path, idx.Bucket(bucket)))
			}
		}
	}

	results = append(results, CheckWritableDir("Output directory", cfg.Paths.OutputDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckWritableDir("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckClassifier(ctx, cfg))
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func bucketEntries(idx *unitindex.Index, bucket string) []unitindex.Entry {
	if idx == nil {
		return nil
	}
	return idx.Bucket(bucket)
}
