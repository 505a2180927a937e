package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/lisaguthrie/sipdashboard/internal/pagegrid"
	"github.com/lisaguthrie/sipdashboard/internal/unitindex"
)

// CheckIndex verifies the unit index parses. The index is returned for
// follow-up checks when it does.
func CheckIndex(path string) (Result, *unitindex.Index) {
	const name = "Unit index"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "paths.index_file is not set"}, nil
	}
	idx, err := unitindex.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist; run `sipdash index parse`)", path)}, nil
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}, nil
	}
	if idx.Len() == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no schools listed)", path)}, idx
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d schools)", path, idx.Len())}, idx
}

// CheckGrid verifies a bucket's page-grid dump loads and covers the last
// page any of entries needs.
func CheckGrid(bucket, path string, entries []unitindex.Entry) Result {
	name := gridName(bucket)
	mem, err := pagegrid.LoadFile(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	last := mem.LastPage()
	for _, e := range entries {
		if e.End > last {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s ends on page %d but the dump stops at %d)", path, e.Name, e.End, last)}
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d pages)", path, last)}
}

// CheckPDFRanges verifies every entry's start page lies within the bucket PDF.
func CheckPDFRanges(bucket, path string, entries []unitindex.Entry) Result {
	name := "PDF (" + bucket + ")"
	count, err := pagegrid.PageCount(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	var bad []string
	for _, e := range entries {
		if e.Start > count {
			bad = append(bad, fmt.Sprintf("%s: start page %d exceeds PDF length %d", e.Name, e.Start, count))
		}
	}
	if len(bad) > 0 {
		return Result{Name: name, Detail: strings.Join(bad, "; ")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d pages, %d schools in range)", path, count, len(entries))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWritableDir is CheckDirectoryAccess for directories the run creates on
// demand: a missing directory passes when its nearest existing parent is
// writable.
func CheckWritableDir(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not set"}
	}
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}
	check := CheckDirectoryAccess(name, parent)
	if !check.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot be created under %s)", path, parent)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

func gridName(bucket string) string {
	return "Page grid (" + bucket + ")"
}
