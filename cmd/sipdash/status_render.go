package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/lisaguthrie/sipdashboard/internal/preflight"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

type checkStatus struct {
	label string
	color string
}

var (
	checkOK   = checkStatus{"OK", ansiGreen}
	checkWarn = checkStatus{"WARN", ansiYellow}
	checkFail = checkStatus{"ERROR", ansiRed}
)

// checkLabelWidth fits "Page grid (elementary):".
const checkLabelWidth = 24

// renderResults formats preflight results under a title. An offline
// classifier is not a failure but is flagged so it is not mistaken for one
// that answered.
func renderResults(title string, results []preflight.Result, colorize bool) []string {
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	lines := []string{paint(header, ansiBlue, colorize), paint(strings.Repeat("-", len(header)), ansiBlue, colorize)}
	for _, r := range results {
		status := checkOK
		switch {
		case !r.Passed:
			status = checkFail
		case strings.HasPrefix(r.Detail, "offline: "):
			status = checkWarn
		}
		line := fmt.Sprintf("  %-*s [%s]", checkLabelWidth, r.Name+":", status.label)
		if r.Detail != "" {
			line += " " + r.Detail
		}
		lines = append(lines, paint(line, status.color, colorize))
	}
	return lines
}

func paint(s, color string, colorize bool) string {
	if !colorize {
		return s
	}
	return color + s + ansiReset
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
