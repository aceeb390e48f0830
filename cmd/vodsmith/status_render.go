package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"vodsmith/internal/videostore"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func statusColor(status videostore.Status) string {
	switch {
	case status == videostore.StatusReady:
		return ansiGreen
	case status == videostore.StatusProcessing:
		return ansiBlue
	case status == videostore.StatusSkipped:
		return ansiYellow
	case strings.HasPrefix(string(status), "FAILED"):
		return ansiRed
	default:
		return ""
	}
}

func renderStatus(status videostore.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	color := statusColor(status)
	if color == "" {
		return string(status)
	}
	return color + string(status) + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
