package changelog

import (
	"bytes"
	"regexp"
	"runtime"
	"strings"
)

// DefaultPreamble is written above the generated section when there is no
// existing content to preserve
const DefaultPreamble = `# Changelog

Notable changes to this project are documented in this file.

It is generated from GitHub release notes and may be regenerated at any time.
Anything above the first version heading is preserved when it is.

The format is based on [Keep a Changelog](https://keepachangelog.com/en/1.1.0/).`

var versionHeadingPattern = regexp.MustCompile(`(?m)^## \[`)

// DefaultEOL is the line ending used when no existing file dictates one
func DefaultEOL() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// DetectEOL returns the line ending of the first line break in data, or "" if
// data has none
func DetectEOL(data []byte) string {
	i := bytes.IndexAny(data, "\r\n")
	switch {
	case i < 0:
		return ""
	case data[i] == '\n':
		return "\n"
	case i+1 < len(data) && data[i+1] == '\n':
		return "\r\n"
	}
	return "\r"
}

func normalizeEOL(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// ExtractHeader returns the part of an existing changelog before its first
// version heading ("## [" at the start of a line), with line endings
// normalized to "\n" and trailing whitespace removed
func ExtractHeader(existing string) string {
	s := normalizeEOL(existing)
	if loc := versionHeadingPattern.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimRight(s, " \t\n")
}

// Document assembles a complete changelog
type Document struct {
	// Header is placed above the generated section. Use DefaultPreamble when
	// nothing is preserved.
	Header string
	Body   *Rendered
	EOL    string
}

// String returns the document with its line endings applied
func (d *Document) String() string {
	var b strings.Builder

	if header := strings.TrimRight(normalizeEOL(d.Header), " \t\n"); header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}
	if d.Body != nil {
		b.WriteString(d.Body.Markdown())
	}

	eol := d.EOL
	if eol == "" {
		eol = DefaultEOL()
	}
	out := b.String()
	if eol != "\n" {
		out = strings.ReplaceAll(out, "\n", eol)
	}
	return out
}
