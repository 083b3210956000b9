// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package roster

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/danielhkuo/quickly-elect/models"
)

var srnPattern = regexp.MustCompile(`^R\d{2}[A-Z]{2}\d{3}$`)

// NormalizeSRN trims and upper-cases an identifier
func NormalizeSRN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidSRN reports whether s (already normalized) is a well-formed SRN
func ValidSRN(s string) bool {
	return srnPattern.MatchString(s)
}

// Entry is one parsed roster line
type Entry struct {
	SRN   string
	Name  string
	Email string
	Note  string
}

// Parsed is the outcome of ParseLines
type Parsed struct {
	Entries []Entry
	Summary models.RosterSummary
}

// ParseLines turns raw roster lines into unique entries.
//
// A line is the CSV record "srn[,name[,email[,note]]]"; fields may be
// quoted. Blank lines are skipped, lines that do not parse or carry a
// malformed SRN are counted as invalid, and repeated SRNs keep their first
// occurrence.
func ParseLines(lines []string) Parsed {
	p := Parsed{Summary: models.RosterSummary{TotalLines: len(lines)}}
	seen := make(map[string]struct{}, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields, err := splitRecord(line)
		if err != nil || len(fields) == 0 {
			p.Summary.InvalidLines++
			continue
		}
		srn := NormalizeSRN(fields[0])
		if !ValidSRN(srn) {
			p.Summary.InvalidLines++
			continue
		}
		p.Summary.ValidSRNs++

		if _, dup := seen[srn]; dup {
			p.Summary.DuplicatesRemoved++
			continue
		}
		seen[srn] = struct{}{}

		p.Entries = append(p.Entries, Entry{
			SRN:   srn,
			Name:  field(fields, 1),
			Email: strings.ToLower(field(fields, 2)),
			Note:  field(fields, 3),
		})
	}

	p.Summary.UniqueSRNs = len(p.Entries)
	return p
}

// splitRecord parses one line as a CSV record. Rows may have any number
// of columns and stray quotes are kept literally.
func splitRecord(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r.Read()
}

func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// maxLineBytes bounds a single roster line
const maxLineBytes = 64 * 1024

// ReadLines splits an uploaded roster into raw lines.
// Handles \r\n endings and a leading UTF-8 byte order mark.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return lines, nil
}

// LooksLikeCSV is an advisory check on an upload's name and content type
func LooksLikeCSV(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/csv") || strings.HasPrefix(ct, "application/vnd.ms-excel") || strings.HasPrefix(ct, "text/plain")
}
