package unitindex

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	appendixPattern = regexp.MustCompile(`(?i)^Appendix:\s*(\w+)\s+School`)
	rangePattern    = regexp.MustCompile(`^(.+?)\s+pp\.\s*(\d+)\s*[-–]\s*(\d+)`)
)

// ParseText reads a plain-text table of contents in which "Appendix: <Level>
// School" lines open a bucket and "<School> pp. <start>-<end>" lines list its
// units. Lines outside a known bucket are ignored. The result is a starting
// point for hand edits; the text index is not always right about the reports.
func ParseText(r io.Reader) (*Index, error) {
	idx := &Index{}
	current := ""
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if m := appendixPattern.FindStringSubmatch(line); m != nil {
			current = ""
			level := strings.ToLower(m[1])
			for _, bucket := range Buckets {
				if bucket == level {
					current = bucket
				}
			}
			continue
		}
		m := rangePattern.FindStringSubmatch(line)
		if m == nil || current == "" {
			continue
		}
		start, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: start page: %w", lineNo, err)
		}
		end, err := strconv.Atoi(m[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: end page: %w", lineNo, err)
		}
		idx.Entries = append(idx.Entries, Entry{
			Name:   strings.Join(strings.Fields(m[1]), " "),
			Bucket: current,
			Start:  start,
			End:    end,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text index: %w", err)
	}
	idx.sortByBucket()
	return idx, nil
}

// sortByBucket orders entries by bucket, keeping source order within a bucket.
func (idx *Index) sortByBucket() {
	sorted := make([]Entry, 0, len(idx.Entries))
	for _, bucket := range Buckets {
		sorted = append(sorted, idx.Bucket(bucket)...)
	}
	idx.Entries = sorted
}
