package markerplan

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// LinkGroup is one keyword block of the download links file.
type LinkGroup struct {
	Keyword string
	URLs    []string
}

// LoadLinks reads a links file made of blocks separated by blank lines; each
// block holds a keyword line followed by URL lines.
func LoadLinks(path string) ([]LinkGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read links: %w", err)
	}
	return ParseLinks(data), nil
}

// ParseLinks decodes links file contents.
func ParseLinks(data []byte) []LinkGroup {
	data = bytes.TrimPrefix(data, utf8BOM)
	var (
		groups []LinkGroup
		cur    *LinkGroup
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			cur = nil
		case isURL(line):
			if cur == nil {
				groups = append(groups, LinkGroup{})
				cur = &groups[len(groups)-1]
			}
			cur.URLs = append(cur.URLs, line)
		default:
			groups = append(groups, LinkGroup{Keyword: line})
			cur = &groups[len(groups)-1]
		}
	}
	return groups
}

// Coverage returns the marker keywords with no link group.
func Coverage(plan Plan, groups []LinkGroup) []string {
	have := make(map[string]bool, len(groups))
	for _, g := range groups {
		have[strings.ToLower(g.Keyword)] = true
	}
	var missing []string
	for _, kw := range plan.Keywords() {
		if !have[strings.ToLower(kw)] {
			missing = append(missing, kw)
		}
	}
	return missing
}

func isURL(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
