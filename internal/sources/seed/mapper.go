package seed

import (
	"fmt"
	"strings"
)

// Mapper extracts importable snippet contents from a parsed seed file.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map returns the non-blank snippet contents of the file, in file
// order. Blank entries are skipped; an entirely empty file is an
// error so a typoed seed file is noticed instead of silently ignored.
func (m *Mapper) Map(file *File) ([]string, error) {
	if file == nil {
		return nil, fmt.Errorf("no seed file parsed")
	}

	contents := make([]string, 0, len(file.Snippets))
	for _, snippet := range file.Snippets {
		if strings.TrimSpace(snippet.Content) == "" {
			continue
		}
		contents = append(contents, snippet.Content)
	}

	if len(contents) == 0 {
		return nil, fmt.Errorf("no valid snippets found in seed file")
	}

	return contents, nil
}
