package pagegrid

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Block is one table found on a page: rows of cell text in top-to-bottom order.
type Block struct {
	Page int
	Rows [][]string
}

// Provider yields the tables found on a 1-indexed page, in top-to-bottom order.
// A page without tables yields no blocks and no error.
type Provider interface {
	PageTables(ctx context.Context, page int) ([]Block, error)
}

// TextProvider is implemented by providers that also carry each page's plain text.
type TextProvider interface {
	PageText(ctx context.Context, page int) (string, error)
}

// ErrNoText is returned by PageText when the source carries no page text at all.
var ErrNoText = errors.New("page text unavailable")

// Page is one page of an extractor dump.
type Page struct {
	Page   int          `json:"page" yaml:"page"`
	Text   string       `json:"text,omitempty" yaml:"text,omitempty"`
	Tables [][][]string `json:"tables" yaml:"tables"`
}

// Document is the extractor dump format for one report.
type Document struct {
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Pages  []Page `json:"pages" yaml:"pages"`
}

// MemoryProvider serves pages held in memory.
type MemoryProvider struct {
	pages   map[int]Page
	last    int
	hasText bool
}

// NewMemoryProvider indexes pages by number. Later duplicates replace earlier ones.
func NewMemoryProvider(pages ...Page) *MemoryProvider {
	m := &MemoryProvider{pages: make(map[int]Page, len(pages))}
	for _, p := range pages {
		m.pages[p.Page] = p
		if p.Page > m.last {
			m.last = p.Page
		}
		if p.Text != "" {
			m.hasText = true
		}
	}
	return m
}

// PageTables implements Provider.
func (m *MemoryProvider) PageTables(ctx context.Context, page int) ([]Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	p, ok := m.pages[page]
	if !ok {
		return nil, nil
	}
	blocks := make([]Block, 0, len(p.Tables))
	for _, table := range p.Tables {
		if len(table) == 0 {
			continue
		}
		blocks = append(blocks, Block{Page: page, Rows: table})
	}
	return blocks, nil
}

// PageText implements TextProvider.
func (m *MemoryProvider) PageText(ctx context.Context, page int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !m.hasText {
		return "", ErrNoText
	}
	return m.pages[page].Text, nil
}

// LastPage returns the highest page number present.
func (m *MemoryProvider) LastPage() int {
	return m.last
}

// PageNumbers returns the pages present, ascending.
func (m *MemoryProvider) PageNumbers() []int {
	out := make([]int, 0, len(m.pages))
	for n := range m.pages {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
