package domain

import (
	"fmt"
	"strings"
)

// BlockJoiner separates rendered context blocks.
const BlockJoiner = "\n\n"

// NoContextPlaceholder substitutes for an empty packed context in the
// generation prompt.
const NoContextPlaceholder = "No relevant context found."

// Block is one numbered context unit inside a packed context.
type Block struct {
	Index   int // 1-based, matches the citation marker
	Text    string
	URL     string
	Section string
}

// FormatBlock renders one numbered block with its attribution line.
func FormatBlock(b Block) string {
	if b.Section != "" {
		return fmt.Sprintf("[%d] %s\n(source: %s, section: %s)", b.Index, b.Text, b.URL, b.Section)
	}
	return fmt.Sprintf("[%d] %s\n(source: %s)", b.Index, b.Text, b.URL)
}

// Citation points an answer back at one packed context block.
type Citation struct {
	Index   int    `json:"index"`
	URL     string `json:"url"`
	Section string `json:"section,omitempty"`
}

// PackedContext is the budgeted, numbered context handed to generation.
// Blocks keep their packing order; indices are contiguous from 1.
type PackedContext struct {
	blocks []Block
	text   string
}

// NewPackedContext renders the blocks into the final context text.
func NewPackedContext(blocks []Block) PackedContext {
	rendered := make([]string, len(blocks))
	for i, b := range blocks {
		rendered[i] = FormatBlock(b)
	}
	return PackedContext{blocks: blocks, text: strings.Join(rendered, BlockJoiner)}
}

// Blocks returns the packed blocks in order.
func (p PackedContext) Blocks() []Block { return p.blocks }

// BlockCount returns the number of packed blocks.
func (p PackedContext) BlockCount() int { return len(p.blocks) }

// Text returns the rendered context.
func (p PackedContext) Text() string { return p.text }

// CharCount returns the rendered context length in bytes.
func (p PackedContext) CharCount() int { return len(p.text) }

// IsEmpty reports whether no blocks were packed.
func (p PackedContext) IsEmpty() bool { return len(p.blocks) == 0 }

// PromptText returns the rendered context, or the placeholder when empty.
func (p PackedContext) PromptText() string {
	if p.text == "" {
		return NoContextPlaceholder
	}
	return p.text
}

// Citations derives one citation per block, in block order.
func (p PackedContext) Citations() []Citation {
	cites := make([]Citation, len(p.blocks))
	for i, b := range p.blocks {
		cites[i] = Citation{Index: b.Index, URL: b.URL, Section: b.Section}
	}
	return cites
}
