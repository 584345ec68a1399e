package contextpack

import (
	"strings"
	"unicode/utf8"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// Ellipsis marks a snippet truncated at the per-snippet limit.
const Ellipsis = "..."

// Packer renders ranked snippets into a numbered, budgeted context.
// Packing is deterministic for a given input order and budget.
type Packer struct {
	charBudget       int
	snippetCharLimit int
}

// New creates a packer. charBudget bounds the rendered context length in
// bytes; snippetCharLimit bounds one snippet's text inside a block.
func New(charBudget, snippetCharLimit int) *Packer {
	return &Packer{charBudget: charBudget, snippetCharLimit: snippetCharLimit}
}

// Pack renders snippets in order and stops at the first block that would
// overflow the budget; later snippets are dropped whole, never split.
// Snippets without text are skipped without consuming an index, so citation
// indices stay contiguous from 1.
func (p *Packer) Pack(snippets []domain.Snippet) domain.PackedContext {
	var blocks []domain.Block
	used := 0

	for i := range snippets {
		sn := &snippets[i]
		if strings.TrimSpace(sn.Text()) == "" {
			continue
		}

		block := domain.Block{
			Index:   len(blocks) + 1,
			Text:    truncateAtWord(sn.Text(), p.snippetCharLimit),
			URL:     sn.URL(),
			Section: sn.Section(),
		}

		projected := used + len(domain.FormatBlock(block))
		if len(blocks) > 0 {
			projected += len(domain.BlockJoiner)
		}
		if projected > p.charBudget {
			break
		}

		blocks = append(blocks, block)
		used = projected
	}

	return domain.NewPackedContext(blocks)
}

// truncateAtWord cuts text to at most limit bytes, backing up to the last
// space so no word is split, and marks the cut with an ellipsis. Text within
// the limit passes through untouched.
func truncateAtWord(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}

	// Never cut inside a multi-byte rune.
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}

	cut := text[:limit]
	if at := strings.LastIndex(cut, " "); at >= 0 {
		cut = strings.TrimRight(cut[:at], " ")
	}
	return cut + Ellipsis
}
