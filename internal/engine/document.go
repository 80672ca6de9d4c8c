package engine

import (
	"strings"

	"github.com/hurttlocker/prontex/internal/textnorm"
)

// Document is one patient's logical record: the concatenated page texts,
// their normalized form, and the resolved anchor date. Immutable after
// construction; the engine only reads it.
type Document struct {
	Raw    string
	Norm   string
	Anchor string // dd/mm/yyyy, "" when no anchor label matched

	digest string // lazily built relevant-context digest
}

// NewDocument joins the record fragments, normalizes the text, and
// resolves the index-surgery anchor date.
func NewDocument(fragments []string) *Document {
	raw := strings.Join(fragments, "\n\n")
	d := &Document{
		Raw:  raw,
		Norm: textnorm.Normalize(raw),
	}
	if anchor, ok := ResolveAnchor(d.Norm); ok {
		d.Anchor = anchor
	}
	return d
}

// anchorVariants returns the anchor date in the separator variants the
// OCR output mixes (slash, dash, dot). Empty when no anchor resolved.
func (d *Document) anchorVariants() []string {
	if d.Anchor == "" {
		return nil
	}
	return []string{
		d.Anchor,
		strings.ReplaceAll(d.Anchor, "/", "-"),
		strings.ReplaceAll(d.Anchor, "/", "."),
	}
}

// window returns the normalized text around pos: before chars preceding
// and after chars following, clamped to the document bounds.
func (d *Document) window(pos, before, after int) string {
	lo := pos - before
	if lo < 0 {
		lo = 0
	}
	hi := pos + after
	if hi > len(d.Norm) {
		hi = len(d.Norm)
	}
	return d.Norm[lo:hi]
}
