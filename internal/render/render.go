// Package render draws the categories of a configured type as the two
// display columns, left and right, for terminal output.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mesh-intelligence/prodmodel/internal/category"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

var (
	colorTitle   = lipgloss.Color("#20B9B4")
	colorHeader  = lipgloss.Color("#2CD7C7")
	colorMuted   = lipgloss.Color("#5C7A84")
	colorPending = lipgloss.Color("#F4D03F")
)

// View is everything shown for one type.
type View struct {
	Type     *types.TypeNode
	Groups   []category.Assignment
	Unplaced []*types.Property
	// Pending holds the ids of properties with a deferred category change.
	Pending map[string]bool
}

// Printer renders views. Styles degrade to plain text when the writer is
// not a terminal.
type Printer struct {
	title   lipgloss.Style
	header  lipgloss.Style
	muted   lipgloss.Style
	pending lipgloss.Style
	column  lipgloss.Style
}

// NewPrinter returns a printer whose color profile matches w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		title:   r.NewStyle().Bold(true).Foreground(colorTitle),
		header:  r.NewStyle().Bold(true).Foreground(colorHeader).Underline(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		pending: r.NewStyle().Foreground(colorPending),
		column:  r.NewStyle().PaddingRight(4),
	}
}

// Render returns the view as a block of text: a title, the left and right
// columns side by side, then any properties no category holds.
func (p *Printer) Render(v View) string {
	var b strings.Builder
	b.WriteString(p.title.Render(fmt.Sprintf("%s (%s)", v.Type.Name, v.Type.Side)))
	b.WriteString("\n\n")

	left := p.column.Render(p.columnFor(v, types.PositionLeft))
	right := p.columnFor(v, types.PositionRight)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")

	if len(v.Unplaced) > 0 {
		b.WriteString("\n")
		b.WriteString(p.header.Render("uncategorized"))
		b.WriteString("\n")
		b.WriteString(p.lines(v, v.Unplaced))
		b.WriteString("\n")
	}
	return b.String()
}

func (p *Printer) columnFor(v View, pos types.Position) string {
	var blocks []string
	for _, g := range v.Groups {
		if g.Category.Position != pos {
			continue
		}
		name := g.Category.Name
		if name == "" {
			name = "(unnamed)"
		}
		block := p.header.Render(name)
		if len(g.Properties) == 0 {
			block += "\n" + p.muted.Render("  (empty)")
		} else {
			block += "\n" + p.lines(v, g.Properties)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func (p *Printer) lines(v View, props []*types.Property) string {
	out := make([]string, 0, len(props))
	for _, prop := range props {
		line := "  " + prop.PropertyName() + " " + p.muted.Render(prop.Kind.String())
		if v.Pending[prop.ID] {
			line += " " + p.pending.Render("*")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
