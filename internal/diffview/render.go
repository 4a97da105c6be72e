package diffview

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// CellKind classifies one side of a side-by-side row.
type CellKind string

const (
	CellContext CellKind = "context"
	CellAdded   CellKind = "added"
	CellRemoved CellKind = "removed"
	CellEmpty   CellKind = "empty"
)

// Cell is one half of a rendered row. Num is 0 for empty cells.
type Cell struct {
	Kind CellKind `json:"kind"`
	Num  int      `json:"num,omitempty"`
	Text string   `json:"text"`
}

// Row aligns an old-side cell with a new-side cell.
type Row struct {
	Left  Cell `json:"left"`
	Right Cell `json:"right"`
}

// HunkRows is the side-by-side projection of one hunk.
type HunkRows struct {
	Header string `json:"header"`
	Rows   []Row  `json:"rows"`
}

// SideBySide aligns each hunk into two columns: consecutive removed lines
// pair with consecutive added lines, the longer run padded with empty cells.
func SideBySide(p *Patch) []HunkRows {
	if p == nil || len(p.Hunks) == 0 {
		return nil
	}
	out := make([]HunkRows, 0, len(p.Hunks))
	for _, h := range p.Hunks {
		hr := HunkRows{
			Header: fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount),
		}
		i := 0
		for i < len(h.Lines) {
			line := h.Lines[i]
			if line.Kind == LineContext {
				hr.Rows = append(hr.Rows, Row{
					Left:  Cell{Kind: CellContext, Num: line.OldNum, Text: line.OldText},
					Right: Cell{Kind: CellContext, Num: line.NewNum, Text: line.NewText},
				})
				i++
				continue
			}

			var removed, added []Line
			for i < len(h.Lines) && h.Lines[i].Kind == LineRemoved {
				removed = append(removed, h.Lines[i])
				i++
			}
			for i < len(h.Lines) && h.Lines[i].Kind == LineAdded {
				added = append(added, h.Lines[i])
				i++
			}
			n := len(removed)
			if len(added) > n {
				n = len(added)
			}
			for j := 0; j < n; j++ {
				row := Row{Left: Cell{Kind: CellEmpty}, Right: Cell{Kind: CellEmpty}}
				if j < len(removed) {
					row.Left = Cell{Kind: CellRemoved, Num: removed[j].OldNum, Text: removed[j].OldText}
				}
				if j < len(added) {
					row.Right = Cell{Kind: CellAdded, Num: added[j].NewNum, Text: added[j].NewText}
				}
				hr.Rows = append(hr.Rows, row)
			}
		}
		out = append(out, hr)
	}
	return out
}

// htmlPolicy is the allow-list applied to every rendered diff fragment.
// Anything outside it, scripts included, is stripped.
var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "table", "colgroup", "col", "tbody", "tr", "td", "th", "span", "pre", "code")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("style").Globally()
	p.AllowAttrs("data-line-number").OnElements("td", "span")
	return p
}()

// RenderHTML renders the patch as a sanitized side-by-side HTML table.
// A nil patch renders to the empty string, never to an empty wrapper.
func RenderHTML(p *Patch) string {
	hunks := SideBySide(p)
	if len(hunks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div class="diff-split">`)
	for _, h := range hunks {
		b.WriteString(`<table class="diff-hunk"><tbody>`)
		fmt.Fprintf(&b, `<tr class="diff-hunk-header"><td colspan="4">%s</td></tr>`, html.EscapeString(h.Header))
		for _, row := range h.Rows {
			b.WriteString("<tr>")
			writeCell(&b, row.Left)
			writeCell(&b, row.Right)
			b.WriteString("</tr>")
		}
		b.WriteString(`</tbody></table>`)
	}
	b.WriteString(`</div>`)

	return htmlPolicy.Sanitize(b.String())
}

func writeCell(b *strings.Builder, c Cell) {
	if c.Kind == CellEmpty {
		b.WriteString(`<td class="diff-num diff-empty"></td><td class="diff-code diff-empty"></td>`)
		return
	}
	fmt.Fprintf(b, `<td class="diff-num diff-%s" data-line-number="%d">%d</td>`, c.Kind, c.Num, c.Num)
	fmt.Fprintf(b, `<td class="diff-code diff-%s"><span>%s</span></td>`, c.Kind, html.EscapeString(c.Text))
}
