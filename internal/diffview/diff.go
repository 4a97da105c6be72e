// Package diffview computes a line-level patch between the original and
// modified code of a request and renders it as a side-by-side view. The diff
// engine is sergi/go-diff; this package owns hunk grouping, whitespace
// handling and HTML rendering.
package diffview

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines kept around each change hunk.
const contextLines = 5

// Options selects caller-visible diff behavior. Both values of
// IgnoreWhitespace are supported configurations; the default is false.
type Options struct {
	IgnoreWhitespace bool
}

// LineKind classifies a patch line.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

// Line is one operation inside a hunk. OldNum/NewNum are 1-based; a zero
// number means the line does not exist on that side.
type Line struct {
	Kind    LineKind
	OldNum  int
	NewNum  int
	OldText string
	NewText string
}

// Hunk groups nearby changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Patch is the structural diff between two texts. A nil Patch means the
// inputs are equal under the chosen options; callers render a "no
// differences" placeholder, never an empty container.
type Patch struct {
	Hunks []Hunk
}

// NormalizeNewlines folds \r\n and lone \r into \n so differences are never
// artifacts of line-ending style.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Generate computes the patch between original and modified. It returns
// (nil, nil) when the normalized inputs have no differences. Failures are
// returned, not thrown; a failed diff never takes down sibling views.
func Generate(original, modified string, opts Options) (p *Patch, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("diff generation failed: %v", r)
		}
	}()

	oldLines := splitLines(NormalizeNewlines(original))
	newLines := splitLines(NormalizeNewlines(modified))

	ops := diffOps(oldLines, newLines, opts)
	changed := false
	for _, op := range ops {
		if op.Kind != LineContext {
			changed = true
			break
		}
	}
	if !changed {
		return nil, nil
	}

	return &Patch{Hunks: groupHunks(ops, contextLines)}, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	// A trailing newline yields a phantom empty element; drop it so line
	// counts match what an editor shows.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// lineKey is the equality key for a line under the given options.
func lineKey(line string, opts Options) string {
	if opts.IgnoreWhitespace {
		return strings.Join(strings.Fields(line), " ")
	}
	return line
}

// diffOps runs a line-granularity diff and re-attaches each side's original
// text, so whitespace-insensitive matching still displays the real lines.
func diffOps(oldLines, newLines []string, opts Options) []Line {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	oldKeyed := keyedText(oldLines, opts)
	newKeyed := keyedText(newLines, opts)

	a, b, lineArray := dmp.DiffLinesToChars(oldKeyed, newKeyed)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	ops := make([]Line, 0, len(oldLines)+len(newLines))
	oldIdx, newIdx := 0, 0
	for _, d := range diffs {
		count := countLines(d.Text)
		for i := 0; i < count; i++ {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				if oldIdx >= len(oldLines) || newIdx >= len(newLines) {
					continue
				}
				ops = append(ops, Line{
					Kind:    LineContext,
					OldNum:  oldIdx + 1,
					NewNum:  newIdx + 1,
					OldText: oldLines[oldIdx],
					NewText: newLines[newIdx],
				})
				oldIdx++
				newIdx++
			case diffmatchpatch.DiffDelete:
				if oldIdx >= len(oldLines) {
					continue
				}
				ops = append(ops, Line{
					Kind:    LineRemoved,
					OldNum:  oldIdx + 1,
					OldText: oldLines[oldIdx],
				})
				oldIdx++
			case diffmatchpatch.DiffInsert:
				if newIdx >= len(newLines) {
					continue
				}
				ops = append(ops, Line{
					Kind:    LineAdded,
					NewNum:  newIdx + 1,
					NewText: newLines[newIdx],
				})
				newIdx++
			}
		}
	}
	return ops
}

func keyedText(lines []string, opts Options) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(lineKey(line, opts))
		b.WriteByte('\n')
	}
	return b.String()
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// groupHunks groups change operations into hunks with up to ctx unchanged
// lines of leading and trailing context. Changes separated by at most 2*ctx
// unchanged lines share one hunk, so context regions never overlap and no
// source line is emitted twice.
func groupHunks(ops []Line, ctx int) []Hunk {
	var changes []int
	for i, op := range ops {
		if op.Kind != LineContext {
			changes = append(changes, i)
		}
	}
	if len(changes) == 0 {
		return nil
	}

	type span struct{ first, last int }
	spans := []span{{changes[0], changes[0]}}
	for _, idx := range changes[1:] {
		cur := &spans[len(spans)-1]
		if idx-cur.last-1 <= 2*ctx {
			cur.last = idx
		} else {
			spans = append(spans, span{idx, idx})
		}
	}

	hunks := make([]Hunk, 0, len(spans))
	for _, sp := range spans {
		start := sp.first - ctx
		if start < 0 {
			start = 0
		}
		end := sp.last + ctx
		if end > len(ops)-1 {
			end = len(ops) - 1
		}
		h := Hunk{Lines: append([]Line(nil), ops[start:end+1]...)}
		finalizeCounts(&h)
		hunks = append(hunks, h)
	}
	return hunks
}

func finalizeCounts(h *Hunk) {
	for _, line := range h.Lines {
		if line.OldNum > 0 {
			if h.OldStart == 0 {
				h.OldStart = line.OldNum
			}
			h.OldCount++
		}
		if line.NewNum > 0 {
			if h.NewStart == 0 {
				h.NewStart = line.NewNum
			}
			h.NewCount++
		}
	}
}
