// Package render turns parsed analysis content into display sections:
// markdown fields through goldmark, code fields through chroma, everything
// sanitized before it can reach a document.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

var markdownPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	return p
}()

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		renderer.WithNodeRenderers(util.Prioritized(&fencedBlockRenderer{}, 200)),
	),
)

// Markdown converts a markdown field to sanitized HTML. The backend content
// is semi-trusted at best, so raw HTML never passes through unescaped.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return markdownPolicy.Sanitize(buf.String()), nil
}

// fencedBlockRenderer overrides fenced code blocks so math and diagram
// fences become typed containers for the client-side renderers, and
// everything else gets server-side syntax highlighting.
type fencedBlockRenderer struct{}

func (r *fencedBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedBlock)
}

func (r *fencedBlockRenderer) renderFencedBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := node.(*ast.FencedCodeBlock)
	lang := string(block.Language(source))
	code := fencedBlockText(block, source)

	switch lang {
	case "mermaid":
		fmt.Fprintf(w, `<pre class="mermaid">%s</pre>`, html.EscapeString(code))
	case "math", "latex", "katex":
		fmt.Fprintf(w, `<div class="math-block">%s</div>`, html.EscapeString(code))
	default:
		highlighted, err := Highlight(code, lang)
		if err != nil {
			fmt.Fprintf(w, `<pre><code>%s</code></pre>`, html.EscapeString(code))
			break
		}
		w.WriteString(highlighted)
	}
	return ast.WalkSkipChildren, nil
}

func fencedBlockText(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}
