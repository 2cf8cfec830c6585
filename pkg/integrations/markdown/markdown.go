// Package markdown bridges the diagram render cache into goldmark-based
// pipelines.
//
// Build systems whose documents are markdown rather than the delimiter
// notation can register this extension to have fenced code blocks with a
// matching info string rendered through the same content-addressed cache.
//
//	md := goldmark.New(goldmark.WithExtensions(markdown.New("diagram", renderer)))
//
// A fence may carry a brace-wrapped style payload after the language word:
//
//	```diagram {float:left}
//	box "lolcat"
//	```
package markdown

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/inkwell-build/inkwell/pkg/chunk"
	"github.com/inkwell-build/inkwell/pkg/diagram"
	"github.com/inkwell-build/inkwell/pkg/pipeline"
)

// Extension is a goldmark extension that renders matching fenced code blocks
// through the diagram render cache.
type Extension struct {
	language string
	renderer *diagram.Renderer
}

// New creates an extension capturing fenced blocks whose info string begins
// with language.
func New(language string, r *diagram.Renderer) *Extension {
	return &Extension{language: language, renderer: r}
}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(md goldmark.Markdown) {
	md.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(&transformer{ext: e}, 100),
		),
	)
	md.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&nodeRenderer{ext: e}, 100),
		),
	)
}

// transformer rewraps matching fenced code blocks into diagramBlock nodes,
// so the node renderer below is registered for exactly those blocks rather
// than for all fenced code.
type transformer struct {
	ext *Extension
}

func (t *transformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	var fenced []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(node ast.Node, enter bool) (ast.WalkStatus, error) {
		if fb, ok := node.(*ast.FencedCodeBlock); ok && enter {
			fenced = append(fenced, fb)
		}
		return ast.WalkContinue, nil
	})

	for _, fb := range fenced {
		if string(fb.Language(reader.Source())) != t.ext.language {
			continue
		}
		doc.ReplaceChild(fb.Parent(), fb, &diagramBlock{FencedCodeBlock: *fb})
	}
}

var diagramBlockKind = ast.NewNodeKind("DiagramBlock")

// diagramBlock is a fenced code block destined for the render cache.
type diagramBlock struct {
	ast.FencedCodeBlock
}

func (b *diagramBlock) IsRaw() bool        { return true }
func (b *diagramBlock) Kind() ast.NodeKind { return diagramBlockKind }

// bodyLines extracts the fence content as raw lines.
func (b *diagramBlock) bodyLines(src []byte) []string {
	lines := b.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(src)), "\n"))
	}
	return out
}

// style extracts the brace-wrapped payload following the language word.
func (b *diagramBlock) style(src []byte) string {
	if b.Info == nil {
		return ""
	}
	info := string(b.Info.Value(src))
	rest := strings.TrimSpace(strings.TrimPrefix(info, string(b.Language(src))))
	if strings.HasPrefix(rest, "{") && strings.HasSuffix(rest, "}") && len(rest) >= 2 {
		rest = rest[1 : len(rest)-1]
	}
	return strings.TrimSpace(rest)
}

// nodeRenderer renders diagramBlocks through the cache as embed fragments.
type nodeRenderer struct {
	ext *Extension
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(diagramBlockKind, r.render)
}

func (r *nodeRenderer) render(w util.BufWriter, src []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := node.(*diagramBlock)

	c := chunk.Chunk{
		Kind:  chunk.Diagram,
		Attr:  block.style(src),
		Lines: block.bodyLines(src),
	}
	res, err := r.ext.renderer.Render(context.Background(), c)
	if err != nil {
		return ast.WalkStop, err
	}

	fragment := pipeline.Fragment(
		r.ext.renderer.URL(res.Digest),
		pipeline.MediaType(r.ext.renderer.Ext()),
		res)
	if _, err := w.WriteString(fragment + "\n"); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}
