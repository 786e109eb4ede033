package output

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/garagon/cppdeps/internal/scanner"
)

// HTMLFormatter renders the Markdown report to a standalone HTML page.
type HTMLFormatter struct{}

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 72rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #d0d7de; padding: .3rem .6rem; text-align: left; }
code { background: #f6f8fa; padding: 0 .2rem; }
</style>
</head>
<body>
`

const htmlTail = `</body>
</html>
`

func (f *HTMLFormatter) Format(w io.Writer, report *scanner.Report) error {
	var md bytes.Buffer
	if err := (&MarkdownFormatter{}).Format(&md, report); err != nil {
		return err
	}

	conv := goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithRendererOptions(html.WithUnsafe()), // the report uses <details> and <code>
	)
	var body bytes.Buffer
	if err := conv.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}

	if _, err := fmt.Fprintf(w, htmlHead, stdhtml.EscapeString(ToolName+" report")); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, htmlTail)
	return err
}
