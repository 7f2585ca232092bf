package rendering

import (
	"bytes"
	"html/template"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithXHTML()),
)

// mermaidBlock matches the code block goldmark emits for ```mermaid fences
var mermaidBlock = regexp.MustCompile(`(?s)<pre><code class="language-mermaid">(.*?)</code></pre>`)

// HTMLFragment converts report markdown to HTML. Mermaid fences become
// <pre class="mermaid"> blocks so the diagram renders client-side.
func HTMLFragment(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", &RenderError{Message: "failed to convert markdown", Cause: err}
	}
	return mermaidBlock.ReplaceAllString(buf.String(), `<pre class="mermaid">$1</pre>`), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #1f2328; }
h1, h2, h3 { line-height: 1.25; }
pre.mermaid { background: #f6f8fa; padding: 1rem; }
blockquote { color: #57606a; border-left: 4px solid #d0d7de; margin: 0; padding: 0 1rem; }
</style>
</head>
<body>
{{.Body}}
<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: true });
</script>
</body>
</html>
`))

// HTML renders report markdown as a standalone page titled title
func HTML(title, md string) (string, error) {
	body, err := HTMLFragment(md)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	data := struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body)}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", &TemplateError{Message: "failed to execute page template", Cause: err}
	}
	return buf.String(), nil
}
