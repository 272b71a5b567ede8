package notes

import (
	"regexp"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// sanitizer is safe for concurrent use once configured.
var sanitizer = newSanitizer()

func newSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	// Fenced code blocks carry their language as class="language-go".
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[a-zA-Z0-9+#_-]+$`)).OnElements("code", "pre")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

// RenderMarkdown converts note content to sanitized HTML. Raw HTML in the
// note is not trusted: scripts, event handlers and javascript: URLs are
// stripped.
func RenderMarkdown(content string) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(content))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	return string(sanitizer.SanitizeBytes(markdown.Render(doc, renderer)))
}
