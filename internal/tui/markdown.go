package tui

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdCodeBlockRe  = regexp.MustCompile(`(?s)<pre><code(?: class="language-([a-zA-Z0-9]+)")?>(.*?)</code></pre>`)
	mdInlineCodeRe = regexp.MustCompile(`<code>([^<]+)</code>`)
	mdHeadingRe    = regexp.MustCompile(`(?s)<h[1-6][^>]*>(.*?)</h[1-6]>`)
	mdStrongRe     = regexp.MustCompile(`(?s)<strong>(.*?)</strong>`)
	mdEmRe         = regexp.MustCompile(`(?s)<em>(.*?)</em>`)
	mdLinkRe       = regexp.MustCompile(`<a href="([^"]*)"[^>]*>(.*?)</a>`)
	mdQuoteRe      = regexp.MustCompile(`(?s)<blockquote>(.*?)</blockquote>`)
	mdListRe       = regexp.MustCompile(`(?s)<[uo]l>(.*?)</[uo]l>`)
	mdItemRe       = regexp.MustCompile(`(?s)<li>(.*?)</li>`)
	mdTagRe        = regexp.MustCompile(`<[^>]+>`)
	mdBlankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// ReplyRenderer renders companion replies (markdown) for the chat pane.
// Replies are mostly prose with the occasional list or code snippet, so
// everything funnels through goldmark's HTML output and is flattened back
// to styled terminal text.
type ReplyRenderer struct {
	md        goldmark.Markdown
	theme     Theme
	formatter chroma.Formatter
	codeStyle *chroma.Style
}

func NewReplyRenderer(theme Theme) *ReplyRenderer {
	return &ReplyRenderer{
		md: goldmark.New(
			goldmark.WithRendererOptions(html.WithHardWraps()),
			goldmark.WithExtensions(extension.GFM, extension.Strikethrough),
		),
		theme:     theme,
		formatter: formatters.Get("terminal256"),
		codeStyle: styles.Get("friendly"),
	}
}

func (r *ReplyRenderer) Render(content string, width int) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return r.flatten(buf.String(), width)
}

func (r *ReplyRenderer) flatten(htmlText string, width int) string {
	out := htmlText

	var fenced []string
	out = mdCodeBlockRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdCodeBlockRe.FindStringSubmatch(m)
		code := decodeEntities(sub[2])
		block := lipgloss.NewStyle().
			Foreground(r.theme.TextPrimary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(r.theme.Border).
			PaddingLeft(1).
			Render(r.highlight(code, sub[1]))
		fenced = append(fenced, block)
		return fmt.Sprintf("\n{{FENCE_%d}}\n", len(fenced)-1)
	})

	out = mdInlineCodeRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdInlineCodeRe.FindStringSubmatch(m)
		return lipgloss.NewStyle().Foreground(r.theme.Accent2).Render(decodeEntities(sub[1]))
	})

	bold := lipgloss.NewStyle().Bold(true).Foreground(r.theme.TextPrimary)
	out = mdHeadingRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdHeadingRe.FindStringSubmatch(m)
		return bold.Render(mdTagRe.ReplaceAllString(sub[1], "")) + "\n"
	})
	out = mdStrongRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdStrongRe.FindStringSubmatch(m)
		return bold.Render(sub[1])
	})
	out = mdEmRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdEmRe.FindStringSubmatch(m)
		return lipgloss.NewStyle().Italic(true).Render(sub[1])
	})
	out = mdLinkRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdLinkRe.FindStringSubmatch(m)
		if sub[1] == sub[2] {
			return lipgloss.NewStyle().Underline(true).Foreground(r.theme.Accent).Render(sub[2])
		}
		return lipgloss.NewStyle().Underline(true).Foreground(r.theme.Accent).
			Render(fmt.Sprintf("%s (%s)", sub[2], sub[1]))
	})

	out = mdQuoteRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdQuoteRe.FindStringSubmatch(m)
		text := strings.TrimSpace(mdTagRe.ReplaceAllString(sub[1], ""))
		return lipgloss.NewStyle().
			Foreground(r.theme.TextMuted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(r.theme.Accent).
			PaddingLeft(1).
			Render(text) + "\n"
	})

	out = mdListRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdListRe.FindStringSubmatch(m)
		items := mdItemRe.FindAllStringSubmatch(sub[1], -1)
		var b strings.Builder
		for _, item := range items {
			b.WriteString(lipgloss.NewStyle().Foreground(r.theme.Accent).Render("  • "))
			b.WriteString(strings.TrimSpace(mdTagRe.ReplaceAllString(item[1], "")))
			b.WriteString("\n")
		}
		return b.String()
	})

	out = strings.ReplaceAll(out, "<p>", "")
	out = strings.ReplaceAll(out, "</p>", "\n")
	out = strings.ReplaceAll(out, "<br>", "\n")
	out = strings.ReplaceAll(out, "<br/>", "\n")
	out = strings.ReplaceAll(out, "<br />", "\n")

	for i, block := range fenced {
		out = strings.ReplaceAll(out, fmt.Sprintf("{{FENCE_%d}}", i), block)
	}

	out = mdTagRe.ReplaceAllString(out, "")
	out = decodeEntities(out)
	out = mdBlankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func (r *ReplyRenderer) highlight(code, lang string) string {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.codeStyle, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

var entityPairs = [...][2]string{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", "\""},
	{"&#39;", "'"},
	{"&#x27;", "'"},
	{"&#x60;", "`"},
	{"&nbsp;", " "},
	{"&hellip;", "..."},
}

func decodeEntities(s string) string {
	for _, p := range entityPairs {
		s = strings.ReplaceAll(s, p[0], p[1])
	}
	return s
}
