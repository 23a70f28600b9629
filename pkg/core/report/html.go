package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Output formats.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// Cell classes set on rendered HTML tables.
const (
	ClassNegative = "neg"
	ClassMissing  = "missing"
)

// HTML renders the summaries through goldmark and marks negative and missing value
// cells with ClassNegative and ClassMissing.
func HTML(summaries ...*calc.Summary) (string, error) {
	var md strings.Builder
	for _, s := range summaries {
		md.WriteString(Markdown(s))
		md.WriteString("\n")
	}
	raw, err := utils.MarkdownToHTML(md.String())
	if err != nil {
		return "", eris.Wrap(err, "rendering markdown")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", eris.Wrap(err, "parsing rendered html")
	}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("td").Each(func(_ int, cell *goquery.Selection) {
			if cell.Index() == 0 {
				return
			}
			text := strings.TrimSpace(cell.Text())
			if text == Missing {
				cell.AddClass(ClassMissing)
				return
			}
			if v, err := strconv.ParseFloat(text, 64); err == nil && v < 0 {
				cell.AddClass(ClassNegative)
			}
		})
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", eris.Wrap(err, "serializing html")
	}
	return strings.TrimSpace(out), nil
}

// Render writes the summaries to w in format.
func Render(w io.Writer, format string, summaries ...*calc.Summary) error {
	var out string
	switch format {
	case FormatMarkdown, "":
		var sb strings.Builder
		for i, s := range summaries {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(Markdown(s))
		}
		out = sb.String()
	case FormatHTML:
		var err error
		if out, err = HTML(summaries...); err != nil {
			return err
		}
		out += "\n"
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
	_, err := io.WriteString(w, out)
	return eris.Wrap(err, "writing report")
}
