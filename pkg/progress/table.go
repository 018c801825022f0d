package progress

import (
	"fmt"
	"html"
	"strings"

	"github.com/giselles-ai/giselle-sub003/pkg/models"
)

// BuildTable renders rows as an HTML table: one row per sequence, a "Step n"
// header cell and one collapsible block per step. Output depends only on rows.
func BuildTable(rows []models.ProgressTableRow) string {
	var b strings.Builder

	b.WriteString("<table>\n")

	for i, row := range rows {
		fmt.Fprintf(&b, "<tr>\n<th>Step %d</th>\n<td>\n", i+1)

		for _, step := range row.Steps {
			writeStep(&b, step)
		}

		b.WriteString("</td>\n</tr>\n")
	}

	b.WriteString("</table>")

	return b.String()
}

func writeStep(b *strings.Builder, step models.MiniStepRow) {
	fmt.Fprintf(b, "<details>\n<summary>%s %s</summary>\n\n", glyph(step.Status), html.EscapeString(step.Name))
	fmt.Fprintf(b, "Status: %s\nUpdated: %s\n", statusText(step.Status), FormatTimestamp(step.UpdatedAt))
	b.WriteString("</details>\n")
}
