package cleaner

import (
	"strings"

	"golang.org/x/net/html"
)

// minTableChars is the text length below which a table is treated as
// layout rather than data.
const minTableChars = 20

// table renders a pipe table. Layout tables (too little text, or a single
// row without header cells) render as "". Output is capped at maxRows
// data rows of maxCols cells, and scanning stops after maxEmpty
// consecutive empty rows.
func (r renderer) table(n *html.Node) string {
	if strippedLen(n) < minTableChars {
		return ""
	}

	rows := ownRows(n)
	hasHeaderCells := false
	for _, row := range rows {
		if countCells(row, "th") > 0 {
			hasHeaderCells = true
			break
		}
	}
	if len(rows) < 2 && !hasHeaderCells {
		return ""
	}

	var lines []string
	header := headerRow(n, rows)
	if header != nil {
		cells := r.cellTexts(header)
		if nonEmpty(cells) > 0 {
			lines = append(lines, pipeRow(cells), "|"+strings.Repeat("---|", len(cells)))
		}
	}

	dataRows, emptyRun := 0, 0
	for _, row := range rows {
		if dataRows >= r.maxRows {
			break
		}
		if row == header {
			continue
		}
		// Repeated header rows carry no data.
		if countCells(row, "th") > 0 && countCells(row, "td") == 0 {
			continue
		}

		cells := r.cellTexts(row)
		if nonEmpty(cells) == 0 {
			emptyRun++
			if emptyRun >= r.maxEmpty {
				break
			}
			continue
		}
		emptyRun = 0
		lines = append(lines, pipeRow(cells))
		dataRows++
	}

	if dataRows == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n") + "\n\n"
}

// ownRows returns the rows of table n, excluding rows of nested tables.
func ownRows(n *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case isElement(c, "table"):
				continue
			case isElement(c, "tr"):
				rows = append(rows, c)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return rows
}

// headerRow is the first row of <thead>, or the first row when every cell
// in it is a <th>.
func headerRow(table *html.Node, rows []*html.Node) *html.Node {
	for _, row := range rows {
		if p := closest(row, "thead"); p != nil && closest(p, "table") == table {
			return row
		}
	}
	if len(rows) > 0 {
		first := rows[0]
		if th := countCells(first, "th"); th > 0 && countCells(first, "td") == 0 {
			return first
		}
	}
	return nil
}

func (r renderer) cellTexts(row *html.Node) []string {
	var cells []string
	for c := row.FirstChild; c != nil && len(cells) < r.maxCols; c = c.NextSibling {
		if isElement(c, "td", "th") {
			cells = append(cells, joinedText(c))
		}
	}
	return cells
}

func countCells(row *html.Node, tag string) int {
	count := 0
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, tag) {
			count++
		}
	}
	return count
}

func nonEmpty(cells []string) int {
	count := 0
	for _, c := range cells {
		if c != "" {
			count++
		}
	}
	return count
}

func pipeRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
