// Package htmltable renders and reads the small HTML tables used for /list and
// /who results.
package htmltable

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoTable is returned by Parse when the input contains no <table> element.
var ErrNoTable = errors.New("htmltable: no table element")

// Render builds a table with an optional header row followed by rows.
// Cell text is escaped.
func Render(headers []string, rows [][]string) (string, error) {
	table := element(atom.Table)

	if len(headers) > 0 {
		table.AppendChild(row(atom.Th, headers))
	}
	for _, r := range rows {
		table.AppendChild(row(atom.Td, r))
	}

	var b strings.Builder
	if err := html.Render(&b, table); err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}
	return b.String(), nil
}

// Parse reads the first table in src. A leading row made only of <th> cells is
// returned as headers; every other row is returned in rows.
func Parse(src string) (headers []string, rows [][]string, err error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, nil, fmt.Errorf("parse table: %w", err)
	}

	table := find(doc, atom.Table)
	if table == nil {
		return nil, nil, ErrNoTable
	}

	first := true
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				// nested tables are not part of this one
			case atom.Tr:
				cells, header := readRow(c)
				if first && header && len(cells) > 0 {
					headers = cells
				} else {
					rows = append(rows, cells)
				}
				first = false
			default:
				visit(c)
			}
		}
	}
	visit(table)

	return headers, rows, nil
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func row(cellAtom atom.Atom, cells []string) *html.Node {
	tr := element(atom.Tr)
	for _, text := range cells {
		cell := element(cellAtom)
		cell.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		tr.AppendChild(cell)
	}
	return tr
}

func readRow(tr *html.Node) (cells []string, header bool) {
	header = true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Th:
			cells = append(cells, text(c))
		case atom.Td:
			header = false
			cells = append(cells, text(c))
		}
	}
	return cells, header
}

func text(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(b.String())
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}
