package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/linkage"
	"github.com/dd0wney/rk-toolkit/pkg/ontology"
	"github.com/dd0wney/rk-toolkit/pkg/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	maskedStyle = lipgloss.NewStyle().
			Faint(true).
			Strikethrough(true)

	enumeratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginRight(1)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// renderModel draws the structural tree of m with masked nodes struck
// through, followed by its links.
func renderModel(m *pipeline.Model) string {
	h := m.Structural
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("model " + m.ID.String()))
	sb.WriteString("\n")
	sb.WriteString(buildTree(m, h.RootID()).String())
	sb.WriteString("\n")

	if len(m.Links) > 0 {
		sb.WriteString(titleStyle.Render("links"))
		sb.WriteString("\n")
		for _, e := range m.Links {
			line := e.Key().String()
			if d, ok := e.Attributes[linkage.AttrDelta].(float64); ok {
				line += fmt.Sprintf("  Δ %.3g", d)
			}
			if m.Mask.IsNodeMasked(e.Source) || m.Mask.IsNodeMasked(e.Target) {
				sb.WriteString(maskedStyle.Render(line))
			} else {
				sb.WriteString(linkStyle.Render(line))
			}
			sb.WriteString("\n")
		}
	}
	if len(m.Location) > 0 {
		sb.WriteString(fmt.Sprintf("location %v\n", m.Location))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func buildTree(m *pipeline.Model, id string) *tree.Tree {
	t := tree.Root(nodeLabel(m, id)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle)
	for _, child := range m.Structural.ChildrenOf(id) {
		if len(m.Structural.ChildrenOf(child)) == 0 {
			t.Child(nodeLabel(m, child))
			continue
		}
		t.Child(buildTree(m, child))
	}
	return t
}

func nodeLabel(m *pipeline.Model, id string) string {
	n, ok := m.Structural.Node(id)
	if !ok {
		return id
	}
	label := id
	if v, ok := n.Numeric(); ok {
		label = fmt.Sprintf("%s = %g", id, v)
	} else if n.Value != nil {
		label = fmt.Sprintf("%s = %v", id, n.Value)
	}

	if m.Mask.IsNodeMasked(id) {
		return maskedStyle.Render(label + " (masked)")
	}
	style := lipgloss.NewStyle()
	if c, ok := n.Attribute(ontology.AttrColor); ok {
		if hex, ok := c.(string); ok && len(hex) >= 7 {
			style = style.Foreground(lipgloss.Color(hex[:7]))
		}
	}
	return style.Render(label)
}

// renderSummary prints the pairwise similarity of the first maxColumns
// models and the Mahalanobis score of every model.
func renderSummary(models []*pipeline.Model, opts graph.DistanceOptions, maxColumns int) (string, error) {
	shown := models
	if maxColumns > 0 && len(shown) > maxColumns {
		shown = shown[:maxColumns]
	}
	dm, err := pipeline.DistanceMatrix(shown, opts)
	if err != nil {
		return "", err
	}

	headers := []string{""}
	for i := range shown {
		headers = append(headers, fmt.Sprintf("#%d", i))
	}
	sim := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))).
		StyleFunc(styleCell).
		Headers(headers...)
	for i, row := range dm {
		cells := []string{fmt.Sprintf("#%d", i)}
		for _, d := range row {
			cells = append(cells, fmt.Sprintf("%.3f", 1-d))
		}
		sim.Row(cells...)
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("similarity"))
	sb.WriteString("\n")
	sb.WriteString(sim.String())
	sb.WriteString("\n")

	scores, err := pipeline.MahalanobisScores(models, opts.FillValue)
	if err != nil {
		sb.WriteString(maskedStyle.Render("mahalanobis: " + err.Error()))
		return sb.String(), nil
	}
	maha := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))).
		StyleFunc(styleCell).
		Headers("#", "model", "mahalanobis²")
	for i, s := range scores {
		maha.Row(fmt.Sprintf("%d", i), models[i].ID.String()[:8], fmt.Sprintf("%.3f", s))
	}
	sb.WriteString(titleStyle.Render("outliers"))
	sb.WriteString("\n")
	sb.WriteString(maha.String())
	return sb.String(), nil
}

func styleCell(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return cellStyle
}
