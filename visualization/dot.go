package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/hsm"
)

// DOTGenerator generates Graphviz DOT format representations of models
type DOTGenerator struct {
	model   *hsm.Model
	options DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowGuardMarkers  bool
	ShowInternal      bool
	ClusterRegions    bool
	RankDirection     string // "TB", "LR", "BT", "RL"
	NodeShape         string
	ChoiceShape       string
	InternalEdgeStyle string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowGuardMarkers:  true,
		ShowInternal:      true,
		ClusterRegions:    true,
		RankDirection:     "TB",
		NodeShape:         "box",
		ChoiceShape:       "diamond",
		InternalEdgeStyle: "dashed",
	}
}

// NewDOTGenerator creates a new DOT generator for the given model
func NewDOTGenerator(model *hsm.Model, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		model:   model,
		options: opts,
	}
}

// Generate creates a DOT representation of the model
func (g *DOTGenerator) Generate() (string, error) {
	if g.model == nil {
		return "", fmt.Errorf("no model to render")
	}

	var dot strings.Builder

	dot.WriteString("digraph StateMachine {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString("  compound=true;\n")
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	dot.WriteString("  // States\n")
	if g.options.ClusterRegions {
		g.generateRegion(&dot, g.model.Root(), 1)
		for _, id := range g.model.States() {
			if g.model.Home(id) == hsm.NoRegion {
				g.generateStateNode(&dot, id, "  ")
			}
		}
	} else {
		for _, id := range g.model.States() {
			g.generateStateNode(&dot, id, "  ")
		}
	}

	dot.WriteString("\n  // Transitions\n")
	g.generateTransitions(&dot)

	dot.WriteString("}\n")

	return dot.String(), nil
}

// generateRegion writes a region as a cluster holding its states
func (g *DOTGenerator) generateRegion(dot *strings.Builder, r hsm.RegionID, depth int) {
	indent := strings.Repeat("  ", depth)
	dot.WriteString(fmt.Sprintf("%ssubgraph \"cluster_region_%d\" {\n", indent, r))
	dot.WriteString(fmt.Sprintf("%s  label=\"%s\";\n", indent, g.regionLabel(r)))
	dot.WriteString(fmt.Sprintf("%s  style=rounded;\n", indent))

	for _, id := range g.model.States() {
		if g.model.Home(id) != r {
			continue
		}
		g.generateStateNode(dot, id, indent+"  ")
		for _, child := range g.model.Regions(id) {
			g.generateRegion(dot, child, depth+1)
		}
	}

	dot.WriteString(fmt.Sprintf("%s}\n", indent))
}

func (g *DOTGenerator) regionLabel(r hsm.RegionID) string {
	label := fmt.Sprintf("region %d", r)
	if owner := g.model.RegionOwner(r); owner != hsm.NoState {
		label = fmt.Sprintf("%s / region %d", g.model.Name(owner), r)
	}
	if g.model.RegionHistory(r) == hsm.HistoryShallow {
		label += " (H)"
	}
	return label
}

// generateStateNode generates a DOT node for a single state
func (g *DOTGenerator) generateStateNode(dot *strings.Builder, id hsm.StateID, indent string) {
	shape := g.options.NodeShape
	fillColor := "lightblue"
	label := g.model.Name(id)

	switch {
	case g.model.Kind(id) == hsm.KindChoice:
		shape = g.options.ChoiceShape
		fillColor = "lightyellow"
	case g.isInitial(id):
		fillColor = "lightgreen"
		label += "\\n(initial)"
	}
	if len(g.model.Regions(id)) > 0 {
		fillColor = "lavender"
		label += fmt.Sprintf("\\n[%d regions]", len(g.model.Regions(id)))
	}

	dot.WriteString(fmt.Sprintf("%s%s [shape=%s style=\"filled\" fillcolor=%s label=\"%s\"];\n",
		indent, g.nodeID(id), shape, fillColor, escape(label)))
}

func (g *DOTGenerator) isInitial(id hsm.StateID) bool {
	for _, r := range g.model.RegionIDs() {
		if g.model.RegionInitial(r) == id {
			return true
		}
	}
	return false
}

// generateTransitions generates DOT edges for reactions and choice branches
func (g *DOTGenerator) generateTransitions(dot *strings.Builder) {
	for _, id := range g.model.States() {
		if whenTrue, whenFalse, ok := g.model.Branches(id); ok {
			g.generateEdge(dot, id, whenTrue, "[true]")
			g.generateEdge(dot, id, whenFalse, "[false]")
			continue
		}
		for _, t := range g.model.Transitions(id) {
			label := t.Event.Label()
			if t.Guarded && g.options.ShowGuardMarkers {
				label += " [guard]"
			}
			g.generateEdge(dot, id, t, label)
		}
	}
}

func (g *DOTGenerator) generateEdge(dot *strings.Builder, from hsm.StateID, t hsm.TransitionInfo, label string) {
	if t.Internal {
		if !g.options.ShowInternal {
			return
		}
		dot.WriteString(fmt.Sprintf("  %s -> %s [label=\"%s\" style=%s];\n",
			g.nodeID(from), g.nodeID(from), escape(label), g.options.InternalEdgeStyle))
		return
	}
	dot.WriteString(fmt.Sprintf("  %s -> %s [label=\"%s\"];\n", g.nodeID(from), g.nodeID(t.Target), escape(label)))
}

// nodeID quotes the state name; names need not be unique, so the handle is
// appended when another state shares it
func (g *DOTGenerator) nodeID(id hsm.StateID) string {
	name := g.model.Name(id)
	for _, other := range g.model.States() {
		if other != id && g.model.Name(other) == name {
			return fmt.Sprintf("\"%s#%d\"", escape(name), id)
		}
	}
	return fmt.Sprintf("\"%s\"", escape(name))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// GenerateSVG renders the DOT output through the Graphviz dot command
func (g *DOTGenerator) GenerateSVG() (string, error) {
	dotContent, err := g.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}
