// ABOUTME: Graphviz renderings of the deal pipeline and a single contact
// ABOUTME: Produces DOT or SVG output for the CLI, web, and MCP surfaces
package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/dealdeck/services"
)

// GraphGenerator builds graphs from live service data.
type GraphGenerator struct {
	svc *services.Services
}

func NewGraphGenerator(svc *services.Services) *GraphGenerator {
	return &GraphGenerator{svc: svc}
}

// ParseFormat accepts "dot" or "svg".
func ParseFormat(s string) (graphviz.Format, error) {
	switch strings.ToLower(s) {
	case "", "dot":
		return graphviz.XDOT, nil
	case "svg":
		return graphviz.SVG, nil
	}
	return "", fmt.Errorf("unsupported graph format %q (valid: dot, svg)", s)
}

// render creates a graph, lets build populate it, and renders it.
func render(ctx context.Context, format graphviz.Format, build func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// GeneratePipelineGraph draws stages left to right with their deals and each deal's contact.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context, format graphviz.Format) (string, error) {
	data, err := g.svc.LoadPipeline(ctx)
	if err != nil {
		return "", err
	}
	names := services.ContactNames(data.Contacts)

	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetLabel("Deal Pipeline")
		graph.SetRankDir(cgraph.LRRank)

		stageNodes := make(map[string]*cgraph.Node)
		var prev *cgraph.Node
		for _, st := range data.Stages {
			node, err := graph.CreateNodeByName("stage_" + st.Key())
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			node.SetLabel(st.Name)
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor(colorOr(st.Color, "lightblue"))
			stageNodes[st.Key()] = node

			if prev != nil {
				edge, err := graph.CreateEdgeByName("next", prev, node)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetStyle("bold")
			}
			prev = node
		}

		contactNodes := make(map[int64]*cgraph.Node)
		for _, d := range data.Deals {
			stageNode, ok := stageNodes[strings.ToLower(d.Stage)]
			if !ok {
				continue
			}
			node, err := graph.CreateNodeByName(fmt.Sprintf("deal_%d", d.ID))
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s\n%d%%", d.Title, FormatThousands(d.Value), d.Probability))
			node.SetShape("note")
			node.SetStyle("filled")
			node.SetFillColor("lightyellow")

			if _, err := graph.CreateEdgeByName("in_stage", stageNode, node); err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}

			if d.ContactID == 0 {
				continue
			}
			contactNode, ok := contactNodes[d.ContactID]
			if !ok {
				contactNode, err = graph.CreateNodeByName(fmt.Sprintf("contact_%d", d.ContactID))
				if err != nil {
					return fmt.Errorf("failed to create contact node: %w", err)
				}
				contactNode.SetLabel(services.ContactName(names, d.ContactID))
				contactNode.SetShape("ellipse")
				contactNode.SetStyle("filled")
				contactNode.SetFillColor("lightgreen")
				contactNodes[d.ContactID] = contactNode
			}
			edge, err := graph.CreateEdgeByName("contact_for", contactNode, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("dotted")
		}
		return nil
	})
}

// GenerateContactGraph draws one contact with its deals and activities.
func (g *GraphGenerator) GenerateContactGraph(ctx context.Context, contactID int64, format graphviz.Format) (string, error) {
	detail, err := g.svc.LoadContactDetail(ctx, contactID)
	if err != nil {
		return "", err
	}

	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetLabel(detail.Contact.Name)

		root, err := graph.CreateNodeByName(fmt.Sprintf("contact_%d", detail.Contact.ID))
		if err != nil {
			return fmt.Errorf("failed to create contact node: %w", err)
		}
		label := detail.Contact.Name
		if detail.Contact.Company != "" {
			label += "\n" + detail.Contact.Company
		}
		root.SetLabel(label)
		root.SetShape("ellipse")
		root.SetStyle("filled")
		root.SetFillColor("lightgreen")

		dealNodes := make(map[int64]*cgraph.Node)
		for _, d := range detail.Deals {
			node, err := graph.CreateNodeByName(fmt.Sprintf("deal_%d", d.ID))
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s\n(%s)", d.Title, FormatThousands(d.Value), d.Stage))
			node.SetShape("diamond")
			node.SetStyle("filled")
			node.SetFillColor("lightyellow")
			dealNodes[d.ID] = node

			edge, err := graph.CreateEdgeByName("deal", root, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("deal")
		}

		for _, a := range detail.Activities {
			node, err := graph.CreateNodeByName(fmt.Sprintf("activity_%d", a.ID))
			if err != nil {
				return fmt.Errorf("failed to create activity node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s", a.Type, a.Timestamp.Format("2006-01-02")))
			node.SetShape("box")

			from := root
			if dn, ok := dealNodes[a.DealID]; ok {
				from = dn
			}
			edge, err := graph.CreateEdgeByName("activity", from, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("dashed")
		}
		return nil
	})
}

func colorOr(color, fallback string) string {
	if color == "" {
		return fallback
	}
	return color
}
