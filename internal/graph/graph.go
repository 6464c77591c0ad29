package graph

import (
	"fmt"
	"sync"

	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/row"
)

// Node is one step of the graph.
type Node struct {
	Name   string
	TypeID string
	Plugin catalog.Plugin
	// Distribute sends each output row to one target, round-robin.
	Distribute bool

	inputs  []*Node
	outputs []*Node
}

// Hop connects the output of one step to the input of another.
type Hop struct {
	From string
	To   string
}

// Graph is a transformation definition.
type Graph struct {
	Name string
	// BufferSize is the capacity of every hop buffer; zero uses the default.
	BufferSize int

	mutex sync.RWMutex
	nodes map[string]*Node
	order []*Node
	hops  []Hop
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{
		Name:  name,
		nodes: make(map[string]*Node),
	}
}

// AddStep adds a step backed by plugin. Step names are unique.
func (g *Graph) AddStep(name, typeID string, plugin catalog.Plugin, distribute bool) (*Node, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if name == "" {
		return nil, &WiringError{Reason: "step name must not be empty"}
	}
	if _, ok := g.nodes[name]; ok {
		return nil, &WiringError{Step: name, Reason: "duplicate step name"}
	}
	n := &Node{Name: name, TypeID: typeID, Plugin: plugin, Distribute: distribute}
	g.nodes[name] = n
	g.order = append(g.order, n)
	return n, nil
}

// AddHop connects from -> to. Both steps must exist, and a pair may be
// connected only once.
func (g *Graph) AddHop(from, to string) error {
	if from == to {
		return &WiringError{Step: from, Reason: "a step cannot feed itself"}
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[from]
	if !ok {
		return &WiringError{Step: from, Reason: fmt.Sprintf("hop %s -> %s: source step not found", from, to)}
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return &WiringError{Step: to, Reason: fmt.Sprintf("hop %s -> %s: target step not found", from, to)}
	}
	for _, h := range g.hops {
		if h.From == from && h.To == to {
			return &WiringError{Step: from, Reason: fmt.Sprintf("duplicate hop %s -> %s", from, to)}
		}
	}

	fromNode.outputs = append(fromNode.outputs, toNode)
	toNode.inputs = append(toNode.inputs, fromNode)
	g.hops = append(g.hops, Hop{From: from, To: to})
	return nil
}

// Step returns the named step.
func (g *Graph) Step(name string) (*Node, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[name]
	return n, ok
}

// Steps returns every step in insertion order.
func (g *Graph) Steps() []*Node {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]*Node(nil), g.order...)
}

// Hops returns every hop in insertion order.
func (g *Graph) Hops() []Hop {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]Hop(nil), g.hops...)
}

// Inputs returns the names of the steps feeding the named step, in hop order.
func (g *Graph) Inputs(name string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return names(n.inputs)
}

// Outputs returns the names of the steps fed by the named step, in hop order.
func (g *Graph) Outputs(name string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return names(n.outputs)
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

// DetectCycles returns a WiringError naming a step on the first cycle found.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, err := g.topoOrder()
	return err
}

// TopoOrder returns the steps so that every step follows all of its inputs.
func (g *Graph) TopoOrder() ([]*Node, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.topoOrder()
}

func (g *Graph) topoOrder() ([]*Node, error) {
	// Depth-first search over outputs: temporary marks the recursion stack,
	// permanent marks steps already placed.
	permanent := make(map[*Node]bool, len(g.order))
	temporary := make(map[*Node]bool)
	out := make([]*Node, 0, len(g.order))

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n] {
			return nil
		}
		if temporary[n] {
			return &WiringError{Step: n.Name, Reason: "cycle detected"}
		}
		temporary[n] = true
		for _, next := range n.outputs {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, n)
		permanent[n] = true
		out = append(out, n)
		return nil
	}
	for _, n := range g.order {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// StepFields returns the layout of the rows the named step writes.
func (g *Graph) StepFields(name string) (*row.Meta, error) {
	layouts, err := g.Layouts()
	if err != nil {
		return nil, err
	}
	m, ok := layouts[name]
	if !ok {
		return nil, &WiringError{Step: name, Reason: "step not found"}
	}
	return m, nil
}

// Layouts computes the output layout of every step, checking that steps with
// several inputs receive compatible layouts.
func (g *Graph) Layouts() (map[string]*row.Meta, error) {
	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}
	layouts := make(map[string]*row.Meta, len(order))
	for _, n := range order {
		inputs := make([]*row.Meta, len(n.inputs))
		for i, in := range n.inputs {
			inputs[i] = layouts[in.Name]
		}
		for i := 1; i < len(inputs); i++ {
			if err := inputs[0].Compatible(inputs[i]); err != nil {
				return nil, &WiringError{
					Step:   n.Name,
					Reason: fmt.Sprintf("inputs %s and %s have incompatible layouts", n.inputs[0].Name, n.inputs[i].Name),
					Err:    err,
				}
			}
		}
		out, err := n.Plugin.Fields(inputs)
		if err != nil {
			return nil, &WiringError{Step: n.Name, Reason: "cannot determine output fields", Err: err}
		}
		layouts[n.Name] = out
	}
	return layouts, nil
}

// InputLayout returns the layout arriving at the named step: the layout of
// its first input, or nil for a step without inputs.
func (g *Graph) InputLayout(name string, layouts map[string]*row.Meta) *row.Meta {
	in := g.Inputs(name)
	if len(in) == 0 {
		return nil
	}
	return layouts[in[0]]
}

// Validate checks that the graph is acyclic and that every step can compute
// its output layout.
func (g *Graph) Validate() error {
	_, err := g.Layouts()
	return err
}
