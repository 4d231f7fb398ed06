package analyzer

import "fmt"

// GraphNode is one named function definition in the call graph.
type GraphNode struct {
	ID       string `json:"id"`
	FilePath string `json:"filePath"`
	Name     string `json:"name"`
}

// GraphEdge links a call site's enclosing scope to a definition sharing the
// callee's name. Matching is name-based: a call to foo targets every
// definition named foo, in any file.
type GraphEdge struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
	Name   string `json:"name"`
}

// Graph is the derived call graph consumed by diagram renderers.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// BuildGraph derives the call graph from a set of file records. Definitions
// with the same name in the same file collapse into one node; calls whose
// name matches no definition produce no edge.
func BuildGraph(records []FileRecord) *Graph {
	g := &Graph{}
	byName := make(map[string][]string)
	seenNode := make(map[string]bool)

	for _, rec := range records {
		for _, d := range rec.Defs {
			id := nodeID(d.FilePath, d.Name)
			if seenNode[id] {
				continue
			}
			seenNode[id] = true
			g.Nodes = append(g.Nodes, GraphNode{ID: id, FilePath: d.FilePath, Name: d.Name})
			byName[d.Name] = append(byName[d.Name], id)
		}
	}

	seenEdge := make(map[string]bool)
	for _, rec := range records {
		for _, c := range rec.Calls {
			caller := nodeID(c.FilePath, "global")
			if c.ParentFunc != "" {
				caller = nodeID(c.FilePath, c.ParentFunc)
			}
			for _, callee := range byName[c.Name] {
				key := caller + "->" + callee
				if seenEdge[key] {
					continue
				}
				seenEdge[key] = true
				g.Edges = append(g.Edges, GraphEdge{Caller: caller, Callee: callee, Name: c.Name})
			}
		}
	}
	return g
}

func nodeID(path, name string) string {
	return fmt.Sprintf("%s#%s", path, name)
}
