package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// walk recurses over every named child of node, appending discovered
// definitions and calls to the caller-owned record. parent is the name of
// the nearest enclosing named function seen on the way down, or "" at
// module scope. The name is threaded through recursion rather than looked
// up after the fact, so calls inside anonymous literals attribute to the
// previous named ancestor.
func walk(node *sitter.Node, src []byte, rec *FileRecord, parent string) {
	if node == nil {
		return
	}

	if name, fn := definitionName(node, src); name != "" {
		rec.Defs = append(rec.Defs, FunctionDef{
			FilePath: rec.FilePath,
			Name:     name,
			Params:   paramTexts(fn, src),
			Code:     node.Content(src),
		})
		parent = name
	}

	if node.Type() == "call_expression" {
		if callee := node.ChildByFieldName("function"); callee != nil && callee.Type() == "identifier" {
			rec.Calls = append(rec.Calls, FunctionCall{
				FilePath:   rec.FilePath,
				ParentFunc: parent,
				Name:       callee.Content(src),
				Args:       argTexts(node.ChildByFieldName("arguments"), src),
			})
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), src, rec, parent)
	}
}

// isFunctionValued reports whether a node kind produces a function value.
func isFunctionValued(kind string) bool {
	switch kind {
	case "function", "function_expression", "generator_function", "arrow_function":
		return true
	}
	return false
}

// definitionName resolves the name of a function-defining node and returns
// the node that carries its parameter list. A node with no resolvable name
// (an anonymous callback, a computed key, a destructuring assignment)
// yields "" and the walker only recurses.
func definitionName(node *sitter.Node, src []byte) (string, *sitter.Node) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		if id := node.ChildByFieldName("name"); id != nil {
			return id.Content(src), node
		}

	case "function", "function_expression", "generator_function":
		// Named function expressions only.
		if id := node.ChildByFieldName("name"); id != nil {
			return id.Content(src), node
		}

	case "method_definition":
		if key := node.ChildByFieldName("name"); key != nil && key.Type() == "property_identifier" {
			return key.Content(src), node
		}

	case "pair":
		key := node.ChildByFieldName("key")
		value := node.ChildByFieldName("value")
		if key != nil && value != nil && key.Type() == "property_identifier" && isFunctionValued(value.Type()) {
			return key.Content(src), value
		}

	case "assignment_expression":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left != nil && right != nil && left.Type() == "identifier" && isFunctionValued(right.Type()) {
			return left.Content(src), right
		}

	case "variable_declarator":
		name := node.ChildByFieldName("name")
		value := node.ChildByFieldName("value")
		if name != nil && value != nil && name.Type() == "identifier" && isFunctionValued(value.Type()) {
			return name.Content(src), value
		}
	}
	return "", nil
}

// paramTexts extracts the parameter list of a function node as normalized
// source text, one entry per parameter.
func paramTexts(fn *sitter.Node, src []byte) []string {
	if fn == nil {
		return nil
	}
	// Arrow functions with a single bare parameter have no parenthesized list.
	if p := fn.ChildByFieldName("parameter"); p != nil {
		return []string{normalizeSource(p.Content(src))}
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	out := make([]string, 0, params.NamedChildCount())
	for i := 0; i < int(params.NamedChildCount()); i++ {
		out = append(out, normalizeSource(params.NamedChild(i).Content(src)))
	}
	return out
}

// argTexts extracts the arguments of a call expression as normalized source
// text, one entry per argument.
func argTexts(args *sitter.Node, src []byte) []string {
	if args == nil {
		return nil
	}
	out := make([]string, 0, args.NamedChildCount())
	for i := 0; i < int(args.NamedChildCount()); i++ {
		out = append(out, normalizeSource(args.NamedChild(i).Content(src)))
	}
	return out
}

// normalizeSource collapses whitespace runs so that formatting differences
// in the original source do not leak into params and args.
func normalizeSource(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
