package analyzer

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/dshills/docassist/pkg/types"
)

// GoParser extracts symbols from Go source using the standard AST.
type GoParser struct{}

// NewGoParser creates a Go language parser.
func NewGoParser() *GoParser {
	return &GoParser{}
}

// Language returns the canonical language identifier.
func (p *GoParser) Language() string { return "go" }

// Parse extracts functions, methods, types, and imports. Syntax errors
// are recoverable: the Go parser returns a partial AST, and whatever
// declarations it recovered are still reported.
func (p *GoParser) Parse(source string) (*ParseOutcome, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "source.go", source, parser.ParseComments)

	outcome := &ParseOutcome{}
	if err != nil {
		if file == nil {
			return nil, fmt.Errorf("go parse: %w", err)
		}
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("syntax error: %v", err))
	}

	ext := &goExtractor{
		fset:      fset,
		endpoints: goRouteRegistrations(file),
	}
	ast.Inspect(file, ext.visit)

	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		pos := fset.Position(imp.Pos())
		end := fset.Position(imp.End())
		ext.symbols = append(ext.symbols, types.Symbol{
			Name:      path,
			Kind:      types.KindImport,
			Signature: "import " + imp.Path.Value,
			Lines:     types.LineRange{Start: pos.Line, End: end.Line},
			Language:  "go",
		})
	}

	outcome.Symbols = ext.symbols
	return outcome, nil
}

// goRoute holds endpoint metadata discovered from a route registration
// call, keyed by the handler's identifier name.
type goRoute struct {
	method string
	route  string
}

// goRouteRegistrations scans call expressions for route registrations
// like r.GET("/users", getUser) or http.HandleFunc("/users", getUser)
// and maps handler names to their HTTP metadata.
func goRouteRegistrations(file *ast.File) map[string]goRoute {
	routes := make(map[string]goRoute)
	ast.Inspect(file, func(node ast.Node) bool {
		call, ok := node.(*ast.CallExpr)
		if !ok || len(call.Args) < 2 {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}

		var method string
		switch sel.Sel.Name {
		case "GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS":
			method = sel.Sel.Name
		case "HandleFunc", "Handle":
			method = "ANY"
		default:
			return true
		}

		lit, ok := call.Args[0].(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		route := strings.Trim(lit.Value, `"`)
		if !strings.HasPrefix(route, "/") {
			return true
		}

		if handler := handlerName(call.Args[1]); handler != "" {
			routes[handler] = goRoute{method: method, route: route}
		}
		return true
	})
	return routes
}

// handlerName resolves the identifier a route registration points at.
func handlerName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	}
	return ""
}

// goExtractor is an AST visitor collecting declaration symbols.
type goExtractor struct {
	fset      *token.FileSet
	endpoints map[string]goRoute
	symbols   []types.Symbol
}

func (e *goExtractor) visit(node ast.Node) bool {
	if node == nil {
		return false
	}

	switch n := node.(type) {
	case *ast.FuncDecl:
		e.extractFunction(n)
	case *ast.GenDecl:
		for _, spec := range n.Specs {
			if ts, ok := spec.(*ast.TypeSpec); ok {
				e.extractType(ts, n.Doc)
			}
		}
	}
	return true
}

func (e *goExtractor) extractFunction(fn *ast.FuncDecl) {
	start := e.fset.Position(fn.Pos())
	end := e.fset.Position(fn.End())

	sym := types.Symbol{
		Name:       fn.Name.Name,
		Kind:       types.KindFunction,
		Signature:  e.functionSignature(fn),
		DocComment: docText(fn.Doc),
		Lines:      types.LineRange{Start: start.Line, End: end.Line},
		Language:   "go",
	}

	if route, ok := e.endpoints[fn.Name.Name]; ok {
		sym.Kind = types.KindEndpoint
		sym.HTTPMethod = route.method
		sym.Route = route.route
	}

	e.symbols = append(e.symbols, sym)
}

// extractType records struct, interface, and alias declarations as
// class symbols; Go has no classes, so named types stand in.
func (e *goExtractor) extractType(ts *ast.TypeSpec, doc *ast.CommentGroup) {
	start := e.fset.Position(ts.Pos())
	end := e.fset.Position(ts.End())

	var sig string
	switch t := ts.Type.(type) {
	case *ast.StructType:
		n := 0
		if t.Fields != nil {
			n = t.Fields.NumFields()
		}
		sig = fmt.Sprintf("type %s struct (%d fields)", ts.Name.Name, n)
	case *ast.InterfaceType:
		n := 0
		if t.Methods != nil {
			n = t.Methods.NumFields()
		}
		sig = fmt.Sprintf("type %s interface (%d methods)", ts.Name.Name, n)
	default:
		sig = "type " + ts.Name.Name
	}

	e.symbols = append(e.symbols, types.Symbol{
		Name:       ts.Name.Name,
		Kind:       types.KindClass,
		Signature:  sig,
		DocComment: docText(doc),
		Lines:      types.LineRange{Start: start.Line, End: end.Line},
		Language:   "go",
	})
}

// functionSignature builds a readable signature string for a function
// or method declaration.
func (e *goExtractor) functionSignature(fn *ast.FuncDecl) string {
	var sig strings.Builder
	sig.WriteString("func ")

	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(exprString(fn.Recv.List[0].Type))
		sig.WriteString(") ")
	}

	sig.WriteString(fn.Name.Name)
	sig.WriteString("(")
	if fn.Type.Params != nil {
		sig.WriteString(fieldListString(fn.Type.Params))
	}
	sig.WriteString(")")

	if fn.Type.Results != nil {
		results := fieldListString(fn.Type.Results)
		if results != "" {
			if fn.Type.Results.NumFields() > 1 {
				sig.WriteString(" (" + results + ")")
			} else {
				sig.WriteString(" " + results)
			}
		}
	}
	return sig.String()
}

// docText flattens a comment group into trimmed text.
func docText(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

// fieldListString renders a parameter or result list.
func fieldListString(fields *ast.FieldList) string {
	parts := make([]string, 0, len(fields.List))
	for _, field := range fields.List {
		typeStr := exprString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typeStr)
			continue
		}
		names := make([]string, 0, len(field.Names))
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
		parts = append(parts, strings.Join(names, ", ")+" "+typeStr)
	}
	return strings.Join(parts, ", ")
}

// exprString renders a type expression compactly.
func exprString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return "*" + exprString(e.X)
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.ArrayType:
		return "[]" + exprString(e.Elt)
	case *ast.MapType:
		return "map[" + exprString(e.Key) + "]" + exprString(e.Value)
	case *ast.ChanType:
		return "chan " + exprString(e.Value)
	case *ast.FuncType:
		return "func(...)"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.StructType:
		return "struct{}"
	case *ast.Ellipsis:
		return "..." + exprString(e.Elt)
	case *ast.IndexExpr:
		return exprString(e.X) + "[" + exprString(e.Index) + "]"
	default:
		return fmt.Sprintf("%T", expr)
	}
}
