// Implements a static analysis tool enforcing the repository's exit
// discipline: panic is never used, and log.Fatal/os.Exit stay inside the
// main function of the main package. Long-running loops are expected to
// bubble errors up instead of terminating the process.
package main

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports panic calls anywhere and process-terminating calls
// outside of func main.
var Analyzer = &analysis.Analyzer{
	Name: "panicexit",
	Doc:  "reports usage of panic and log.Fatal/os.Exit outside of main function in main package",
	Run:  run,
	Requires: []*analysis.Analyzer{
		inspect.Analyzer,
	},
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspect.WithStack(nodeFilter, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return false
		}
		call := n.(*ast.CallExpr)

		if ident, ok := call.Fun.(*ast.Ident); ok && ident.Name == "panic" {
			pass.Reportf(ident.Pos(), "found usage of panic")
			return true
		}

		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pkgIdent, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}

		name := pkgIdent.Name + "." + sel.Sel.Name
		switch name {
		case "log.Fatal", "log.Fatalf", "log.Fatalln", "os.Exit":
		default:
			return true
		}
		if !insideMain(pass, stack) {
			pass.Reportf(call.Pos(), "found usage of %s outside of main function", name)
		}
		return true
	})

	return nil, nil
}

// insideMain reports whether the innermost function declaration on the
// stack is func main of package main.
func insideMain(pass *analysis.Pass, stack []ast.Node) bool {
	if pass.Pkg.Name() != "main" {
		return false
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if decl, ok := stack[i].(*ast.FuncDecl); ok {
			return decl.Name.Name == "main"
		}
	}
	return false
}
