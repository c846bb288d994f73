package parser

import "typewalk/internal/engine/ast"

// CollectAnnotations lists every annotation in module in source order,
// including those nested in functions, classes and compound statements.
func CollectAnnotations(module *ast.Module) []Annotation {
	var out []Annotation
	collectStmts(module.Body, "", &out)
	return out
}

func collectStmts(stmts []ast.Stmt, class string, out *[]Annotation) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.AnnAssign:
			*out = append(*out, Annotation{Kind: AnnotationVariable, Owner: ast.DottedName(s.Target), Class: class, Expr: s.Annotation})
		case *ast.FunctionDef:
			for _, p := range s.Params {
				if p.Annotation != nil {
					*out = append(*out, Annotation{Kind: AnnotationParameter, Owner: p.Name.ID, Class: class, Expr: p.Annotation})
				}
			}
			if s.Returns != nil {
				*out = append(*out, Annotation{Kind: AnnotationReturn, Owner: s.Name.ID, Class: class, Expr: s.Returns})
			}
			collectStmts(s.Body, class, out)
		case *ast.ClassDef:
			collectStmts(s.Body, s.Name.ID, out)
		case *ast.If:
			collectStmts(s.Body, class, out)
			collectStmts(s.Orelse, class, out)
		case *ast.OtherStmt:
			collectStmts(s.Body, class, out)
		}
	}
}
