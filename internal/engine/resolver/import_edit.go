package resolver

import (
	"fmt"

	"typewalk/internal/engine/ast"
)

// InsertImportEdit returns where and what to splice into module to import
// exportName from moduleName: before the first statement, or at the end of an
// empty module.
func InsertImportEdit(module *ast.Module, moduleName, exportName string) (ast.TextSize, string) {
	position := module.Range().End
	if len(module.Body) > 0 {
		position = module.Body[0].Range().Start
	}
	return position, fmt.Sprintf("from %s import %s\n", moduleName, exportName)
}
