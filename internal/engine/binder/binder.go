// Package binder builds the module-scope binding graph of a parsed Python
// file: which key introduces each name, and which binding every later read of
// that name flows from. Function and class bodies are separate scopes and are
// not descended into.
package binder

import (
	"maps"
	"slices"
	"strings"

	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/bindings"
)

// functionalClassFactories create classes from a call, `P = NamedTuple("P", ...)`.
var functionalClassFactories = map[string]bool{
	"NamedTuple": true,
	"namedtuple": true,
	"TypedDict":  true,
	"Enum":       true,
	"IntEnum":    true,
	"StrEnum":    true,
	"Flag":       true,
	"IntFlag":    true,
}

// typeVarFactories declare legacy (pre-PEP 695) type parameters.
var typeVarFactories = map[string]bool{
	"TypeVar":      true,
	"TypeVarTuple": true,
	"ParamSpec":    true,
}

// Module is the binding graph of one file plus the keys an editor can point
// at.
type Module struct {
	Bindings *bindings.Bindings
	// lookups holds every key that has a name, sorted by start offset.
	lookups []bindings.Key
}

// UsageAt returns the innermost named key whose range contains offset: a
// read of a name, or the name at a definition or import site.
func (m *Module) UsageAt(offset ast.TextSize) (bindings.Key, bool) {
	var best bindings.Key
	found := false
	for _, key := range m.lookups {
		if key.Range.Start > offset {
			break
		}
		if !key.Range.Contains(offset) {
			continue
		}
		if !found || key.Range.Len() <= best.Range.Len() {
			best, found = key, true
		}
	}
	return best, found
}

type scope map[string]bindings.Idx

func (s scope) clone() scope {
	out := make(scope, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

type binder struct {
	b       *bindings.Builder
	lookups []bindings.Key
	// legacy tracks which names currently hold a TypeVar-style declaration.
	legacy map[bindings.Idx]bool
}

// Bind builds the graph for module, named moduleName (e.g. `pkg.mod`).
func Bind(moduleName string, module *ast.Module) (*Module, error) {
	bd := &binder{
		b:      bindings.NewBuilder(moduleName),
		legacy: make(map[bindings.Idx]bool),
	}
	bd.stmts(module.Body, make(scope))

	b, err := bd.b.Build()
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(bd.lookups, func(x, y bindings.Key) int {
		return int(x.Range.Start) - int(y.Range.Start)
	})
	return &Module{Bindings: b, lookups: bd.lookups}, nil
}

// define binds key.Name in sc. Only definition and import sites are
// recorded for UsageAt; merges and narrows span whole blocks.
func (bd *binder) define(key bindings.Key, binding bindings.Binding, sc scope) bindings.Idx {
	idx := bd.b.Insert(key, binding)
	sc[key.Name] = idx
	if key.IsDefinition() {
		bd.lookups = append(bd.lookups, key)
	}
	if _, ok := binding.(*bindings.TypeParameter); ok {
		bd.legacy[idx] = true
	}
	return idx
}

// use records a read of name, forwarding to its current binding. Names that
// are not bound at module scope (builtins, typos) get no key.
func (bd *binder) use(name *ast.Name, sc scope) {
	target, ok := sc[name.ID]
	if !ok {
		return
	}
	key := bindings.BoundNameKey(name)
	if _, seen := bd.b.Lookup(key); seen {
		return
	}
	bd.b.Insert(key, &bindings.Forward{To: target})
	bd.lookups = append(bd.lookups, key)
}

// annotationUse records a read inside a function signature. Reads of legacy
// type variables there are checked as type parameters of the function.
func (bd *binder) annotationUse(name *ast.Name, sc scope) {
	target, ok := sc[name.ID]
	if !ok || !bd.legacy[target] {
		bd.use(name, sc)
		return
	}
	key := bindings.BoundNameKey(name)
	if _, seen := bd.b.Lookup(key); seen {
		return
	}
	param := bd.b.AddLegacyTypeParam(bindings.LegacyTypeParam{Key: target})
	bd.b.Insert(key, &bindings.CheckLegacyTypeParam{Param: param, Range: name.Range()})
	bd.lookups = append(bd.lookups, key)
}

func (bd *binder) uses(expr ast.Expr, sc scope) {
	ast.Inspect(expr, func(e ast.Expr) bool {
		if name, ok := e.(*ast.Name); ok {
			bd.use(name, sc)
		}
		return true
	})
}

func (bd *binder) annotationUses(expr ast.Expr, sc scope) {
	ast.Inspect(expr, func(e ast.Expr) bool {
		if name, ok := e.(*ast.Name); ok {
			bd.annotationUse(name, sc)
		}
		return true
	})
}

func (bd *binder) stmts(stmts []ast.Stmt, sc scope) {
	for _, stmt := range stmts {
		bd.stmt(stmt, sc)
	}
}

func (bd *binder) stmt(stmt ast.Stmt, sc scope) {
	switch s := stmt.(type) {
	case *ast.Import:
		for _, alias := range s.Names {
			bd.importModule(alias, sc)
		}

	case *ast.ImportFrom:
		module := strings.Repeat(".", s.Level) + s.Module
		for _, alias := range s.Names {
			if alias.Name.ID == "*" {
				continue
			}
			bound := alias.Name
			var original *ast.TextRange
			if alias.AsName != nil {
				bound = *alias.AsName
				rng := alias.Name.Range()
				original = &rng
			}
			bd.define(bindings.ImportKey(bound.ID, bound.Range()), &bindings.Import{
				Module:            module,
				Name:              alias.Name.ID,
				OriginalNameRange: original,
			}, sc)
		}

	case *ast.FunctionDef:
		for _, d := range s.Decorators {
			bd.uses(d, sc)
		}
		for _, p := range s.Params {
			bd.annotationUses(p.Annotation, sc)
			bd.uses(p.Default, sc)
		}
		bd.annotationUses(s.Returns, sc)
		fn := bd.b.AddFunction(bindings.FunctionBinding{Name: s.Name, Docstring: s.Docstring})
		bd.define(bindings.DefinitionKey(s.Name), &bindings.Function{Def: fn}, sc)

	case *ast.ClassDef:
		for _, d := range s.Decorators {
			bd.uses(d, sc)
		}
		for _, base := range s.Bases {
			bd.uses(base, sc)
		}
		for _, kw := range s.Keywords {
			bd.uses(kw.Value, sc)
		}
		cls := bd.b.AddClass(&bindings.ClassBinding{Name: s.Name, Docstring: s.Docstring})
		bd.define(bindings.DefinitionKey(s.Name), &bindings.ClassDef{Def: cls}, sc)

	case *ast.Assign:
		bd.uses(s.Value, sc)
		for _, target := range s.Targets {
			bd.assignTarget(target, s.Value, sc)
		}

	case *ast.AnnAssign:
		bd.uses(s.Annotation, sc)
		bd.uses(s.Value, sc)
		if name, ok := s.Target.(*ast.Name); ok {
			bd.define(definitionKey(name), &bindings.Expr{Annotation: s.Annotation, Value: s.Value}, sc)
			return
		}
		bd.assignTarget(s.Target, s.Value, sc)

	case *ast.AugAssign:
		bd.uses(s.Value, sc)
		if name, ok := s.Target.(*ast.Name); ok {
			bd.use(name, sc)
			bd.define(definitionKey(name), &bindings.Other{Kind: bindings.SymbolVariable, HasKind: true}, sc)
			return
		}
		bd.assignTarget(s.Target, s.Value, sc)

	case *ast.If:
		bd.branch(s, sc)

	case *ast.ExprStmt:
		bd.uses(s.Value, sc)

	case *ast.OtherStmt:
		// Loops, with blocks and try blocks run in module scope.
		bd.stmts(s.Body, sc)
	}
}

func definitionKey(name *ast.Name) bindings.Key {
	return bindings.DefinitionKey(ast.Identifier{Node: name.Node, ID: name.ID})
}

func (bd *binder) importModule(alias ast.Alias, sc scope) {
	if alias.AsName != nil {
		bd.define(bindings.ImportKey(alias.AsName.ID, alias.AsName.Range()), &bindings.Module{Name: alias.Name.ID}, sc)
		return
	}
	// `import a.b` binds `a`.
	first, _, _ := strings.Cut(alias.Name.ID, ".")
	rng := alias.Name.Range()
	rng.End = rng.Start + ast.TextSize(len(first))
	bd.define(bindings.ImportKey(first, rng), &bindings.Module{Name: first}, sc)
}

func (bd *binder) assignTarget(target ast.Expr, value ast.Expr, sc scope) {
	switch t := target.(type) {
	case *ast.Name:
		bd.define(definitionKey(t), bd.assignedValue(t, value), sc)
	case *ast.Tuple:
		for _, elt := range t.Elts {
			bd.assignTarget(elt, nil, sc)
		}
	case *ast.List:
		for _, elt := range t.Elts {
			bd.assignTarget(elt, nil, sc)
		}
	case *ast.Starred:
		bd.assignTarget(t.Value, nil, sc)
	case *ast.Attribute:
		bd.storeBase(t, sc)
		bd.b.Insert(bindings.AnonKey(t.Range()), &bindings.AssignToAttribute{Target: t, Value: value})
	case *ast.Subscript:
		bd.storeBase(t, sc)
		bd.uses(t.Slice, sc)
		bd.b.Insert(bindings.AnonKey(t.Range()), &bindings.AssignToSubscript{Target: t, Value: value})
	}
}

// storeBase records the read of `x` in `x.a = ...` or `x[0] = ...`.
func (bd *binder) storeBase(target ast.Expr, sc scope) {
	if base, ok := ast.ChainBase(target); ok {
		bd.use(base, sc)
	}
}

// assignedValue classifies `name = value`: class factories and type variable
// declarations get bindings of their own, anything else is a plain value.
func (bd *binder) assignedValue(name *ast.Name, value ast.Expr) bindings.Binding {
	call, ok := value.(*ast.Call)
	if !ok {
		return &bindings.Expr{Value: value}
	}
	factory := ast.DottedName(call.Func)
	if i := strings.LastIndexByte(factory, '.'); i >= 0 {
		factory = factory[i+1:]
	}
	switch {
	case functionalClassFactories[factory]:
		cls := bd.b.AddClass(&bindings.FunctionalClassDef{Name: name.ID})
		return &bindings.ClassDef{Def: cls}
	case typeVarFactories[factory]:
		return &bindings.TypeParameter{Name: name.ID}
	default:
		return &bindings.Expr{Value: value}
	}
}

// branch binds both arms of an if statement on copies of sc and merges the
// names whose binding differs at the join.
func (bd *binder) branch(s *ast.If, sc scope) {
	bd.uses(s.Test, sc)
	body, orelse := sc.clone(), sc.clone()

	if name, op, ok := narrowing(s.Test); ok {
		if prior, bound := sc[name.ID]; bound {
			body[name.ID] = bd.b.Insert(bindings.NarrowKey(name.ID, blockRange(s.Body)), &bindings.Narrow{
				To: prior, Op: op, Range: s.Test.Range(),
			})
			if len(s.Orelse) > 0 {
				orelse[name.ID] = bd.b.Insert(bindings.NarrowKey(name.ID, blockRange(s.Orelse)), &bindings.Narrow{
					To: prior, Op: negate(op), Range: s.Test.Range(),
				})
			}
		}
	}

	bd.stmts(s.Body, body)
	bd.stmts(s.Orelse, orelse)

	names := slices.Sorted(maps.Keys(body))
	for _, name := range slices.Sorted(maps.Keys(orelse)) {
		if _, ok := body[name]; !ok {
			names = append(names, name)
		}
	}
	for _, name := range names {
		var branches []bindings.Idx
		for _, arm := range []scope{body, orelse} {
			if idx, ok := arm[name]; ok && !slices.Contains(branches, idx) {
				branches = append(branches, idx)
			}
		}
		if prior, ok := sc[name]; ok && len(branches) == 1 && branches[0] == prior {
			continue
		}
		if len(branches) == 1 {
			sc[name] = branches[0]
			continue
		}
		sc[name] = bd.b.Insert(bindings.MergeKey(name, s.Range()), &bindings.Phi{Branches: branches})
	}
}

// narrowing recognises `if x:`, `if not x:` and `if isinstance(x, ...):`.
func narrowing(test ast.Expr) (*ast.Name, string, bool) {
	switch t := test.(type) {
	case *ast.Name:
		return t, "truthy", true
	case *ast.UnaryOp:
		if name, ok := t.Operand.(*ast.Name); ok && t.Op == ast.Not {
			return name, "falsy", true
		}
	case *ast.Call:
		if fn, ok := t.Func.(*ast.Name); ok && fn.ID == "isinstance" && len(t.Args) == 2 {
			if name, ok := t.Args[0].(*ast.Name); ok {
				return name, "isinstance", true
			}
		}
	}
	return nil, "", false
}

func negate(op string) string {
	switch op {
	case "truthy":
		return "falsy"
	case "falsy":
		return "truthy"
	default:
		return "not " + op
	}
}

// blockRange spans the statements of a non-empty block.
func blockRange(stmts []ast.Stmt) ast.TextRange {
	if len(stmts) == 0 {
		return ast.TextRange{}
	}
	return ast.NewRange(stmts[0].Range().Start, stmts[len(stmts)-1].Range().End)
}
