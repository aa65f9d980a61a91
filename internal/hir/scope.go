package hir

// ObjKind distinguishes the role a scope entry plays, mirroring the
// teacher's parser.ObjKind (DeclKind/FieldKind/...).
type ObjKind int

const (
	ObjFunc ObjKind = iota
	ObjParam
	ObjLocal
	ObjGlobal
)

// Object is one named entity visible in a Scope.
type Object struct {
	Kind ObjKind
	Sym  SymbolID
}

// Scope maintains the set of named entities declared in it and a link to
// the immediately surrounding scope, exactly like the teacher's
// parser.Scope.
type Scope struct {
	Outer   *Scope
	Objects map[string]*Object
}

// NewScope creates a new scope linking to an outer scope.
func NewScope(outer *Scope) *Scope {
	return &Scope{Outer: outer, Objects: make(map[string]*Object)}
}

// Insert inserts a named object into the scope, shadowing any outer
// binding of the same name.
func (s *Scope) Insert(name string, obj *Object) {
	s.Objects[name] = obj
}

// Lookup returns the object bound to name in this scope or any enclosing
// scope, preferring the innermost binding.
func (s *Scope) Lookup(name string) (*Object, bool) {
	if obj, ok := s.Objects[name]; ok {
		return obj, true
	}
	if s.Outer != nil {
		return s.Outer.Lookup(name)
	}
	return nil, false
}

// Root returns the outer-most scope.
func (s *Scope) Root() *Scope {
	if s.Outer == nil {
		return s
	}
	return s.Outer.Root()
}
