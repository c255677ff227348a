package jack

import "fmt"

// kindScope tracks the variables declared for a single (VarType, scope) pair:
// e.g. all of the Field variables of one class, or all of the Local variables
// of one subroutine. Unlike the teacher's stack-based Scope, redefining a name
// within the same kindScope is a hard error rather than silent shadowing --
// Jack has no block scoping, so within one class or one subroutine a name can
// only ever mean one thing.
type kindScope struct {
	order []Variable
	index map[string]uint16
}

// define registers 'v' and returns its dense, zero-based index within this
// kind. Fails if a variable with the same name is already present.
func (k *kindScope) define(v Variable) (uint16, error) {
	if k.index == nil {
		k.index = map[string]uint16{}
	}
	if _, exists := k.index[v.Name]; exists {
		return 0, fmt.Errorf("variable '%s' already defined in this scope", v.Name)
	}

	idx := uint16(len(k.order))
	k.order = append(k.order, v)
	k.index[v.Name] = idx
	return idx, nil
}

func (k *kindScope) resolve(name string) (uint16, Variable, bool) {
	idx, ok := k.index[name]
	if !ok {
		return 0, Variable{}, false
	}
	return idx, k.order[idx], true
}

func (k *kindScope) count() int { return len(k.order) }

// ScopeTable is the Jack symbol table: a two-level table (class scope holds
// Static/Field, subroutine scope holds Parameter/Local) consulted by both
// the code generator and the type checker. Subroutine-scope lookups fall back
// to class scope when a name isn't found locally.
type ScopeTable struct {
	static kindScope
	field  kindScope

	parameter kindScope
	local     kindScope

	className      string
	subroutineName string
}

// PushClassScope begins a new class: resets the Static and Field kinds and
// records the class name for GetScope()/error messages.
func (st *ScopeTable) PushClassScope(class string) {
	st.className = class
	st.static, st.field = kindScope{}, kindScope{}
}

// PopClassScope ends the current class, discarding its Static/Field variables.
func (st *ScopeTable) PopClassScope() {
	st.className = ""
	st.static, st.field = kindScope{}, kindScope{}
}

// PushSubRoutineScope begins a new subroutine: resets the Parameter and
// Local kinds and records the subroutine name.
func (st *ScopeTable) PushSubRoutineScope(subroutine string) {
	st.subroutineName = subroutine
	st.parameter, st.local = kindScope{}, kindScope{}
}

// PopSubroutineScope ends the current subroutine, discarding its
// Parameter/Local variables.
func (st *ScopeTable) PopSubroutineScope() {
	st.subroutineName = ""
	st.parameter, st.local = kindScope{}, kindScope{}
}

// GetScope returns the fully qualified name of the scope currently active,
// in "Class.Subroutine" form, "Class.Global" when only a class scope is
// active, or "Global" when neither is active.
func (st *ScopeTable) GetScope() string {
	if st.subroutineName != "" {
		return fmt.Sprintf("%s.%s", st.className, st.subroutineName)
	}
	if st.className != "" {
		return fmt.Sprintf("%s.Global", st.className)
	}
	return "Global"
}

// RegisterVariable defines 'v' in the kindScope matching its VarType and
// returns the dense, per-kind index it was assigned. Fails (without mutating
// any state) if a variable with the same name already exists in that kind.
func (st *ScopeTable) RegisterVariable(v Variable) (uint16, error) {
	switch v.VarType {
	case Local:
		return st.local.define(v)
	case Field:
		return st.field.define(v)
	case Parameter:
		return st.parameter.define(v)
	case Static:
		return st.static.define(v)
	default:
		return 0, fmt.Errorf("unrecognized variable kind: %s", v.VarType)
	}
}

// ResolveVariable looks up 'name', searching Local, then Parameter, then
// Field, then Static (i.e. subroutine scope before class scope). Returns an
// error if the name is not declared in any active scope.
func (st *ScopeTable) ResolveVariable(name string) (uint16, Variable, error) {
	for _, scope := range []*kindScope{&st.local, &st.parameter, &st.field, &st.static} {
		if idx, v, ok := scope.resolve(name); ok {
			return idx, v, nil
		}
	}
	return 0, Variable{}, fmt.Errorf("variable '%s' undeclared, not found in any scope", name)
}

// CountOf returns how many variables of VarType 'kind' are currently defined,
// used by the code generator to size FuncDecl.NLocal and constructor preludes.
func (st *ScopeTable) CountOf(kind VarType) int {
	switch kind {
	case Local:
		return st.local.count()
	case Field:
		return st.field.count()
	case Parameter:
		return st.parameter.count()
	case Static:
		return st.static.count()
	default:
		return 0
	}
}
