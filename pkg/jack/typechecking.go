package jack

import (
	"fmt"
	"strings"
)

// anyType stands for "unknown/don't care", used for constructs the Jack grammar doesn't track
// precisely enough to assign a real type to (array cells, in particular, since a Jack Array is
// just a block of raw words and the language never records what its elements are supposed to hold).
// It is always considered assignment-compatible with every other DataType, in both directions.
var anyType = DataType{}

// TypeChecker walks a 'jack.Program' performing the same scope bookkeeping as the Lowerer, but
// instead of emitting VM operations it validates that every variable reference resolves, every
// subroutine call is invoked with the right number of arguments, and every method call targets an
// object (never a primitive). It is intentionally permissive on numeric types: Jack's compiler
// itself never distinguishes int/char/boolean once compiled, so this checker treats them as
// mutually assignable rather than rejecting idiomatic code that relies on that duck typing.
type TypeChecker struct {
	program Program
	scopes  ScopeTable // Keeps track of the scopes and declared variables inside each one
}

func NewTypeChecker(program Program) TypeChecker {
	return TypeChecker{program: program}
}

func (tc *TypeChecker) Check() (bool, error) {
	if tc.program == nil {
		return false, fmt.Errorf("the given 'program' is empty or nil")
	}

	for name, class := range tc.program {
		if _, err := tc.HandleClass(class); err != nil {
			return false, fmt.Errorf("error type-checking class '%s': %w", name, err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Class' and nested fields.
func (tc *TypeChecker) HandleClass(class Class) (bool, error) {
	tc.scopes.PushClassScope(class.Name) // Keep track of the current scope being processed
	defer tc.scopes.PopClassScope()      // Reset the function name after processing

	for _, field := range class.Fields.Entries() {
		if _, err := tc.scopes.RegisterVariable(field); err != nil {
			return false, fmt.Errorf("error declaring field '%s' in class '%s': %w", field.Name, class.Name, err)
		}
	}

	for _, subroutine := range class.Subroutines.Entries() {
		if _, err := tc.HandleSubroutine(subroutine); err != nil {
			return false, fmt.Errorf("error type-checking subroutine '%s' in class '%s': %w", subroutine.Name, class.Name, err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Subroutine' and nested fields.
func (tc *TypeChecker) HandleSubroutine(subroutine Subroutine) (bool, error) {
	tc.scopes.PushSubRoutineScope(subroutine.Name) // Keep track of the current subroutine function being processed
	defer tc.scopes.PopSubroutineScope()           // Reset the function name after processing

	if subroutine.Type == Method {
		// Placeholder slot for the implicit receiver, mirrors the Lowerer's own prelude handling.
		tc.scopes.RegisterVariable(Variable{Name: "__obj", VarType: Parameter, DataType: DataType{Main: Object}})
	}

	for _, arg := range subroutine.Arguments {
		if _, err := tc.scopes.RegisterVariable(arg); err != nil {
			return false, fmt.Errorf("error declaring parameter '%s': %w", arg.Name, err)
		}
	}

	for _, stmt := range subroutine.Statements {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, fmt.Errorf("error type-checking nested statement %T: %w", stmt, err)
		}
	}

	return true, nil
}

// Generalized function to type-check multiple statements types.
func (tc *TypeChecker) HandleStatement(stmt Statement) (bool, error) {
	switch tStmt := stmt.(type) {
	case DoStmt:
		_, err := tc.HandleFuncCallExpr(tStmt.FuncCall)
		return err == nil, err
	case VarStmt:
		return tc.HandleVarStmt(tStmt)
	case LetStmt:
		return tc.HandleLetStmt(tStmt)
	case IfStmt:
		return tc.HandleIfStmt(tStmt)
	case WhileStmt:
		return tc.HandleWhileStmt(tStmt)
	case ReturnStmt:
		return tc.HandleReturnStmt(tStmt)
	default:
		return false, fmt.Errorf("unrecognized statement: %T", stmt)
	}
}

// Specialized function to type-check a 'jack.VarStmt'.
func (tc *TypeChecker) HandleVarStmt(stmt VarStmt) (bool, error) {
	for _, variable := range stmt.Vars {
		if _, err := tc.scopes.RegisterVariable(variable); err != nil {
			return false, fmt.Errorf("error declaring local '%s': %w", variable.Name, err)
		}
	}
	return true, nil
}

// Specialized function to type-check a 'jack.LetStmt'.
func (tc *TypeChecker) HandleLetStmt(stmt LetStmt) (bool, error) {
	rhsType, err := tc.HandleExpression(stmt.Rhs)
	if err != nil {
		return false, fmt.Errorf("error checking RHS expression: %w", err)
	}

	switch lhs := stmt.Lhs.(type) {
	case VarExpr:
		_, variable, err := tc.scopes.ResolveVariable(lhs.Var)
		if err != nil {
			return false, fmt.Errorf("error resolving assignment target '%s': %w", lhs.Var, err)
		}
		if err := assignable(variable.DataType, rhsType); err != nil {
			return false, fmt.Errorf("cannot assign to '%s': %w", lhs.Var, err)
		}
		return true, nil

	case ArrayExpr:
		if _, err := tc.HandleExpression(lhs); err != nil {
			return false, fmt.Errorf("error checking array assignment target: %w", err)
		}
		return true, nil

	default:
		return false, fmt.Errorf("LHS expression must be either a 'VarExpr' or an 'ArrayExpr', got: %T", stmt.Lhs)
	}
}

// Specialized function to type-check a 'jack.IfStmt'.
func (tc *TypeChecker) HandleIfStmt(stmt IfStmt) (bool, error) {
	condType, err := tc.HandleExpression(stmt.Condition)
	if err != nil {
		return false, fmt.Errorf("error checking if condition: %w", err)
	}
	if err := requireNumeric(condType); err != nil {
		return false, fmt.Errorf("if condition: %w", err)
	}

	for _, s := range stmt.ThenBlock {
		if _, err := tc.HandleStatement(s); err != nil {
			return false, fmt.Errorf("error in 'then' block: %w", err)
		}
	}
	for _, s := range stmt.ElseBlock {
		if _, err := tc.HandleStatement(s); err != nil {
			return false, fmt.Errorf("error in 'else' block: %w", err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.WhileStmt'.
func (tc *TypeChecker) HandleWhileStmt(stmt WhileStmt) (bool, error) {
	condType, err := tc.HandleExpression(stmt.Condition)
	if err != nil {
		return false, fmt.Errorf("error checking while condition: %w", err)
	}
	if err := requireNumeric(condType); err != nil {
		return false, fmt.Errorf("while condition: %w", err)
	}

	for _, s := range stmt.Block {
		if _, err := tc.HandleStatement(s); err != nil {
			return false, fmt.Errorf("error in while block: %w", err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.ReturnStmt'.
func (tc *TypeChecker) HandleReturnStmt(stmt ReturnStmt) (bool, error) {
	if stmt.Expr == nil {
		return true, nil
	}
	if _, err := tc.HandleExpression(stmt.Expr); err != nil {
		return false, fmt.Errorf("error checking return expression: %w", err)
	}
	return true, nil
}

// Generalized function to type-check multiple expression types, returning the DataType it evaluates to.
func (tc *TypeChecker) HandleExpression(expr Expression) (DataType, error) {
	switch tExpr := expr.(type) {
	case VarExpr:
		return tc.HandleVarExpr(tExpr)
	case LiteralExpr:
		return tExpr.Type, nil
	case ArrayExpr:
		return tc.HandleArrayExpr(tExpr)
	case UnaryExpr:
		return tc.HandleUnaryExpr(tExpr)
	case BinaryExpr:
		return tc.HandleBinaryExpr(tExpr)
	case FuncCallExpr:
		return tc.HandleFuncCallExpr(tExpr)
	default:
		return DataType{}, fmt.Errorf("unrecognized expression: %T", expr)
	}
}

// Specialized function to type-check a 'jack.VarExpr'.
func (tc *TypeChecker) HandleVarExpr(expr VarExpr) (DataType, error) {
	if expr.Var == "this" {
		className := strings.Split(tc.scopes.GetScope(), ".")[0]
		return DataType{Main: Object, Subtype: className}, nil
	}

	_, variable, err := tc.scopes.ResolveVariable(expr.Var)
	if err != nil {
		return DataType{}, fmt.Errorf("variable '%s': %w", expr.Var, err)
	}
	return variable.DataType, nil
}

// Specialized function to type-check a 'jack.ArrayExpr'. Jack arrays are untyped blocks of
// words, so the only thing actually checked here is that the base and index expressions resolve.
func (tc *TypeChecker) HandleArrayExpr(expr ArrayExpr) (DataType, error) {
	if _, err := tc.HandleVarExpr(VarExpr{Var: expr.Var}); err != nil {
		return DataType{}, fmt.Errorf("error resolving base variable expression: %w", err)
	}
	if _, err := tc.HandleExpression(expr.Index); err != nil {
		return DataType{}, fmt.Errorf("error checking index expression: %w", err)
	}
	return anyType, nil
}

// Specialized function to type-check a 'jack.UnaryExpr'.
func (tc *TypeChecker) HandleUnaryExpr(expr UnaryExpr) (DataType, error) {
	rhsType, err := tc.HandleExpression(expr.Rhs)
	if err != nil {
		return DataType{}, fmt.Errorf("error checking nested expression: %w", err)
	}

	switch expr.Type {
	case Negation:
		if err := requireNumeric(rhsType); err != nil {
			return DataType{}, fmt.Errorf("negation: %w", err)
		}
		return DataType{Main: Int}, nil
	case BoolNot:
		if err := requireNumeric(rhsType); err != nil {
			return DataType{}, fmt.Errorf("boolean not: %w", err)
		}
		return DataType{Main: Bool}, nil
	default:
		return DataType{}, fmt.Errorf("unrecognized unary expression type: %s", expr.Type)
	}
}

// Specialized function to type-check a 'jack.BinaryExpr'.
func (tc *TypeChecker) HandleBinaryExpr(expr BinaryExpr) (DataType, error) {
	lhsType, err := tc.HandleExpression(expr.Lhs)
	if err != nil {
		return DataType{}, fmt.Errorf("error checking nested LHS expression: %w", err)
	}
	rhsType, err := tc.HandleExpression(expr.Rhs)
	if err != nil {
		return DataType{}, fmt.Errorf("error checking nested RHS expression: %w", err)
	}

	switch expr.Type {
	case Plus, Minus, Divide, Multiply:
		if err := requireNumeric(lhsType); err != nil {
			return DataType{}, fmt.Errorf("left operand: %w", err)
		}
		if err := requireNumeric(rhsType); err != nil {
			return DataType{}, fmt.Errorf("right operand: %w", err)
		}
		return DataType{Main: Int}, nil

	case BoolOr, BoolAnd, BoolNot:
		if err := requireNumeric(lhsType); err != nil {
			return DataType{}, fmt.Errorf("left operand: %w", err)
		}
		if err := requireNumeric(rhsType); err != nil {
			return DataType{}, fmt.Errorf("right operand: %w", err)
		}
		return DataType{Main: Bool}, nil

	case Equal, LessThan, GreatThan:
		return DataType{Main: Bool}, nil

	default:
		return DataType{}, fmt.Errorf("unrecognized binary expression type: %s", expr.Type)
	}
}

// Specialized function to type-check a 'jack.FuncCallExpr', validating call arity against either
// the program's own classes or (when the receiver/target isn't locally defined) the standard
// library ABI table, and rejecting method calls against a primitive (non-object) receiver.
func (tc *TypeChecker) HandleFuncCallExpr(expr FuncCallExpr) (DataType, error) {
	for _, arg := range expr.Arguments {
		if _, err := tc.HandleExpression(arg); err != nil {
			return DataType{}, fmt.Errorf("error checking argument expression: %w", err)
		}
	}

	if !expr.IsExtCall { // Call to another subroutine of the same class
		className := strings.Split(tc.scopes.GetScope(), ".")[0]
		class, exists := tc.program[className]
		if !exists {
			return DataType{}, fmt.Errorf("class definition not found for '%s'", className)
		}
		routine, exists := class.Subroutines.Get(expr.FuncName)
		if !exists {
			return DataType{}, fmt.Errorf("subroutine '%s' not found in class '%s'", expr.FuncName, className)
		}
		if err := checkArity(routine, len(expr.Arguments)); err != nil {
			return DataType{}, err
		}
		return routine.Return, nil
	}

	// Call on a variable: either an object instance (valid) or a primitive (an error).
	if _, variable, err := tc.scopes.ResolveVariable(expr.Var); err == nil {
		if variable.DataType.Main != Object {
			return DataType{}, fmt.Errorf("cannot call method '%s' on primitive receiver '%s' of type '%s'", expr.FuncName, expr.Var, variable.DataType)
		}

		routine, returnType, err := tc.lookupSubroutine(variable.DataType.Subtype, expr.FuncName)
		if err != nil {
			return DataType{}, err
		}
		if routine != nil {
			if err := checkArity(*routine, len(expr.Arguments)); err != nil {
				return DataType{}, err
			}
		}
		return returnType, nil
	}

	// Call on a class name: either a function/constructor local to the program...
	if class, isClass := tc.program[expr.Var]; isClass {
		routine, exists := class.Subroutines.Get(expr.FuncName)
		if !exists {
			return DataType{}, fmt.Errorf("subroutine '%s' not found in class '%s'", expr.FuncName, class.Name)
		}
		if routine.Type != Function && routine.Type != Constructor {
			return DataType{}, fmt.Errorf("subroutine '%s' in class '%s' is not a function or constructor, got %s", expr.FuncName, class.Name, routine.Type)
		}
		if err := checkArity(routine, len(expr.Arguments)); err != nil {
			return DataType{}, err
		}
		if routine.Type == Constructor {
			return DataType{Main: Object, Subtype: class.Name}, nil
		}
		return routine.Return, nil
	}

	// ...or one of the standard library OS classes.
	if abiClass, ok := StandardLibraryABI[expr.Var]; ok {
		routine, exists := abiClass.Subroutines.Get(expr.FuncName)
		if !exists {
			return DataType{}, fmt.Errorf("subroutine '%s' not found in standard library class '%s'", expr.FuncName, expr.Var)
		}
		if err := checkArity(routine, len(expr.Arguments)); err != nil {
			return DataType{}, err
		}
		return routine.Return, nil
	}

	return DataType{}, fmt.Errorf("unrecognized function call expression: %s", expr.FuncName)
}

// lookupSubroutine resolves a method call's signature against the program's own classes first,
// falling back to the standard library ABI table. Returns a nil '*Subroutine' (and the 'anyType'
// sentinel) when the receiver's class isn't known at all, since '--stdlib' is optional and we'd
// rather skip arity checking than reject a perfectly valid call to an unresolvable collaborator.
func (tc *TypeChecker) lookupSubroutine(className, funcName string) (*Subroutine, DataType, error) {
	if class, exists := tc.program[className]; exists {
		routine, exists := class.Subroutines.Get(funcName)
		if !exists {
			return nil, DataType{}, fmt.Errorf("subroutine '%s' not found in class '%s'", funcName, className)
		}
		return &routine, routine.Return, nil
	}

	if abiClass, ok := StandardLibraryABI[className]; ok {
		routine, exists := abiClass.Subroutines.Get(funcName)
		if !exists {
			return nil, DataType{}, fmt.Errorf("subroutine '%s' not found in standard library class '%s'", funcName, className)
		}
		return &routine, routine.Return, nil
	}

	return nil, anyType, nil
}

// ----------------------------------------------------------------------------
// Type compatibility helpers

// checkArity validates that a call site's argument count matches the subroutine's declared
// parameter list (the implicit receiver of a Method is never part of either count).
func checkArity(routine Subroutine, got int) error {
	if want := len(routine.Arguments); got != want {
		return fmt.Errorf("subroutine '%s' expects %d argument(s), got %d", routine.Name, want, got)
	}
	return nil
}

// requireNumeric rejects object/void operands from a spot that expects a Jack Int/Char/Boolean
// (the three primitives the compiled VM code treats interchangeably as plain stack words).
func requireNumeric(t DataType) error {
	if t == anyType || t.Main == Int || t.Main == Char || t.Main == Bool {
		return nil
	}
	return fmt.Errorf("expected a numeric (int/char/boolean) value, got '%s'", t)
}

// assignable reports whether a value of type 'value' may be assigned to a variable of type
// 'target'. Int/Char/Boolean are mutually assignable (matching how the compiled VM code never
// distinguishes them), 'null' is assignable to any object/string, and object types must either
// match by class name or involve the built-in String class (itself just an Object under the hood).
func assignable(target, value DataType) error {
	switch {
	case target == anyType || value == anyType:
		return nil
	case value.Main == Null && (target.Main == Object || target.Main == String):
		return nil
	case isNumeric(target.Main) && isNumeric(value.Main):
		return nil
	case target.Main == String && value.Main == String:
		return nil
	case target.Main == Object && value.Main == String && target.Subtype == "String":
		return nil
	case target.Main == String && value.Main == Object && value.Subtype == "String":
		return nil
	case target.Main == Object && value.Main == Object && target.Subtype == value.Subtype:
		return nil
	default:
		return fmt.Errorf("type mismatch, expected '%s', got '%s'", target, value)
	}
}

func isNumeric(t PrimitiveType) bool { return t == Int || t == Char || t == Bool }
