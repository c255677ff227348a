package jack

import (
	"fmt"
	"io"
	"os"
	"strings"

	pc "github.com/prataprc/goparsec"

	"jackc.dev/n2t/pkg/utils"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & construct of the Jack language.
//
// Each parser combinator either manages a top-level construct (class, subroutine, statement,
// expression) or some piece of it: namely tokens, identifiers and operators. Comments are allowed
// to appear anywhere a class member or a statement is allowed, matching the rest of the codebase.

// Top level object, will generate the traversable AST based on the input plus the PCs below.
var ast = pc.NewAST("jack_program", 0)

var (
	pClassDecl = ast.And("class_decl", nil,
		pc.Atom("class", "CLASS"), pIdent, pLBrace,
		ast.Kleene("members", nil, ast.OrdChoice("member", nil, pComment, pClassVarDecl, pSubroutineDecl)),
		pRBrace,
	)

	pComment = ast.OrdChoice("comment", nil,
		// Single line comments (e.g. "// This is a comment")
		ast.And("sl_comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT")),
		// Multi line comments (e.g. "/* This is a comment */")
		ast.And("ml_comment", nil, pc.Token(`/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`, "COMMENT")),
	)

	// A class field or static variable, e.g. "field int x, y;" or "static boolean done;"
	pClassVarDecl = ast.And("class_var_decl", nil,
		pFieldScope, pDataType, pIdent, ast.Kleene("more_vars", nil, ast.And("more_var", nil, pComma, pIdent)), pSemi,
	)

	// A method/function/constructor declaration, e.g. "method void draw(int x, int y) { ... }"
	pSubroutineDecl = ast.And("subroutine_decl", nil,
		pSubroutineType, pDataType, pIdent,
		pLParen, ast.Kleene("params", nil, ast.And("param", nil, pDataType, pIdent), pComma), pRParen,
		pLBrace,
		// Jack requires every 'var' declaration to come before the first statement in the body
		ast.Kleene("locals", nil, pVarDecl),
		ast.Kleene("body", nil, ast.OrdChoice("item", nil, pComment, pStatement)),
		pRBrace,
	)

	// A local variable declaration, e.g. "var int i, sum;"
	pVarDecl = ast.And("var_decl", nil,
		pc.Atom("var", "VAR"), pDataType, pIdent, ast.Kleene("more_vars", nil, ast.And("more_var", nil, pComma, pIdent)), pSemi,
	)
)

var (
	pStatement = ast.OrdChoice("statement", nil, pLetStmt, pIfStmt, pWhileStmt, pDoStmt, pReturnStmt)

	pLetStmt = ast.And("let_stmt", nil,
		pc.Atom("let", "LET"), pIdent,
		ast.Maybe("index", nil, ast.And("array_index", nil, pLBracket, pExpr, pRBracket)),
		pc.Atom("=", "EQUALS"), pExpr, pSemi,
	)

	pIfStmt = ast.And("if_stmt", nil,
		pc.Atom("if", "IF"), pLParen, pExpr, pRParen,
		pLBrace, ast.Kleene("then_block", nil, ast.OrdChoice("item", nil, pComment, pStatement)), pRBrace,
		ast.Maybe("else_clause", nil, ast.And("else_block", nil,
			pc.Atom("else", "ELSE"), pLBrace,
			ast.Kleene("else_statements", nil, ast.OrdChoice("item", nil, pComment, pStatement)), pRBrace,
		)),
	)

	pWhileStmt = ast.And("while_stmt", nil,
		pc.Atom("while", "WHILE"), pLParen, pExpr, pRParen,
		pLBrace, ast.Kleene("block", nil, ast.OrdChoice("item", nil, pComment, pStatement)), pRBrace,
	)

	pDoStmt = ast.And("do_stmt", nil, pc.Atom("do", "DO"), pSubroutineCall, pSemi)

	pReturnStmt = ast.And("return_stmt", nil, pc.Atom("return", "RETURN"), ast.Maybe("value", nil, pExpr), pSemi)

	// A call to a subroutine, either qualified ('obj.method(...)'/'Class.function(...)') or bare
	// ('method(...)', implicitly a call on 'this' or another subroutine of the same class).
	pSubroutineCall = ast.And("subroutine_call", nil,
		pIdent, ast.Maybe("qualifier", nil, ast.And("qualified", nil, pDot, pIdent)),
		pLParen, ast.Kleene("args", nil, pExpr, pComma), pRParen,
	)
)

var (
	// Jack expressions have no operator precedence: 'term (op term)*' is evaluated strictly
	// left-to-right, each 'op_term' folding into a new BinaryExpr around the running result.
	pExpr = ast.And("expr", nil, pTerm, ast.Kleene("more_terms", nil, ast.And("op_term", nil, pBinOp, pTerm)))

	pTerm = ast.OrdChoice("term", nil,
		// Ordered so that the longer/more-specific alternatives are tried before a bare identifier
		pSubroutineCall, pArrayExpr, pParenExpr, pUnaryExpr, pLiteral, pVarExpr,
	)

	pParenExpr = ast.And("paren_expr", nil, pLParen, pExpr, pRParen)
	pUnaryExpr = ast.And("unary_expr", nil, pUnaryOp, pTerm)
	pArrayExpr = ast.And("array_expr", nil, pIdent, pLBracket, pExpr, pRBracket)
	pVarExpr   = ast.And("var_expr", nil, pIdent)

	// NOTE: 'this' is parsed as a plain identifier (pVarExpr/pIdent already match it) and
	// resolved specially by the Lowerer/TypeChecker, matching how every other variable reference
	// is handled - there's no dedicated keyword-constant node for it.
	pLiteral = ast.OrdChoice("literal", nil,
		pc.Int(), pc.Token(`"(?:\\.|[^"\\])*"`, "STRING"),
		pc.Atom("true", "TRUE"), pc.Atom("false", "FALSE"), pc.Atom("null", "NULL"),
	)

	pUnaryOp = ast.OrdChoice("unary_op", nil, pc.Atom("-", "MINUS"), pc.Atom("~", "TILDE"))

	pBinOp = ast.OrdChoice("bin_op", nil,
		pc.Atom("+", "PLUS"), pc.Atom("-", "MINUS"), pc.Atom("*", "STAR"), pc.Atom("/", "SLASH"),
		pc.Atom("&", "AMP"), pc.Atom("|", "PIPE"),
		pc.Atom("<", "LT"), pc.Atom(">", "GT"), pc.Atom("=", "EQUALS"),
	)
)

var (
	// Generic Identifier parser (for class, subroutine and variable names)
	// NOTE: An ident cannot begin with a leading digit, matching Jack's own lexical rules.
	pIdent = pc.Token(`[A-Za-z_][0-9a-zA-Z_]*`, "IDENT")

	pDot      = pc.Atom(".", "DOT")
	pSemi     = pc.Atom(";", "SEMI")
	pComma    = pc.Atom(",", "COMMA")
	pLBrace   = pc.Atom("{", "LBRACE")
	pRBrace   = pc.Atom("}", "RBRACE")
	pLParen   = pc.Atom("(", "LPAREN")
	pRParen   = pc.Atom(")", "RPAREN")
	pLBracket = pc.Atom("[", "LBRACKET")
	pRBracket = pc.Atom("]", "RBRACKET")

	pFieldScope = ast.OrdChoice("field_scope", nil, pc.Atom("static", "STATIC"), pc.Atom("field", "FIELD"))

	pSubroutineType = ast.OrdChoice("subroutine_type", nil,
		pc.Atom("constructor", "CONSTRUCTOR"), pc.Atom("function", "FUNCTION"), pc.Atom("method", "METHOD"),
	)

	// Available data types: the 3 primitives, 'void' (only legal as a return type) or a class name
	pDataType = ast.OrdChoice("data_type", nil,
		pc.Atom("int", "INT"), pc.Atom("char", "CHAR"), pc.Atom("boolean", "BOOL"), pc.Atom("void", "VOID"), pIdent,
	)
)

// ----------------------------------------------------------------------------
// Jack Parser

// This section defines the Parser for the nand2tetris Jack language.
//
// It uses parser combinators to obtain the AST from the source code (the latter can be provided)
// in multiple ways using a generic io.Reader, the library reads up the feature flags (as env vars):
// - PARSEC_DEBUG: Verbose logging to inspect which of the PCs gets triggered and match
// - EXPORT_AST:   Exports in the DEBUG_FOLDER a Graphviz representation of the AST
// - PRINT_AST:    Print on the stdout a textual representation of the AST
type Parser struct{ reader io.Reader }

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parser entrypoint divides the 2 phases of the parsing pipeline
// Text --> AST: This step is done using PCs and returns a generic traversable AST
// AST --> IR: This step is done by traversing the AST and extracting the 'jack.Class'
func (p *Parser) Parse() (Class, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return Class{}, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	root, success := p.FromSource(content)
	if !success {
		return Class{}, fmt.Errorf("failed to parse AST from input content")
	}

	return p.FromAST(root)
}

// Scans the textual input stream coming from the 'reader' method and returns a traversable AST
// (Abstract Syntax Tree) that can be eventually visited to extract/transform the info available.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {

	// Feature flag: Enable 'goparsec' library's debug logs
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	// We generate the traversable Abstract Syntax Tree from the source content
	root, _ := ast.Parsewith(pClassDecl, pc.NewScanner(source))

	// Feature flag: Enables export of the AST as Dot file (debug.ast.dot)
	if os.Getenv("EXPORT_AST") != "" {
		file, _ := os.Create(fmt.Sprintf("%s/debug.ast.dot", os.Getenv("DEBUG_FOLDER")))
		defer file.Close()

		file.Write([]byte(ast.Dotstring("\"Jack AST\"")))
	}

	// Feature flag: Enables pretty printing of the AST on the console
	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}
	// TODO (hmny): This hardcoding to true should be changed
	return root, true // Always reports success, whether or not the scanner reached 'EOF'
}

// This function takes the root node of the raw parsed AST and does a DFS on it parsing
// one by one each subtree and returning a 'jack.Class' that can be used as in-memory and
// type-safe AST not dependent on the parsing library used.
func (p *Parser) FromAST(root pc.Queryable) (Class, error) {
	if root.GetName() != "class_decl" {
		return Class{}, fmt.Errorf("expected node 'class_decl', found %s", root.GetName())
	}

	children := root.GetChildren()
	if len(children) != 5 {
		return Class{}, fmt.Errorf("expected node 'class_decl' with 5 children, got %d", len(children))
	}

	class := Class{
		Name:        children[1].GetValue(),
		Fields:      utils.NewOrderedMap[string, Variable](),
		Subroutines: utils.NewOrderedMap[string, Subroutine](),
	}

	for _, member := range children[3].GetChildren() {
		switch member.GetName() {
		case "class_var_decl":
			vars, err := p.HandleClassVarDecl(member)
			if err != nil {
				return Class{}, fmt.Errorf("error handling class var decl: %w", err)
			}
			for _, v := range vars {
				class.Fields.Set(v.Name, v)
			}

		case "subroutine_decl":
			subroutine, err := p.HandleSubroutineDecl(member)
			if err != nil {
				return Class{}, fmt.Errorf("error handling subroutine decl: %w", err)
			}
			class.Subroutines.Set(subroutine.Name, subroutine)

		case "sl_comment", "ml_comment":
			continue

		default:
			return Class{}, fmt.Errorf("unrecognized class member node '%s'", member.GetName())
		}
	}

	return class, nil
}

// Specialized function to convert a "class_var_decl" node to a list of 'jack.Variable'.
func (p *Parser) HandleClassVarDecl(node pc.Queryable) ([]Variable, error) {
	children := node.GetChildren()
	if len(children) != 5 {
		return nil, fmt.Errorf("expected node 'class_var_decl' with 5 children, got %d", len(children))
	}

	varType := Field
	if children[0].GetValue() == "static" {
		varType = Static
	}

	dataType, err := p.HandleDataType(children[1])
	if err != nil {
		return nil, fmt.Errorf("error handling data type: %w", err)
	}

	names := []string{children[2].GetValue()}
	for _, more := range children[3].GetChildren() {
		names = append(names, more.GetChildren()[1].GetValue())
	}

	variables := make([]Variable, 0, len(names))
	for _, name := range names {
		variables = append(variables, Variable{Name: name, VarType: varType, DataType: dataType})
	}
	return variables, nil
}

// Specialized function to convert a "var_decl" node to a list of 'jack.Variable'.
func (p *Parser) HandleVarDecl(node pc.Queryable) ([]Variable, error) {
	children := node.GetChildren()
	if len(children) != 5 {
		return nil, fmt.Errorf("expected node 'var_decl' with 5 children, got %d", len(children))
	}

	dataType, err := p.HandleDataType(children[1])
	if err != nil {
		return nil, fmt.Errorf("error handling data type: %w", err)
	}

	names := []string{children[2].GetValue()}
	for _, more := range children[3].GetChildren() {
		names = append(names, more.GetChildren()[1].GetValue())
	}

	variables := make([]Variable, 0, len(names))
	for _, name := range names {
		variables = append(variables, Variable{Name: name, VarType: Local, DataType: dataType})
	}
	return variables, nil
}

// Specialized function to convert a "data_type" leaf (the OrdChoice inlines to whichever
// alternative matched) to a 'jack.DataType'.
func (p *Parser) HandleDataType(node pc.Queryable) (DataType, error) {
	switch node.GetName() {
	case "INT":
		return DataType{Main: Int}, nil
	case "CHAR":
		return DataType{Main: Char}, nil
	case "BOOL":
		return DataType{Main: Bool}, nil
	case "VOID":
		return DataType{Main: Void}, nil
	case "IDENT":
		return DataType{Main: Object, Subtype: node.GetValue()}, nil
	default:
		return DataType{}, fmt.Errorf("unrecognized data type node '%s'", node.GetName())
	}
}

// Specialized function to convert a "subroutine_decl" node to a 'jack.Subroutine'.
func (p *Parser) HandleSubroutineDecl(node pc.Queryable) (Subroutine, error) {
	children := node.GetChildren()
	if len(children) != 10 {
		return Subroutine{}, fmt.Errorf("expected node 'subroutine_decl' with 10 children, got %d", len(children))
	}

	var subType SubroutineType
	switch children[0].GetValue() {
	case "constructor":
		subType = Constructor
	case "function":
		subType = Function
	case "method":
		subType = Method
	default:
		return Subroutine{}, fmt.Errorf("unrecognized subroutine type '%s'", children[0].GetValue())
	}

	returnType, err := p.HandleDataType(children[1])
	if err != nil {
		return Subroutine{}, fmt.Errorf("error handling return type: %w", err)
	}

	subroutine := Subroutine{Name: children[2].GetValue(), Type: subType, Return: returnType}

	for _, param := range children[4].GetChildren() {
		paramChildren := param.GetChildren()
		if len(paramChildren) != 2 {
			return Subroutine{}, fmt.Errorf("expected node 'param' with 2 children, got %d", len(paramChildren))
		}

		dataType, err := p.HandleDataType(paramChildren[0])
		if err != nil {
			return Subroutine{}, fmt.Errorf("error handling parameter data type: %w", err)
		}

		subroutine.Arguments = append(subroutine.Arguments, Variable{
			Name: paramChildren[1].GetValue(), VarType: Parameter, DataType: dataType,
		})
	}

	for _, local := range children[7].GetChildren() {
		vars, err := p.HandleVarDecl(local)
		if err != nil {
			return Subroutine{}, fmt.Errorf("error handling local var decl: %w", err)
		}
		subroutine.Statements = append(subroutine.Statements, VarStmt{Vars: vars})
	}

	statements, err := p.HandleBlock(children[8])
	if err != nil {
		return Subroutine{}, fmt.Errorf("error handling subroutine body: %w", err)
	}
	subroutine.Statements = append(subroutine.Statements, statements...)

	return subroutine, nil
}

// Specialized function to convert a block container (the children of a Kleene node, possibly
// interleaved with comments) to a list of 'jack.Statement'.
func (p *Parser) HandleBlock(container pc.Queryable) ([]Statement, error) {
	statements := []Statement{}
	for _, node := range container.GetChildren() {
		if node.GetName() == "sl_comment" || node.GetName() == "ml_comment" {
			continue
		}
		stmt, err := p.HandleStatement(node)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

// Generalized function to convert a statement node (the OrdChoice inlines to whichever
// alternative matched) to a 'jack.Statement'.
func (p *Parser) HandleStatement(node pc.Queryable) (Statement, error) {
	switch node.GetName() {
	case "let_stmt":
		return p.HandleLetStmt(node)
	case "if_stmt":
		return p.HandleIfStmt(node)
	case "while_stmt":
		return p.HandleWhileStmt(node)
	case "do_stmt":
		return p.HandleDoStmt(node)
	case "return_stmt":
		return p.HandleReturnStmt(node)
	default:
		return nil, fmt.Errorf("unrecognized statement node '%s'", node.GetName())
	}
}

// Specialized function to convert a "let_stmt" node to a 'jack.LetStmt'.
func (p *Parser) HandleLetStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 6 {
		return nil, fmt.Errorf("expected node 'let_stmt' with 6 children, got %d", len(children))
	}

	varName := children[1].GetValue()
	idxNode := children[2]

	var lhs Expression = VarExpr{Var: varName}
	if idxNode.GetName() == "array_index" {
		idxChildren := idxNode.GetChildren()
		if len(idxChildren) != 3 {
			return nil, fmt.Errorf("expected node 'array_index' with 3 children, got %d", len(idxChildren))
		}

		index, err := p.HandleExpr(idxChildren[1])
		if err != nil {
			return nil, fmt.Errorf("error handling array index expression: %w", err)
		}
		lhs = ArrayExpr{Var: varName, Index: index}
	}

	rhs, err := p.HandleExpr(children[4])
	if err != nil {
		return nil, fmt.Errorf("error handling RHS expression: %w", err)
	}

	return LetStmt{Lhs: lhs, Rhs: rhs}, nil
}

// Specialized function to convert an "if_stmt" node to a 'jack.IfStmt'.
func (p *Parser) HandleIfStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 8 {
		return nil, fmt.Errorf("expected node 'if_stmt' with 8 children, got %d", len(children))
	}

	condition, err := p.HandleExpr(children[2])
	if err != nil {
		return nil, fmt.Errorf("error handling if condition: %w", err)
	}

	thenBlock, err := p.HandleBlock(children[5])
	if err != nil {
		return nil, fmt.Errorf("error handling 'then' block: %w", err)
	}

	var elseBlock []Statement
	if elseNode := children[7]; elseNode.GetName() == "else_block" {
		elseChildren := elseNode.GetChildren()
		if len(elseChildren) != 4 {
			return nil, fmt.Errorf("expected node 'else_block' with 4 children, got %d", len(elseChildren))
		}

		elseBlock, err = p.HandleBlock(elseChildren[2])
		if err != nil {
			return nil, fmt.Errorf("error handling 'else' block: %w", err)
		}
	}

	return IfStmt{Condition: condition, ThenBlock: thenBlock, ElseBlock: elseBlock}, nil
}

// Specialized function to convert a "while_stmt" node to a 'jack.WhileStmt'.
func (p *Parser) HandleWhileStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 7 {
		return nil, fmt.Errorf("expected node 'while_stmt' with 7 children, got %d", len(children))
	}

	condition, err := p.HandleExpr(children[2])
	if err != nil {
		return nil, fmt.Errorf("error handling while condition: %w", err)
	}

	block, err := p.HandleBlock(children[5])
	if err != nil {
		return nil, fmt.Errorf("error handling while block: %w", err)
	}

	return WhileStmt{Condition: condition, Block: block}, nil
}

// Specialized function to convert a "do_stmt" node to a 'jack.DoStmt'.
func (p *Parser) HandleDoStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected node 'do_stmt' with 3 children, got %d", len(children))
	}

	call, err := p.HandleSubroutineCall(children[1])
	if err != nil {
		return nil, fmt.Errorf("error handling subroutine call: %w", err)
	}

	return DoStmt{FuncCall: call}, nil
}

// Specialized function to convert a "return_stmt" node to a 'jack.ReturnStmt'.
func (p *Parser) HandleReturnStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected node 'return_stmt' with 3 children, got %d", len(children))
	}

	if valueNode := children[1]; valueNode.GetName() == "expr" {
		expr, err := p.HandleExpr(valueNode)
		if err != nil {
			return nil, fmt.Errorf("error handling return expression: %w", err)
		}
		return ReturnStmt{Expr: expr}, nil
	}

	return ReturnStmt{}, nil
}

// Specialized function to convert a "subroutine_call" node to a 'jack.FuncCallExpr'.
func (p *Parser) HandleSubroutineCall(node pc.Queryable) (FuncCallExpr, error) {
	children := node.GetChildren()
	if len(children) != 5 {
		return FuncCallExpr{}, fmt.Errorf("expected node 'subroutine_call' with 5 children, got %d", len(children))
	}

	call := FuncCallExpr{FuncName: children[0].GetValue()}

	if qualifier := children[1]; qualifier.GetName() == "qualified" {
		qChildren := qualifier.GetChildren()
		if len(qChildren) != 2 {
			return FuncCallExpr{}, fmt.Errorf("expected node 'qualified' with 2 children, got %d", len(qChildren))
		}

		call.IsExtCall = true
		call.Var = call.FuncName
		call.FuncName = qChildren[1].GetValue()
	}

	for _, arg := range children[3].GetChildren() {
		expr, err := p.HandleExpr(arg)
		if err != nil {
			return FuncCallExpr{}, fmt.Errorf("error handling call argument: %w", err)
		}
		call.Arguments = append(call.Arguments, expr)
	}

	return call, nil
}

// Specialized function to convert an "expr" node to a 'jack.Expression', folding the chain of
// 'op_term' pairs into a left-associative tree of BinaryExpr nodes.
func (p *Parser) HandleExpr(node pc.Queryable) (Expression, error) {
	if node.GetName() != "expr" {
		return nil, fmt.Errorf("expected node 'expr', found %s", node.GetName())
	}

	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("expected node 'expr' with 2 children, got %d", len(children))
	}

	result, err := p.HandleTerm(children[0])
	if err != nil {
		return nil, fmt.Errorf("error handling term: %w", err)
	}

	for _, opTerm := range children[1].GetChildren() {
		opChildren := opTerm.GetChildren()
		if len(opChildren) != 2 {
			return nil, fmt.Errorf("expected node 'op_term' with 2 children, got %d", len(opChildren))
		}

		opType, err := p.HandleBinOp(opChildren[0])
		if err != nil {
			return nil, err
		}

		rhs, err := p.HandleTerm(opChildren[1])
		if err != nil {
			return nil, fmt.Errorf("error handling RHS term: %w", err)
		}

		result = BinaryExpr{Type: opType, Lhs: result, Rhs: rhs}
	}

	return result, nil
}

// Specialized function to convert a "bin_op" leaf to a 'jack.ExprType'.
func (p *Parser) HandleBinOp(node pc.Queryable) (ExprType, error) {
	switch node.GetName() {
	case "PLUS":
		return Plus, nil
	case "MINUS":
		return Minus, nil
	case "STAR":
		return Multiply, nil
	case "SLASH":
		return Divide, nil
	case "AMP":
		return BoolAnd, nil
	case "PIPE":
		return BoolOr, nil
	case "LT":
		return LessThan, nil
	case "GT":
		return GreatThan, nil
	case "EQUALS":
		return Equal, nil
	default:
		return "", fmt.Errorf("unrecognized binary operator node '%s'", node.GetName())
	}
}

// Generalized function to convert a term node (the OrdChoice inlines to whichever
// alternative matched) to a 'jack.Expression'.
func (p *Parser) HandleTerm(node pc.Queryable) (Expression, error) {
	switch node.GetName() {
	case "subroutine_call":
		call, err := p.HandleSubroutineCall(node)
		return call, err
	case "array_expr":
		return p.HandleArrayExpr(node)
	case "paren_expr":
		return p.HandleParenExpr(node)
	case "unary_expr":
		return p.HandleUnaryExpr(node)
	case "literal":
		return p.HandleLiteral(node)
	case "var_expr":
		return p.HandleVarExpr(node)
	default:
		return nil, fmt.Errorf("unrecognized term node '%s'", node.GetName())
	}
}

// Specialized function to convert an "array_expr" node to a 'jack.ArrayExpr'.
func (p *Parser) HandleArrayExpr(node pc.Queryable) (Expression, error) {
	children := node.GetChildren()
	if len(children) != 4 {
		return nil, fmt.Errorf("expected node 'array_expr' with 4 children, got %d", len(children))
	}

	index, err := p.HandleExpr(children[2])
	if err != nil {
		return nil, fmt.Errorf("error handling array index: %w", err)
	}

	return ArrayExpr{Var: children[0].GetValue(), Index: index}, nil
}

// Specialized function to convert a "paren_expr" node back to its inner 'jack.Expression'.
func (p *Parser) HandleParenExpr(node pc.Queryable) (Expression, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected node 'paren_expr' with 3 children, got %d", len(children))
	}
	return p.HandleExpr(children[1])
}

// Specialized function to convert a "unary_expr" node to a 'jack.UnaryExpr'.
func (p *Parser) HandleUnaryExpr(node pc.Queryable) (Expression, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("expected node 'unary_expr' with 2 children, got %d", len(children))
	}

	var opType ExprType
	switch children[0].GetName() {
	case "MINUS":
		opType = Negation
	case "TILDE":
		opType = BoolNot
	default:
		return nil, fmt.Errorf("unrecognized unary operator node '%s'", children[0].GetName())
	}

	rhs, err := p.HandleTerm(children[1])
	if err != nil {
		return nil, fmt.Errorf("error handling unary operand: %w", err)
	}

	return UnaryExpr{Type: opType, Rhs: rhs}, nil
}

// Specialized function to convert a "literal" leaf (the OrdChoice inlines to whichever
// alternative matched) to a 'jack.LiteralExpr'.
func (p *Parser) HandleLiteral(node pc.Queryable) (Expression, error) {
	switch node.GetName() {
	case "INT":
		return LiteralExpr{Type: DataType{Main: Int}, Value: node.GetValue()}, nil
	case "STRING":
		value := strings.TrimSuffix(strings.TrimPrefix(node.GetValue(), `"`), `"`)
		return LiteralExpr{Type: DataType{Main: String}, Value: value}, nil
	case "TRUE", "FALSE":
		return LiteralExpr{Type: DataType{Main: Bool}, Value: node.GetValue()}, nil
	case "NULL":
		return LiteralExpr{Type: DataType{Main: Null}, Value: node.GetValue()}, nil
	default:
		return nil, fmt.Errorf("unrecognized literal node '%s'", node.GetName())
	}
}

// Specialized function to convert a "var_expr" node to a 'jack.VarExpr'.
func (p *Parser) HandleVarExpr(node pc.Queryable) (Expression, error) {
	children := node.GetChildren()
	if len(children) != 1 {
		return nil, fmt.Errorf("expected node 'var_expr' with 1 child, got %d", len(children))
	}
	return VarExpr{Var: children[0].GetValue()}, nil
}
