// Package ast defines the node shapes the bytecode compiler (internal/
// compiler) and scope analyzer (internal/scope) consume. Producing this
// tree from source text is declared external to the engine core (spec
// §1); internal/frontend/treesitter is the bundled default front end
// that builds one.
package ast

// Span is a node's byte-offset range in the original source, carried
// through for error reporting (SyntaxError messages, source maps).
type Span struct {
	Start, End int
}

// NodeKind discriminates concrete node types for the compiler's and
// scope analyzer's type switches, mirroring internal/model's flat
// struct-per-kind style (one concrete Go type per spec grammar
// production) rather than a single tagged union.
type NodeKind uint8

const (
	KindProgram NodeKind = iota
	KindIdentifier
	KindPrivateName
	KindLiteral
	KindRegExpLiteral
	KindTemplateLiteral
	KindTaggedTemplate
	KindArrayExpression
	KindObjectExpression
	KindProperty
	KindFunctionExpression
	KindArrowFunctionExpression
	KindClassExpression
	KindClassBody
	KindMethodDefinition
	KindPropertyDefinition
	KindUnaryExpression
	KindUpdateExpression
	KindBinaryExpression
	KindLogicalExpression
	KindAssignmentExpression
	KindConditionalExpression
	KindCallExpression
	KindNewExpression
	KindMemberExpression
	KindSequenceExpression
	KindSpreadElement
	KindYieldExpression
	KindAwaitExpression
	KindThisExpression
	KindSuper
	KindImportExpression
	KindImportMeta

	KindArrayPattern
	KindObjectPattern
	KindAssignmentPattern
	KindRestElement

	KindExpressionStatement
	KindBlockStatement
	KindEmptyStatement
	KindVariableDeclaration
	KindVariableDeclarator
	KindFunctionDeclaration
	KindClassDeclaration
	KindIfStatement
	KindSwitchStatement
	KindSwitchCase
	KindForStatement
	KindForInStatement
	KindForOfStatement
	KindWhileStatement
	KindDoWhileStatement
	KindBreakStatement
	KindContinueStatement
	KindReturnStatement
	KindThrowStatement
	KindTryStatement
	KindCatchClause
	KindLabeledStatement
	KindWithStatement
	KindDebuggerStatement

	KindImportDeclaration
	KindImportSpecifier
	KindImportDefaultSpecifier
	KindImportNamespaceSpecifier
	KindExportNamedDeclaration
	KindExportDefaultDeclaration
	KindExportAllDeclaration
	KindExportSpecifier
)

// Node is the common interface every concrete node implements. The
// scope analyzer and compiler both operate purely against this
// interface plus type switches on Kind(), never against concrete
// front-end-specific types.
type Node interface {
	Kind() NodeKind
	Span() Span
}

type base struct {
	span Span
}

func (b base) Span() Span { return b.span }

// SetSpan lets a front end stamp the source range after constructing a
// node literal (e.g. &Identifier{Name: "x"} then n.SetSpan(lo, hi)).
func (b *base) SetSpan(start, end int) { b.span = Span{Start: start, End: end} }

// NewSpan is a convenience constructor used by front ends building
// nodes (e.g. internal/frontend/treesitter).
func NewSpan(start, end int) Span { return Span{Start: start, End: end} }

// VarKind distinguishes var/let/const for TDZ and hoisting purposes
// (spec §3.5, §4.4 "lexical-vs-var flag").
type VarKind uint8

const (
	VarVar VarKind = iota
	VarLet
	VarConst
)

// Program is the root of a script or module body.
type Program struct {
	base
	Body     []Node
	IsModule bool
}

func (*Program) Kind() NodeKind { return KindProgram }

// Identifier is a bare name reference; the scope analyzer stamps a
// BindingLocator onto it (spec §4.4) via scope.Resolve, not onto the
// node itself — the AST stays immutable and reusable across analyses.
type Identifier struct {
	base
	Name string
}

func (*Identifier) Kind() NodeKind { return KindIdentifier }

// PrivateName is a `#field` reference, resolved against the enclosing
// class's private-name set rather than the lexical scope chain.
type PrivateName struct {
	base
	Name string
}

func (*PrivateName) Kind() NodeKind { return KindPrivateName }

// LiteralKind discriminates literal value shapes.
type LiteralKind uint8

const (
	LiteralNull LiteralKind = iota
	LiteralBoolean
	LiteralNumber
	LiteralString
	LiteralBigInt
)

type Literal struct {
	base
	LitKind LiteralKind
	Bool    bool
	Number  float64
	Str     string // string text, or BigInt's decimal digits when LitKind == LiteralBigInt
}

func (*Literal) Kind() NodeKind { return KindLiteral }

type RegExpLiteral struct {
	base
	Pattern, Flags string
}

func (*RegExpLiteral) Kind() NodeKind { return KindRegExpLiteral }

type TemplateLiteral struct {
	base
	Quasis      []string // raw cooked-string chunks, len(Quasis) == len(Expressions)+1
	Expressions []Node
}

func (*TemplateLiteral) Kind() NodeKind { return KindTemplateLiteral }

type TaggedTemplate struct {
	base
	Tag      Node
	Template *TemplateLiteral
}

func (*TaggedTemplate) Kind() NodeKind { return KindTaggedTemplate }

type ArrayExpression struct {
	base
	Elements []Node // nil entries are elisions; *SpreadElement for `...x`
}

func (*ArrayExpression) Kind() NodeKind { return KindArrayExpression }

type ObjectExpression struct {
	base
	Properties []Node // *Property or *SpreadElement
}

func (*ObjectExpression) Kind() NodeKind { return KindObjectExpression }

type PropertyKind uint8

const (
	PropertyInit PropertyKind = iota
	PropertyGet
	PropertySet
	PropertyMethod
)

type Property struct {
	base
	Key       Node
	Value     Node
	PropKind  PropertyKind
	Computed  bool
	Shorthand bool
}

func (*Property) Kind() NodeKind { return KindProperty }

// Function carries the fields shared by every function-shaped node
// (FunctionDeclaration/FunctionExpression/ArrowFunctionExpression/
// MethodDefinition's value), which is exactly the information spec
// §4.4 says the scope analyzer needs per function boundary.
type Function struct {
	base
	ID        *Identifier // nil for anonymous function expressions and all arrows
	Params    []Node      // Identifier, AssignmentPattern, RestElement, or a destructuring pattern
	Body      Node        // *BlockStatement, or a bare expression for concise arrow bodies
	Generator bool
	Async     bool
	Strict    bool // own body begins with "use strict", or inherited from an enclosing strict context
}

type FunctionDeclaration struct{ Function }

func (*FunctionDeclaration) Kind() NodeKind { return KindFunctionDeclaration }

type FunctionExpression struct{ Function }

func (*FunctionExpression) Kind() NodeKind { return KindFunctionExpression }

type ArrowFunctionExpression struct {
	Function
	ExpressionBody bool // true when Body is a bare expression, not a BlockStatement
}

func (*ArrowFunctionExpression) Kind() NodeKind { return KindArrowFunctionExpression }

type ClassExpression struct {
	base
	ID         *Identifier
	SuperClass Node
	Body       *ClassBody
}

func (*ClassExpression) Kind() NodeKind { return KindClassExpression }

type ClassDeclaration struct {
	base
	ID         *Identifier
	SuperClass Node
	Body       *ClassBody
}

func (*ClassDeclaration) Kind() NodeKind { return KindClassDeclaration }

type ClassBody struct {
	base
	Body []Node // *MethodDefinition, *PropertyDefinition
}

func (*ClassBody) Kind() NodeKind { return KindClassBody }

type MethodDefinition struct {
	base
	Key      Node
	Value    *FunctionExpression
	PropKind PropertyKind // Init for a plain method, Get/Set for accessors
	Static   bool
	Computed bool
}

func (*MethodDefinition) Kind() NodeKind { return KindMethodDefinition }

type PropertyDefinition struct {
	base
	Key      Node
	Value    Node // may be nil (field declared without an initializer)
	Static   bool
	Computed bool
}

func (*PropertyDefinition) Kind() NodeKind { return KindPropertyDefinition }

type UnaryExpression struct {
	base
	Operator string
	Argument Node
}

func (*UnaryExpression) Kind() NodeKind { return KindUnaryExpression }

type UpdateExpression struct {
	base
	Operator string // "++" or "--"
	Argument Node
	Prefix   bool
}

func (*UpdateExpression) Kind() NodeKind { return KindUpdateExpression }

type BinaryExpression struct {
	base
	Operator    string
	Left, Right Node
}

func (*BinaryExpression) Kind() NodeKind { return KindBinaryExpression }

type LogicalExpression struct {
	base
	Operator    string // "&&", "||", "??"
	Left, Right Node
}

func (*LogicalExpression) Kind() NodeKind { return KindLogicalExpression }

type AssignmentExpression struct {
	base
	Operator string // "=", "+=", "&&=", ...
	Left     Node   // Identifier, MemberExpression, or a destructuring pattern for "="
	Right    Node
}

func (*AssignmentExpression) Kind() NodeKind { return KindAssignmentExpression }

type ConditionalExpression struct {
	base
	Test, Consequent, Alternate Node
}

func (*ConditionalExpression) Kind() NodeKind { return KindConditionalExpression }

type CallExpression struct {
	base
	Callee   Node
	Args     []Node // *SpreadElement entries expand at call time
	Optional bool   // `?.()`
}

func (*CallExpression) Kind() NodeKind { return KindCallExpression }

type NewExpression struct {
	base
	Callee Node
	Args   []Node
}

func (*NewExpression) Kind() NodeKind { return KindNewExpression }

type MemberExpression struct {
	base
	Object   Node
	Property Node // Identifier/PrivateName when !Computed, else an arbitrary expression
	Computed bool
	Optional bool // `?.`
}

func (*MemberExpression) Kind() NodeKind { return KindMemberExpression }

type SequenceExpression struct {
	base
	Expressions []Node
}

func (*SequenceExpression) Kind() NodeKind { return KindSequenceExpression }

type SpreadElement struct {
	base
	Argument Node
}

func (*SpreadElement) Kind() NodeKind { return KindSpreadElement }

type YieldExpression struct {
	base
	Argument Node // may be nil for a bare `yield`
	Delegate bool // `yield*`
}

func (*YieldExpression) Kind() NodeKind { return KindYieldExpression }

type AwaitExpression struct {
	base
	Argument Node
}

func (*AwaitExpression) Kind() NodeKind { return KindAwaitExpression }

type ThisExpression struct{ base }

func (*ThisExpression) Kind() NodeKind { return KindThisExpression }

type Super struct{ base }

func (*Super) Kind() NodeKind { return KindSuper }

// ImportExpression is the dynamic `import(specifier)` call expression
// (compiles to the ImportCall opcode, spec §4.5.2).
type ImportExpression struct {
	base
	Source Node
}

func (*ImportExpression) Kind() NodeKind { return KindImportExpression }

// ImportMeta is the `import.meta` meta-property (ImportMeta opcode).
type ImportMeta struct{ base }

func (*ImportMeta) Kind() NodeKind { return KindImportMeta }

// --- Binding patterns ---

type ArrayPattern struct {
	base
	Elements []Node // nil entries are elisions
}

func (*ArrayPattern) Kind() NodeKind { return KindArrayPattern }

type ObjectPattern struct {
	base
	Properties []Node // *Property (Value is the nested pattern) or *RestElement
}

func (*ObjectPattern) Kind() NodeKind { return KindObjectPattern }

type AssignmentPattern struct {
	base
	Left  Node // the bound pattern
	Right Node // default-value expression
}

func (*AssignmentPattern) Kind() NodeKind { return KindAssignmentPattern }

type RestElement struct {
	base
	Argument Node
}

func (*RestElement) Kind() NodeKind { return KindRestElement }

// --- Statements ---

type ExpressionStatement struct {
	base
	Expression Node
}

func (*ExpressionStatement) Kind() NodeKind { return KindExpressionStatement }

// BlockStatement is a lexical scope boundary (spec §3.5 "lexical
// region"); the scope analyzer allocates one Scope per BlockStatement
// that declares at least one let/const/class/function binding.
type BlockStatement struct {
	base
	Body []Node
}

func (*BlockStatement) Kind() NodeKind { return KindBlockStatement }

type EmptyStatement struct{ base }

func (*EmptyStatement) Kind() NodeKind { return KindEmptyStatement }

type VariableDeclarator struct {
	base
	ID   Node // Identifier or a destructuring pattern
	Init Node // may be nil
}

func (*VariableDeclarator) Kind() NodeKind { return KindVariableDeclarator }

type VariableDeclaration struct {
	base
	VarKind      VarKind
	Declarations []*VariableDeclarator
}

func (*VariableDeclaration) Kind() NodeKind { return KindVariableDeclaration }

type IfStatement struct {
	base
	Test                   Node
	Consequent, Alternate  Node // Alternate may be nil
}

func (*IfStatement) Kind() NodeKind { return KindIfStatement }

type SwitchCase struct {
	base
	Test       Node // nil for `default:`
	Consequent []Node
}

func (*SwitchCase) Kind() NodeKind { return KindSwitchCase }

// SwitchStatement's cases share one lexical scope (spec: the whole
// case block is one Block-like scope for let/const/class/function
// declared directly in any case's statement list).
type SwitchStatement struct {
	base
	Discriminant Node
	Cases        []*SwitchCase
}

func (*SwitchStatement) Kind() NodeKind { return KindSwitchStatement }

// ForStatement's Init, when a `let`/`const` VariableDeclaration,
// introduces a fresh per-iteration lexical environment (spec's
// CreatePerIterationEnvironment) that internal/scope and internal/vm
// must both special-case.
type ForStatement struct {
	base
	Init   Node // *VariableDeclaration, an expression, or nil
	Test   Node // may be nil
	Update Node // may be nil
	Body   Node
}

func (*ForStatement) Kind() NodeKind { return KindForStatement }

type ForInStatement struct {
	base
	Left  Node // *VariableDeclaration or an assignment target
	Right Node
	Body  Node
}

func (*ForInStatement) Kind() NodeKind { return KindForInStatement }

type ForOfStatement struct {
	base
	Left  Node
	Right Node
	Body  Node
	Await bool // for-await-of, valid only inside an async function/module
}

func (*ForOfStatement) Kind() NodeKind { return KindForOfStatement }

type WhileStatement struct {
	base
	Test Node
	Body Node
}

func (*WhileStatement) Kind() NodeKind { return KindWhileStatement }

type DoWhileStatement struct {
	base
	Body Node
	Test Node
}

func (*DoWhileStatement) Kind() NodeKind { return KindDoWhileStatement }

type BreakStatement struct {
	base
	Label *Identifier // may be nil
}

func (*BreakStatement) Kind() NodeKind { return KindBreakStatement }

type ContinueStatement struct {
	base
	Label *Identifier // may be nil
}

func (*ContinueStatement) Kind() NodeKind { return KindContinueStatement }

type ReturnStatement struct {
	base
	Argument Node // may be nil
}

func (*ReturnStatement) Kind() NodeKind { return KindReturnStatement }

type ThrowStatement struct {
	base
	Argument Node
}

func (*ThrowStatement) Kind() NodeKind { return KindThrowStatement }

// CatchClause's Param, when present, is its own lexical scope
// (shadowing is permitted against the enclosing block but not within
// the catch parameter's own destructuring pattern).
type CatchClause struct {
	base
	Param Node // may be nil (`catch {}` with no binding)
	Body  *BlockStatement
}

func (*CatchClause) Kind() NodeKind { return KindCatchClause }

type TryStatement struct {
	base
	Block     *BlockStatement
	Handler   *CatchClause // may be nil
	Finalizer *BlockStatement // may be nil
}

func (*TryStatement) Kind() NodeKind { return KindTryStatement }

type LabeledStatement struct {
	base
	Label *Identifier
	Body  Node
}

func (*LabeledStatement) Kind() NodeKind { return KindLabeledStatement }

// WithStatement is retained in the AST shape for completeness (spec
// §4.5.2 has opcodes implying `with` support via dynamic lookups) but
// the compiler rejects it in strict-mode contexts per spec.
type WithStatement struct {
	base
	Object Node
	Body   Node
}

func (*WithStatement) Kind() NodeKind { return KindWithStatement }

type DebuggerStatement struct{ base }

func (*DebuggerStatement) Kind() NodeKind { return KindDebuggerStatement }

// --- Modules ---

type ImportSpecifier struct {
	base
	Imported *Identifier // the exported name in the source module
	Local    *Identifier
}

func (*ImportSpecifier) Kind() NodeKind { return KindImportSpecifier }

type ImportDefaultSpecifier struct {
	base
	Local *Identifier
}

func (*ImportDefaultSpecifier) Kind() NodeKind { return KindImportDefaultSpecifier }

type ImportNamespaceSpecifier struct {
	base
	Local *Identifier
}

func (*ImportNamespaceSpecifier) Kind() NodeKind { return KindImportNamespaceSpecifier }

type ImportDeclaration struct {
	base
	Specifiers []Node // *ImportSpecifier, *ImportDefaultSpecifier, *ImportNamespaceSpecifier
	Source     *Literal
}

func (*ImportDeclaration) Kind() NodeKind { return KindImportDeclaration }

type ExportSpecifier struct {
	base
	Local    *Identifier
	Exported *Identifier
}

func (*ExportSpecifier) Kind() NodeKind { return KindExportSpecifier }

type ExportNamedDeclaration struct {
	base
	Declaration Node // may be nil when Specifiers is used instead
	Specifiers  []*ExportSpecifier
	Source      *Literal // non-nil for `export {x} from "mod"`
}

func (*ExportNamedDeclaration) Kind() NodeKind { return KindExportNamedDeclaration }

type ExportDefaultDeclaration struct {
	base
	Declaration Node // FunctionDeclaration, ClassDeclaration, or an expression
}

func (*ExportDefaultDeclaration) Kind() NodeKind { return KindExportDefaultDeclaration }

type ExportAllDeclaration struct {
	base
	Exported *Identifier // may be nil for `export * from "mod"`
	Source   *Literal
}

func (*ExportAllDeclaration) Kind() NodeKind { return KindExportAllDeclaration }
