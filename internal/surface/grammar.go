package surface

// Program is the top-level participle grammar entry point.
type Program struct {
	Statements []*Statement `@@*`
}

// Statement mirrors ast.Statement's closed sum, ordered so the
// longer/more specific alternatives (FieldWrite, Assign) are tried
// before the catch-all ExprStmt; participle backtracks across `|`
// alternatives so the shared `Ident` prefix of FieldWrite/Assign/call
// expressions resolves correctly.
type Statement struct {
	Let        *LetStmt        `  @@`
	Const      *ConstStmt      `| @@`
	Function   *FunctionStmt   `| @@`
	Loop       *LoopStmt       `| @@`
	If         *IfStmt         `| @@`
	Yield      *YieldStmt      `| @@`
	Return     *ReturnStmt     `| @@`
	FieldWrite *FieldWriteStmt `| @@`
	Assign     *AssignStmt     `| @@`
	Block      *BlockStmt      `| @@`
	ExprStmt   *ExprStmt       `| @@`
}

type LetStmt struct {
	Name string `"let" @Ident "="`
	Expr *Expr  `@@ ";"`
}

type ConstStmt struct {
	Name string `"const" @Ident "="`
	Expr *Expr  `@@ ";"`
}

type AssignStmt struct {
	Name string `@Ident "="`
	Expr *Expr  `@@ ";"`
}

type FieldWriteStmt struct {
	Device    string `@Ident "."`
	Attribute string `@Ident "="`
	Expr      *Expr  `@@ ";"`
}

type FunctionStmt struct {
	Name   string   `"fn" @Ident "("`
	Params []string `[ @Ident { "," @Ident } ] ")"`
	Body   []*Statement `"{" @@* "}"`
}

type BlockStmt struct {
	Body []*Statement `"{" @@* "}"`
}

type LoopStmt struct {
	Body []*Statement `"loop" "{" @@* "}"`
}

type IfStmt struct {
	Cond *Expr        `"if" @@ "{"`
	Then []*Statement `@@* "}"`
	Else []*Statement `[ "else" "{" @@* "}" ]`
}

type YieldStmt struct {
	Keyword string `"yield" ";"`
}

type ReturnStmt struct {
	Expr *Expr `"return" [ @@ ] ";"`
}

type ExprStmt struct {
	Expr *Expr `@@ ";"`
}

// Expr is the top of the precedence ladder; each level below handles
// one spec §6.1 precedence tier (lowest to highest: || , && , == != ,
// relational , + - , * /), eliminating left recursion the standard
// participle way since kanso's own flat BinaryExpr/BinOp chain doesn't
// need to (its evaluator isn't precedence-sensitive the way ours is).
type Expr struct {
	Or *OrExpr `@@`
}

type OrExpr struct {
	Left *AndExpr   `@@`
	Ops  []*AndExpr `{ "||" @@ }`
}

type AndExpr struct {
	Left *EqExpr   `@@`
	Ops  []*EqExpr `{ "&&" @@ }`
}

type EqExpr struct {
	Left *RelExpr `@@`
	Ops  []*EqOp  `{ @@ }`
}

type EqOp struct {
	Op    string   `@("==" | "!=")`
	Right *RelExpr `@@`
}

type RelExpr struct {
	Left *AddExpr `@@`
	Ops  []*RelOp `{ @@ }`
}

type RelOp struct {
	Op    string   `@(">=" | "<=" | ">" | "<")`
	Right *AddExpr `@@`
}

type AddExpr struct {
	Left *MulExpr `@@`
	Ops  []*AddOp `{ @@ }`
}

type AddOp struct {
	Op    string   `@("+" | "-")`
	Right *MulExpr `@@`
}

type MulExpr struct {
	Left *UnaryExpr `@@`
	Ops  []*MulOp   `{ @@ }`
}

type MulOp struct {
	Op    string     `@("*" | "/")`
	Right *UnaryExpr `@@`
}

type UnaryExpr struct {
	Op      *string  `[ @("!" | "-") ]`
	Primary *Primary `@@`
}

// Primary orders CallExpr and FieldExpr before a bare Ident so the
// shared `Ident` prefix backtracks correctly.
type Primary struct {
	Call   *CallExpr `  @@`
	Field  *FieldExpr `| @@`
	Float  *float64  `| @Float`
	Int    *int64    `| @Int`
	Bool   *string   `| @("true" | "false")`
	Ident  *string   `| @Ident`
	Paren  *Expr     `| "(" @@ ")"`
}

type CallExpr struct {
	Name string  `@Ident "("`
	Args []*Expr `[ @@ { "," @@ } ] ")"`
}

type FieldExpr struct {
	Device    string `@Ident "."`
	Attribute string `@Ident`
}
