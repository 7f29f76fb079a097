package model

// StmtKind enumerates the statement forms the binder distinguishes.
type StmtKind uint8

const (
	StmtBlock StmtKind = iota
	StmtLocalVar
	StmtLocalClass
	StmtExpr
	StmtIf
	StmtWhile
	StmtDo
	StmtFor
	StmtForEach
	StmtReturn
	StmtThrow
	StmtTry
	StmtSwitch
	StmtSync
	StmtLabeled
	StmtYield
	StmtAssert
	StmtCtorCall
	StmtOther
)

// Stmt is one statement of a body. Which fields are set depends on Kind:
//
//	Block, Sync, Labeled, loops: Body
//	LocalVar, ForEach:           Type, Vars (ForEach iterates X)
//	If:                          Cond, Then, Else
//	While, Do, For:              Cond (For also Init, Update)
//	Expr, Return, Throw, Yield:  X
//	Try:                         Resources, Body, Catches, Finally
//	Switch:                      X, Cases
//	CtorCall:                    Super, Args
//	LocalClass:                  Class
type Stmt struct {
	Kind      StmtKind
	Line      int
	Type      *TypeRef
	Vars      []*Var
	X         *Expr
	Cond      *Expr
	Body      []*Stmt
	Then      *Stmt
	Else      *Stmt
	Init      []*Stmt
	Update    []*Expr
	Resources []*Stmt
	Catches   []*Catch
	Finally   []*Stmt
	Cases     []*Case
	Class     *TypeDecl
	Super     bool
	Args      []*Expr
}

// Var is one declarator of a local variable declaration.
type Var struct {
	Name string
	Dims int
	Init *Expr
}

// Catch is one catch clause; Types holds the alternatives of a union catch.
type Catch struct {
	Types []*TypeRef
	Name  string
	Body  []*Stmt
}

// Case is one switch group or rule.
type Case struct {
	Labels  []*Expr
	Default bool
	Body    []*Stmt
}

// ExprKind enumerates the expression forms the binder distinguishes.
type ExprKind uint8

const (
	ExprName ExprKind = iota
	ExprField
	ExprCall
	ExprNew
	ExprNewArray
	ExprArrayInit
	ExprLiteral
	ExprThis
	ExprSuper
	ExprCast
	ExprInstanceOf
	ExprBinary
	ExprUnary
	ExprAssign
	ExprCond
	ExprLambda
	ExprMethodRef
	ExprIndex
	ExprClassLit
	ExprSwitch
	ExprOther
)

// Expr is one expression node. Field use by Kind:
//
//	Name:        Name
//	Field:       X.Name
//	Call:        X.Name(Args); X is nil for unqualified calls
//	New:         new Type(Args), Class holds an anonymous body
//	NewArray:    Type (element), Args (dimension sizes), Y (initializer)
//	ArrayInit:   Args
//	Literal:     Type
//	This, Super: Name holds an optional qualifying type name
//	Cast:        (Type) X
//	InstanceOf:  X instanceof Type, Name holds a pattern binding
//	Binary:      X Op Y
//	Unary:       Op X
//	Assign:      X Op Y
//	Cond:        X ? Y : Z
//	Lambda:      Params -> Y or Body
//	MethodRef:   X::Name or Type::Name
//	Index:       X[Y]
//	ClassLit:    Type.class
//	Switch:      switch (X) Cases
//	Other:       Args are visited, nothing else is known
type Expr struct {
	Kind   ExprKind
	Line   int
	Name   string
	Op     string
	X      *Expr
	Y      *Expr
	Z      *Expr
	Args   []*Expr
	Type   *TypeRef
	Params []*Param
	Body   []*Stmt
	Class  *TypeDecl
	Cases  []*Case
}

// IsCallTo reports whether e is a call named name.
func (e *Expr) IsCallTo(name string) bool {
	return e != nil && e.Kind == ExprCall && e.Name == name
}

// Segments flattens a chain of simple names and field accesses such as a.b.C
// into its parts. ok is false when the chain contains anything else.
func (e *Expr) Segments() (segs []string, ok bool) {
	switch {
	case e == nil:
		return nil, false
	case e.Kind == ExprName:
		return []string{e.Name}, true
	case e.Kind == ExprField:
		prefix, ok := e.X.Segments()
		if !ok {
			return nil, false
		}
		return append(prefix, e.Name), true
	}
	return nil, false
}

// WalkStmts calls fn on every statement in stmts, depth first, including
// statements nested in lambda bodies but not in local or anonymous classes.
func WalkStmts(stmts []*Stmt, fn func(*Stmt)) {
	for _, s := range stmts {
		walkStmt(s, fn)
	}
}

func walkStmt(s *Stmt, fn func(*Stmt)) {
	if s == nil {
		return
	}
	fn(s)
	WalkStmts(s.Body, fn)
	walkStmt(s.Then, fn)
	walkStmt(s.Else, fn)
	WalkStmts(s.Init, fn)
	WalkStmts(s.Resources, fn)
	for _, c := range s.Catches {
		WalkStmts(c.Body, fn)
	}
	WalkStmts(s.Finally, fn)
	for _, c := range s.Cases {
		WalkStmts(c.Body, fn)
	}
}
