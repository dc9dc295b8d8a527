package expr

// Node is the interface implemented by all expression tree nodes.
type Node interface {
	node()
}

// LiteralNode holds a number, string, boolean, or none literal.
type LiteralNode struct {
	Value any
	Pos   int
}

func (n *LiteralNode) node() {}

// NameNode is a bare identifier reference.
type NameNode struct {
	Name string
	Pos  int
}

func (n *NameNode) node() {}

// UnaryNode is a prefix operation: -x, +x, not x.
type UnaryNode struct {
	Op      string
	Operand Node
	Pos     int
}

func (n *UnaryNode) node() {}

// BinaryNode is an infix arithmetic or boolean operation.
type BinaryNode struct {
	Op          string
	Left, Right Node
	Pos         int
}

func (n *BinaryNode) node() {}

// CompareNode is a chain of comparisons: a < b <= c evaluates each
// adjacent pair and requires all of them to hold.
type CompareNode struct {
	Operands []Node
	Ops      []string
	Pos      int
}

func (n *CompareNode) node() {}

// CallNode is a call to a whitelisted function. Module is empty for
// builtins and "math" for the math namespace.
type CallNode struct {
	Module string
	Name   string
	Args   []Node
	Pos    int
}

func (n *CallNode) node() {}
