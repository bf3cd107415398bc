package lower

import (
	"fmt"
	"strings"

	"github.com/pine-vm/pine/internal/expr"
)

// Instruction is one step of a StackFrameInstructions program. The set is
// closed and mirrors spec §4.4's frame-loop contract: Eval is the only
// instruction that computes a new value; the rest are control flow and
// bookkeeping around it.
type Instruction interface {
	instructionNode()
}

// Eval evaluates Expr against the frame's environment and its own prior
// results (via StackReference), stores the result at the current
// instruction pointer, and advances the pointer by one. Expr may itself be
// an arbitrarily complex expression tree, including Conditionals nested
// below its root: the evaluator handles it with a single walk that pushes
// no frame (package eval calls this "stackless" evaluation).
type Eval struct {
	Expr expr.Expr
}

// Jump unconditionally sets the instruction pointer to Target.
type Jump struct {
	Target int
}

// ConditionalJump consumes the value most recently assigned in this frame
// (i.e. the result of the instruction immediately before it): if it is the
// true-blob, the pointer jumps to TrueTarget; if the false-blob, execution
// falls through to the next instruction (the false region); otherwise
// (neither true nor false) the pointer jumps to InvalidTarget after
// writing the empty list as this instruction's own result, matching
// Conditional's "yields the empty list without evaluating either branch"
// rule.
type ConditionalJump struct {
	TrueTarget    int
	InvalidTarget int
}

// CopyLastAssigned copies the most recently assigned value into the
// current instruction pointer's slot and advances. It exists purely to
// give two diverging branches a single, path-independent "last assigned"
// handle their shared continuation can read back via StackReference(-1).
type CopyLastAssigned struct{}

// Return ends the frame, yielding the most recently assigned value as the
// frame's result.
type Return struct{}

func (Eval) instructionNode()             {}
func (Jump) instructionNode()             {}
func (ConditionalJump) instructionNode()  {}
func (CopyLastAssigned) instructionNode() {}
func (Return) instructionNode()           {}

// StackFrameInstructions is the lowerer's output for one expression: a
// flat, jump-addressed instruction sequence that package eval's
// Evaluator runs using an explicit frame rather than native recursion.
type StackFrameInstructions struct {
	Instructions []Instruction
}

// Len reports the instruction count, also the size the evaluator
// pre-allocates its per-frame result array to.
func (s StackFrameInstructions) Len() int { return len(s.Instructions) }

// String renders a disassembly-style listing, one instruction per line,
// matching the teacher's bytecode disassembler's register/line format but
// over Pine's own instruction set.
func (s StackFrameInstructions) String() string {
	var b strings.Builder
	for i, instr := range s.Instructions {
		fmt.Fprintf(&b, "%4d  %s\n", i, describeInstruction(instr))
	}
	return b.String()
}

func describeInstruction(instr Instruction) string {
	switch n := instr.(type) {
	case Eval:
		return fmt.Sprintf("eval %s", describeExpr(n.Expr))
	case Jump:
		return fmt.Sprintf("jump %d", n.Target)
	case ConditionalJump:
		return fmt.Sprintf("cjump true->%d invalid->%d", n.TrueTarget, n.InvalidTarget)
	case CopyLastAssigned:
		return "copy_last"
	case Return:
		return "return"
	default:
		return fmt.Sprintf("<unknown instruction %T>", instr)
	}
}

// describeExpr is a compact one-line rendering of an expression tree for
// disassembly output; it is deliberately terser than a full pretty-printer.
func describeExpr(e expr.Expr) string {
	switch n := e.(type) {
	case expr.Literal:
		return "lit"
	case expr.Environment:
		return "env"
	case expr.StackReference:
		return fmt.Sprintf("ref(%d)", n.Offset)
	case expr.List:
		parts := make([]string, len(n.Items))
		for i, it := range n.Items {
			parts[i] = describeExpr(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case expr.KernelApplication:
		return fmt.Sprintf("%s(%s)", n.Name, describeExpr(n.Arg))
	case expr.Conditional:
		return fmt.Sprintf("if(%s){%s}else{%s}", describeExpr(n.Cond), describeExpr(n.IfTrue), describeExpr(n.IfFalse))
	case expr.ParseAndEval:
		return fmt.Sprintf("parse_eval(%s, %s)", describeExpr(n.Encoded), describeExpr(n.Env))
	case expr.StringTag:
		return fmt.Sprintf("tag(%q, %s)", n.Tag, describeExpr(n.Inner))
	case expr.SkipHeadPath:
		return fmt.Sprintf("skip_head(%v, %s)", n.Skips, describeExpr(n.Arg))
	case expr.EqualTwo:
		return fmt.Sprintf("eq2(%s, %s)", describeExpr(n.Left), describeExpr(n.Right))
	default:
		return fmt.Sprintf("<%T>", e)
	}
}
