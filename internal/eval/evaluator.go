// Package eval implements Pine's explicit-stack evaluator (spec §4.4):
// Evaluator runs the StackFrameInstructions package lower produces,
// using a per-call frame rather than native recursion for the straight-
// line instruction loop, so a deeply nested literal value can never blow
// the host's call stack the way a naive tree-walker (package refeval)
// would. A frame's own Eval instruction payload — an arbitrarily shaped,
// Conditional-free-at-the-top-but-possibly-nested-Conditional expression
// tree — is still walked with ordinary Go recursion bounded by that
// single instruction's depth; the cases that genuinely grow unbounded
// (ParseAndEval's self-interpretation) always go through runFrame, which
// pushes a fresh frame per expansion rather than growing the expression
// walk itself. Nested ParseAndEval expansions do recurse as native Go
// calls (runFrame calling back into evalExpr calling back into
// runFrame); flattening that into a single manually managed frame stack
// would need a fully CPS-transformed stackless walk and isn't attempted
// here. ParseAndEvalCountLimit is what actually bounds this recursion in
// practice, the same guard spec §4.4 specifies for runaway
// self-interpretation.
package eval

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pine-vm/pine/internal/diag"
	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/kernel"
	"github.com/pine-vm/pine/internal/lower"
	"github.com/pine-vm/pine/internal/value"
)

// cacheInsertThreshold is the "instruction count plus 100x sub-frame
// count" heuristic spec §4.4 uses to decide whether a frame's return is
// worth an eval-cache entry.
const cacheInsertThreshold = 700

// Evaluator runs Pine expressions against an environment, maintaining
// its own parse cache and per-instance compilation cache (spec §5: "per-
// VM instance mapping Expression → ExpressionCompilation ... guarded by
// a mutex"). The eval cache, override table and precompiled dispatch are
// all optional collaborators, off until a host installs one.
type Evaluator struct {
	kernels        kernel.Registry
	maxReduceDepth int

	mu                 sync.Mutex
	parseCache         map[[32]byte]expr.Expr
	compilationCache   map[lower.ExpressionKey]lower.ExpressionCompilation
	compilationClasses lower.CompilationClasses

	evalCache   EvalCache
	overrides   OverrideTable
	precompiled PrecompiledDispatch
}

// New builds an Evaluator over kernels. maxReduceDepth bounds the
// lowerer's constant-folding descent for every compilation this
// Evaluator builds (lower.DefaultMaxReduceDepth is a reasonable default).
func New(kernels kernel.Registry, maxReduceDepth int) *Evaluator {
	return &Evaluator{
		kernels:          kernels,
		maxReduceDepth:   maxReduceDepth,
		parseCache:       make(map[[32]byte]expr.Expr),
		compilationCache: make(map[lower.ExpressionKey]lower.ExpressionCompilation),
	}
}

// InstallEvalCache installs the (ExpressionValue, EnvironmentValue) →
// ReturnValue cache consulted before parsing and frame allocation (spec
// §6's install_eval_cache).
func (ev *Evaluator) InstallEvalCache(c EvalCache) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.evalCache = c
}

// InstallOverrideTable installs hand-coded replacements for specific
// encoded expressions (spec §6's install_override_table).
func (ev *Evaluator) InstallOverrideTable(t OverrideTable) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.overrides = t
}

// InstallPrecompiled installs the precompiled-dispatch registry (spec
// §6's install_precompiled).
func (ev *Evaluator) InstallPrecompiled(d PrecompiledDispatch) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.precompiled = d
}

// InstallCompilationClasses installs the PGO-derived (or statically
// authored) per-expression specialization classes BuildCompilation
// consults the next time each expression is compiled (spec §6's
// install_compilation_classes). It does not retroactively rebuild
// already-cached compilations.
func (ev *Evaluator) InstallCompilationClasses(c lower.CompilationClasses) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.compilationClasses = c
}

// BuildCompilation is spec §6's build_compilation operation.
func (ev *Evaluator) BuildCompilation(e expr.Expr, constraints []lower.Constraint) lower.ExpressionCompilation {
	return lower.BuildCompilation(e, ev.kernels, constraints, ev.maxReduceDepth)
}

// runState is shared across every frame a single top-level call pushes:
// the call's Config, its observer (nil for a plain EvaluateExpression),
// and the running totals the final Report reports.
type runState struct {
	cfg               Config
	observer          Observer
	parseAndEvalCount int
	totalInstructions int
}

// EvaluateExpression is spec §6's evaluate operation.
func (ev *Evaluator) EvaluateExpression(rootExpr expr.Expr, rootEnv *value.Value, cfg Config) (Report, error) {
	return ev.run(rootExpr, rootEnv, cfg, nil)
}

// ProfileEvaluate is spec §6's profile_evaluate operation: identical to
// EvaluateExpression but streams a FrameReport to observer for every
// frame that returns successfully.
func (ev *Evaluator) ProfileEvaluate(rootExpr expr.Expr, rootEnv *value.Value, cfg Config, observer Observer) (Report, error) {
	return ev.run(rootExpr, rootEnv, cfg, observer)
}

func (ev *Evaluator) run(rootExpr expr.Expr, rootEnv *value.Value, cfg Config, observer Observer) (Report, error) {
	rs := &runState{cfg: cfg, observer: observer}
	exprVal := expr.Encode(rootExpr)
	comp := ev.compilationFor(rootExpr)
	instrs := comp.SelectInstructionsForEnvironment(rootEnv)
	f := newFrame(rootEnv, instrs, rootExpr, exprVal)

	ret, err := ev.runFrame(f, rs)
	report := Report{
		ExpressionValue:   exprVal,
		Expression:        rootExpr,
		Environment:       rootEnv,
		InstructionCount:  rs.totalInstructions,
		ParseAndEvalCount: rs.parseAndEvalCount,
		ReturnValue:       ret,
	}
	if err != nil {
		return report, err
	}
	return report, nil
}

// compilationFor returns e's ExpressionCompilation, building and caching
// it on first use. A concurrent caller never sees a partially-built
// entry: the mutex is released during the cache-miss build and the entry
// is stored only once the build is complete. Two concurrent misses on the
// same key may both build; lowering is deterministic, so either result
// may be kept.
func (ev *Evaluator) compilationFor(e expr.Expr) lower.ExpressionCompilation {
	key := lower.KeyOf(e)

	ev.mu.Lock()
	if c, ok := ev.compilationCache[key]; ok {
		ev.mu.Unlock()
		return c
	}
	classes := ev.compilationClasses[key]
	ev.mu.Unlock()

	comp := lower.BuildCompilation(e, ev.kernels, classes, ev.maxReduceDepth)

	ev.mu.Lock()
	ev.compilationCache[key] = comp
	ev.mu.Unlock()
	return comp
}

// parseCached decodes encodedVal into an Expr, consulting and populating
// the structural-hash parse cache (spec §4.4's "parses encoded to an
// Expression using a structural-hash parse cache").
func (ev *Evaluator) parseCached(encodedVal *value.Value) (expr.Expr, error) {
	h := encodedVal.Hash()

	ev.mu.Lock()
	if e, ok := ev.parseCache[h]; ok {
		ev.mu.Unlock()
		return e, nil
	}
	ev.mu.Unlock()

	parsed, err := expr.Parse(encodedVal, ev.kernels.Known)
	if err != nil {
		return nil, err
	}

	ev.mu.Lock()
	ev.parseCache[h] = parsed
	ev.mu.Unlock()
	return parsed, nil
}

func wrapParseError(err error, encodedVal *value.Value) error {
	var unknownKernel *expr.UnknownKernelError
	if errors.As(err, &unknownKernel) {
		return &diag.UnknownKernelError{Name: unknownKernel.Name}
	}
	return diag.NewParseExpressionError(err.Error(), encodedVal)
}

// runFrame runs f's instruction loop to completion, returning its Return
// value or the first error encountered.
func (ev *Evaluator) runFrame(f *frame, rs *runState) (*value.Value, error) {
	for {
		if f.ip < 0 || f.ip >= len(f.instrs.Instructions) {
			return nil, &diag.InvalidInstruction{Reason: fmt.Sprintf("instruction pointer %d out of range (frame has %d instructions)", f.ip, len(f.instrs.Instructions))}
		}
		instr := f.instrs.Instructions[f.ip]

		switch in := instr.(type) {
		case lower.Eval:
			v, err := ev.evalExpr(in.Expr, f.env, f, rs)
			if err != nil {
				return nil, err
			}
			f.results[f.ip] = v
			f.lastAssigned = f.ip
			f.instructionsIssued++
			rs.totalInstructions++
			f.ip++

		case lower.CopyLastAssigned:
			if f.lastAssigned < 0 {
				return nil, &diag.InvalidInstruction{Reason: "CopyLastAssigned with no prior assignment in frame"}
			}
			f.results[f.ip] = f.results[f.lastAssigned]
			f.lastAssigned = f.ip
			rs.totalInstructions++
			f.ip++

		case lower.ConditionalJump:
			if f.lastAssigned < 0 {
				return nil, &diag.InvalidInstruction{Reason: "ConditionalJump with no prior assignment in frame"}
			}
			cond := f.results[f.lastAssigned]
			rs.totalInstructions++
			switch {
			case value.IsTrue(cond):
				f.ip = in.TrueTarget
			case value.IsFalse(cond):
				f.ip++
			default:
				f.results[f.ip] = value.EmptyList
				f.lastAssigned = f.ip
				f.ip = in.InvalidTarget
			}

		case lower.Jump:
			rs.totalInstructions++
			f.ip = in.Target

		case lower.Return:
			if f.lastAssigned < 0 {
				return nil, &diag.ReturnBeforeAssignment{}
			}
			ret := f.results[f.lastAssigned]
			ev.maybeCacheInsert(f)
			if rs.observer != nil {
				rs.observer(FrameReport{
					ExpressionValue:   f.exprVal,
					Expression:        f.rootExpr,
					Environment:       f.env,
					InstructionCount:  f.instructionsIssued,
					ParseAndEvalCount: rs.parseAndEvalCount,
					ReturnValue:       ret,
				})
			}
			return ret, nil

		default:
			return nil, &diag.InvalidInstruction{Reason: fmt.Sprintf("unknown instruction %T", instr)}
		}
	}
}

func (ev *Evaluator) maybeCacheInsert(f *frame) {
	ev.mu.Lock()
	cache := ev.evalCache
	ev.mu.Unlock()
	if cache == nil {
		return
	}
	if f.instrs.Len()+100*f.subFrameCount <= cacheInsertThreshold {
		return
	}
	cache.Insert(keyFor(f.exprVal, f.env), f.results[f.lastAssigned])
}

// evalExpr evaluates e against env. For every variant except
// Conditional and ParseAndEval this is the pure "evaluate_stackless"
// helper spec §4.4 describes: no frame is pushed, no cache is consulted.
// Conditional evaluates its chosen branch with a further evalExpr call
// rather than pushing a frame, since the branch is just more of the same
// expression tree; ParseAndEval is the one case that actually needs the
// cache/override/precompiled/frame-push machinery, delegated to
// dispatchParseAndEval.
func (ev *Evaluator) evalExpr(e expr.Expr, env *value.Value, f *frame, rs *runState) (*value.Value, error) {
	switch n := e.(type) {
	case expr.Literal:
		return n.Value, nil

	case expr.Environment:
		return env, nil

	case expr.List:
		items := make([]*value.Value, len(n.Items))
		for i, it := range n.Items {
			v, err := ev.evalExpr(it, env, f, rs)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return value.NewList(items), nil

	case expr.KernelApplication:
		arg, err := ev.evalExpr(n.Arg, env, f, rs)
		if err != nil {
			return nil, err
		}
		fn, ok := ev.kernels.Lookup(n.Name)
		if !ok {
			return nil, &diag.InvalidInstruction{Reason: fmt.Sprintf("unknown kernel %q reached evaluation", n.Name)}
		}
		return fn(arg), nil

	case expr.StringTag:
		return ev.evalExpr(n.Inner, env, f, rs)

	case expr.StackReference:
		if n.Offset >= 0 {
			return nil, &diag.InvalidInstruction{Reason: "StackReference with non-negative offset"}
		}
		idx := f.lastAssigned + 1 + n.Offset
		if idx < 0 || idx > f.lastAssigned {
			return nil, &diag.InvalidInstruction{Reason: fmt.Sprintf("StackReference offset %d out of range at slot %d", n.Offset, f.lastAssigned)}
		}
		return f.results[idx], nil

	case expr.SkipHeadPath:
		arg, err := ev.evalExpr(n.Arg, env, f, rs)
		if err != nil {
			return nil, err
		}
		skipFn, ok := ev.kernels.Lookup(kernel.Skip)
		if !ok {
			return nil, &diag.InvalidInstruction{Reason: "kernel registry has no skip implementation"}
		}
		headFn, ok := ev.kernels.Lookup(kernel.Head)
		if !ok {
			return nil, &diag.InvalidInstruction{Reason: "kernel registry has no head implementation"}
		}
		cur := arg
		for _, n := range n.Skips {
			cur = skipFn(value.NewList([]*value.Value{value.FromInt64(n), cur}))
		}
		return headFn(cur), nil

	case expr.EqualTwo:
		left, err := ev.evalExpr(n.Left, env, f, rs)
		if err != nil {
			return nil, err
		}
		right, err := ev.evalExpr(n.Right, env, f, rs)
		if err != nil {
			return nil, err
		}
		fn, ok := ev.kernels.Lookup(kernel.Equal)
		if !ok {
			return nil, &diag.InvalidInstruction{Reason: "kernel registry has no equal implementation"}
		}
		return fn(value.NewList([]*value.Value{left, right})), nil

	case expr.Conditional:
		cond, err := ev.evalExpr(n.Cond, env, f, rs)
		if err != nil {
			return nil, err
		}
		switch {
		case value.IsTrue(cond):
			return ev.evalExpr(n.IfTrue, env, f, rs)
		case value.IsFalse(cond):
			return ev.evalExpr(n.IfFalse, env, f, rs)
		default:
			return value.EmptyList, nil
		}

	case expr.ParseAndEval:
		encodedVal, err := ev.evalExpr(n.Encoded, env, f, rs)
		if err != nil {
			return nil, err
		}
		newEnv, err := ev.evalExpr(n.Env, env, f, rs)
		if err != nil {
			return nil, err
		}
		return ev.dispatchParseAndEval(encodedVal, newEnv, f, rs)

	default:
		return nil, fmt.Errorf("eval: unhandled expression node %T", e)
	}
}

// dispatchParseAndEval implements spec §4.4's Eval(ParseAndEval) steps.
// A PrecompiledReenter outcome loops back to the top rather than
// recursing in Go, matching its "supports tail-call-like chains without
// blowing the host stack" purpose.
func (ev *Evaluator) dispatchParseAndEval(encodedVal, env *value.Value, f *frame, rs *runState) (*value.Value, error) {
	for {
		rs.parseAndEvalCount++
		f.subFrameCount++ // tentative; corrected below for outcomes that don't spawn a real frame
		if rs.cfg.ParseAndEvalCountLimit > 0 && rs.parseAndEvalCount > rs.cfg.ParseAndEvalCountLimit {
			return nil, &diag.LimitExceeded{Limit: rs.cfg.ParseAndEvalCountLimit, Observed: rs.parseAndEvalCount}
		}

		if ev.evalCache != nil {
			if v, ok := ev.evalCache.Get(keyFor(encodedVal, env)); ok {
				f.subFrameCount--
				return v, nil
			}
		}
		if ev.overrides != nil {
			if fn, ok := ev.overrides.Lookup(encodedVal); ok {
				f.subFrameCount--
				return fn(env), nil
			}
		}

		parsed, err := ev.parseCached(encodedVal)
		if err != nil {
			return nil, wrapParseError(err, encodedVal)
		}

		if ev.precompiled != nil {
			outcome, ok := ev.precompiled.Dispatch(parsed, env)
			if ok {
				switch outcome.Kind {
				case PrecompiledValue:
					f.subFrameCount += outcome.SubFrameCount - 1
					return outcome.Value, nil
				case PrecompiledReenter:
					f.subFrameCount--
					encodedVal = expr.Encode(outcome.ReenterExpr)
					env = outcome.ReenterEnv
					continue
				case PrecompiledStep:
					f.subFrameCount-- // runStep counts each child frame it pushes
					return ev.runStep(outcome.Step, f, rs)
				}
			}
		}

		comp := ev.compilationFor(parsed)
		instrs := comp.SelectInstructionsForEnvironment(env)
		child := newFrame(env, instrs, parsed, encodedVal)
		return ev.runFrame(child, rs)
	}
}

// runStep drives a PrecompiledStep continuation, evaluating each child
// (expr, env) it requests as its own pushed frame and feeding the
// resulting Value back in.
func (ev *Evaluator) runStep(step PrecompiledStep, f *frame, rs *runState) (*value.Value, error) {
	var prior *value.Value
	for {
		childExpr, childEnv, done, result := step.Next(prior)
		if done {
			return result, nil
		}
		comp := ev.compilationFor(childExpr)
		instrs := comp.SelectInstructionsForEnvironment(childEnv)
		child := newFrame(childEnv, instrs, childExpr, expr.Encode(childExpr))
		v, err := ev.runFrame(child, rs)
		if err != nil {
			return nil, err
		}
		f.subFrameCount++
		prior = v
	}
}
