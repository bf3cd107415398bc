package eval

import (
	"sync"

	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/value"
)

// CacheKey identifies a (ExpressionValue, EnvironmentValue) pair by
// content hash, the eval cache's lookup key (spec §4.5, §5's "Eval cache:
// optional, caller-provided"). The Evaluator's parse cache is keyed by the
// expression value's hash alone.
type CacheKey struct {
	ExprHash [32]byte
	EnvHash  [32]byte
}

func keyFor(exprVal, env *value.Value) CacheKey {
	return CacheKey{ExprHash: exprVal.Hash(), EnvHash: env.Hash()}
}

// EvalCache maps (ExpressionValue, EnvironmentValue) to the ReturnValue a
// frame for that pair previously produced. It must be safe for concurrent
// get/insert when shared across Evaluators (spec §5); MapEvalCache is the
// default in-process implementation, but a host may supply any
// implementation via InstallEvalCache.
type EvalCache interface {
	Get(key CacheKey) (*value.Value, bool)
	Insert(key CacheKey, result *value.Value)
}

// MapEvalCache is a mutex-guarded map-backed EvalCache a host can pass to
// InstallEvalCache. A new Evaluator has no eval cache until one is
// installed.
type MapEvalCache struct {
	mu sync.Mutex
	m  map[CacheKey]*value.Value
}

// NewMapEvalCache returns an empty MapEvalCache.
func NewMapEvalCache() *MapEvalCache {
	return &MapEvalCache{m: make(map[CacheKey]*value.Value)}
}

func (c *MapEvalCache) Get(key CacheKey) (*value.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *MapEvalCache) Insert(key CacheKey, result *value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = result
}

// OverrideFn is a host-supplied replacement for evaluating a specific
// expression: given the environment it would have been evaluated
// against, it returns the Value the evaluator should use instead of
// recursing into the expression (spec §4.5's override table).
type OverrideFn func(env *value.Value) *value.Value

// OverrideTable maps an ExpressionValue's hash to the OverrideFn a host
// registered for it via InstallOverrideTable.
type OverrideTable map[[32]byte]OverrideFn

// Lookup reports the override registered for exprVal, if any.
func (t OverrideTable) Lookup(exprVal *value.Value) (OverrideFn, bool) {
	fn, ok := t[exprVal.Hash()]
	return fn, ok
}

// PrecompiledOutcome is the result of dispatching a (parsed Expression,
// environment) pair to a PrecompiledDispatch registry (spec §4.5's three
// variants): exactly one of Value, Reenter or Step is meaningful,
// selected by Kind.
type PrecompiledOutcome struct {
	Kind PrecompiledKind

	// Kind == PrecompiledValue
	Value         *value.Value
	SubFrameCount int

	// Kind == PrecompiledReenter
	ReenterExpr expr.Expr
	ReenterEnv  *value.Value

	// Kind == PrecompiledStep
	Step PrecompiledStep
}

// PrecompiledKind discriminates PrecompiledOutcome's three shapes.
type PrecompiledKind int

const (
	// PrecompiledValue carries a final Value plus a synthetic sub-frame
	// count, accounted for so cache-insert heuristics remain valid even
	// though no real frame ran.
	PrecompiledValue PrecompiledKind = iota
	// PrecompiledReenter carries a new (expressionValue, environmentValue)
	// to re-enter with, modelling a tail-call-like chain without
	// growing the evaluator's own call depth.
	PrecompiledReenter
	// PrecompiledStep carries a stepwise continuation that itself needs
	// to invoke other expressions as child frames.
	PrecompiledStep
)

// PrecompiledStep drives a specialization that needs the results of one
// or more child evaluations before it can produce its own. Next is
// called first with prior == nil; each subsequent call passes the return
// value of the child (childExpr, childEnv) the previous call requested.
// Once done is true, result holds the step's final Value.
type PrecompiledStep interface {
	Next(prior *value.Value) (childExpr expr.Expr, childEnv *value.Value, done bool, result *value.Value)
}

// PrecompiledDispatch is consulted before a dynamic ParseAndEval would
// otherwise parse Encoded and push a fresh frame (spec §4.5).
type PrecompiledDispatch interface {
	Dispatch(e expr.Expr, env *value.Value) (PrecompiledOutcome, bool)
}

// MapPrecompiledDispatch is a map-backed PrecompiledDispatch keyed by the
// candidate expression's structural hash, which a host can pass to
// InstallPrecompiled. A new Evaluator has no precompiled dispatch until
// one is installed.
type MapPrecompiledDispatch map[[32]byte]func(env *value.Value) (PrecompiledOutcome, bool)

func (m MapPrecompiledDispatch) Dispatch(e expr.Expr, env *value.Value) (PrecompiledOutcome, bool) {
	fn, ok := m[expr.Hash(e)]
	if !ok {
		return PrecompiledOutcome{}, false
	}
	return fn(env)
}
