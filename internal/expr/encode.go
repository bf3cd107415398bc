package expr

import (
	"fmt"

	"github.com/pine-vm/pine/internal/value"
)

const (
	tagLiteral           = "Literal"
	tagList              = "List"
	tagEnvironment       = "Environment"
	tagKernelApplication = "KernelApplication"
	tagConditional       = "Conditional"
	tagParseAndEval      = "ParseAndEval"
	tagStringTag         = "StringTag"
)

// Encode renders e as the fixed tagged Value form spec'd for the IR: a
// two-element list [tag_name_string, body]. Encode is only ever called on
// the public variants a producer can construct; calling it on a
// lowerer-internal variant (StackReference, SkipHeadPath, EqualTwo) is a
// programmer error since those never escape the evaluator, so it panics
// rather than returning an error a caller might silently ignore.
func Encode(e Expr) *value.Value {
	switch n := e.(type) {
	case Literal:
		return tagged(tagLiteral, n.Value)
	case List:
		items := make([]*value.Value, len(n.Items))
		for i, it := range n.Items {
			items[i] = Encode(it)
		}
		return tagged(tagList, value.NewList(items))
	case Environment:
		return tagged(tagEnvironment, value.EmptyList)
	case KernelApplication:
		return tagged(tagKernelApplication, fields(
			field{"name", value.FromString(n.Name)},
			field{"arg", Encode(n.Arg)},
		))
	case Conditional:
		return tagged(tagConditional, value.NewList([]*value.Value{
			Encode(n.Cond), Encode(n.IfTrue), Encode(n.IfFalse),
		}))
	case ParseAndEval:
		return tagged(tagParseAndEval, fields(
			field{"encoded", Encode(n.Encoded)},
			field{"env", Encode(n.Env)},
		))
	case StringTag:
		return tagged(tagStringTag, value.NewList([]*value.Value{
			value.FromString(n.Tag), Encode(n.Inner),
		}))
	default:
		panic(fmt.Sprintf("expr: cannot encode interpreter-internal node %T", e))
	}
}

func tagged(tag string, body *value.Value) *value.Value {
	return value.NewList([]*value.Value{value.FromString(tag), body})
}

type field struct {
	name string
	val  *value.Value
}

func fields(fs ...field) *value.Value {
	items := make([]*value.Value, len(fs))
	for i, f := range fs {
		items[i] = value.NewList([]*value.Value{value.FromString(f.name), f.val})
	}
	return value.NewList(items)
}

// decodeFields parses a field-list body (a list of [name, value] pairs in
// any order) into a map, rejecting malformed pairs. It does not reject
// unknown field names itself — callers check for the exact field set they
// expect, which is what rejects both missing and unknown fields.
func decodeFields(body *value.Value) (map[string]*value.Value, error) {
	if body == nil || !body.IsList() {
		return nil, fmt.Errorf("expr: field list is not a list")
	}
	out := make(map[string]*value.Value, body.Len())
	for i, pair := range body.Items() {
		if !pair.IsList() || pair.Len() != 2 {
			return nil, fmt.Errorf("expr: field %d is not a [name, value] pair", i)
		}
		name, err := value.ToString(pair.Items()[0])
		if err != nil {
			return nil, fmt.Errorf("expr: field %d name is not a string: %w", i, err)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("expr: duplicate field %q", name)
		}
		out[name] = pair.Items()[1]
	}
	return out, nil
}

func requireFields(body *value.Value, names ...string) (map[string]*value.Value, error) {
	m, err := decodeFields(body)
	if err != nil {
		return nil, err
	}
	if len(m) != len(names) {
		return nil, fmt.Errorf("expr: expected exactly %d field(s), got %d", len(names), len(m))
	}
	for _, n := range names {
		if _, ok := m[n]; !ok {
			return nil, fmt.Errorf("expr: missing required field %q", n)
		}
	}
	return m, nil
}

// KernelNameValid is supplied by the caller of Parse to validate a
// KernelApplication's kernel name at parse time (spec's UnknownKernel is
// "raised only at parse time; at runtime all kernels are resolved").
// Decoupling Parse from a concrete kernel registry keeps package expr
// free of a dependency on package kernel.
type KernelNameValid func(name string) bool

// Parse decodes v back into an Expr, the inverse of Encode. It rejects
// any value that isn't exactly a well-formed two-element
// [tag_name_string, body] list, any unknown tag, any field list missing a
// required field or carrying an extra one, and (via knownKernel) any
// KernelApplication naming an unregistered kernel.
func Parse(v *value.Value, knownKernel KernelNameValid) (Expr, error) {
	if v == nil || !v.IsList() || v.Len() != 2 {
		return nil, fmt.Errorf("expr: not a [tag, body] pair")
	}
	tag, err := value.ToString(v.Items()[0])
	if err != nil {
		return nil, fmt.Errorf("expr: tag is not a string: %w", err)
	}
	body := v.Items()[1]

	switch tag {
	case tagLiteral:
		return Literal{Value: body}, nil
	case tagList:
		if !body.IsList() {
			return nil, fmt.Errorf("expr: List body is not a list")
		}
		items := make([]Expr, body.Len())
		for i, it := range body.Items() {
			parsed, err := Parse(it, knownKernel)
			if err != nil {
				return nil, fmt.Errorf("expr: List item %d: %w", i, err)
			}
			items[i] = parsed
		}
		return List{Items: items}, nil
	case tagEnvironment:
		return Environment{}, nil
	case tagKernelApplication:
		m, err := requireFields(body, "name", "arg")
		if err != nil {
			return nil, fmt.Errorf("expr: KernelApplication: %w", err)
		}
		name, err := value.ToString(m["name"])
		if err != nil {
			return nil, fmt.Errorf("expr: KernelApplication name: %w", err)
		}
		if knownKernel != nil && !knownKernel(name) {
			return nil, &UnknownKernelError{Name: name}
		}
		arg, err := Parse(m["arg"], knownKernel)
		if err != nil {
			return nil, fmt.Errorf("expr: KernelApplication arg: %w", err)
		}
		return KernelApplication{Name: name, Arg: arg}, nil
	case tagConditional:
		if !body.IsList() || body.Len() != 3 {
			return nil, fmt.Errorf("expr: Conditional body is not a 3-element list")
		}
		cond, err := Parse(body.Items()[0], knownKernel)
		if err != nil {
			return nil, fmt.Errorf("expr: Conditional cond: %w", err)
		}
		ifTrue, err := Parse(body.Items()[1], knownKernel)
		if err != nil {
			return nil, fmt.Errorf("expr: Conditional ifTrue: %w", err)
		}
		ifFalse, err := Parse(body.Items()[2], knownKernel)
		if err != nil {
			return nil, fmt.Errorf("expr: Conditional ifFalse: %w", err)
		}
		return Conditional{Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse}, nil
	case tagParseAndEval:
		m, err := requireFields(body, "encoded", "env")
		if err != nil {
			return nil, fmt.Errorf("expr: ParseAndEval: %w", err)
		}
		encoded, err := Parse(m["encoded"], knownKernel)
		if err != nil {
			return nil, fmt.Errorf("expr: ParseAndEval encoded: %w", err)
		}
		env, err := Parse(m["env"], knownKernel)
		if err != nil {
			return nil, fmt.Errorf("expr: ParseAndEval env: %w", err)
		}
		return ParseAndEval{Encoded: encoded, Env: env}, nil
	case tagStringTag:
		if !body.IsList() || body.Len() != 2 {
			return nil, fmt.Errorf("expr: StringTag body is not a 2-element list")
		}
		tagStr, err := value.ToString(body.Items()[0])
		if err != nil {
			return nil, fmt.Errorf("expr: StringTag tag: %w", err)
		}
		inner, err := Parse(body.Items()[1], knownKernel)
		if err != nil {
			return nil, fmt.Errorf("expr: StringTag inner: %w", err)
		}
		return StringTag{Tag: tagStr, Inner: inner}, nil
	default:
		return nil, &UnknownTagError{Tag: tag}
	}
}

// UnknownTagError is returned by Parse when a value's tag doesn't name
// any known Expr variant.
type UnknownTagError struct{ Tag string }

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("expr: unknown expression tag %q", e.Tag)
}

// UnknownKernelError is returned by Parse when a KernelApplication names
// a kernel the supplied KernelNameValid rejects.
type UnknownKernelError struct{ Name string }

func (e *UnknownKernelError) Error() string {
	return fmt.Sprintf("expr: unknown kernel %q", e.Name)
}
