package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pine-vm/pine/internal/expr"
	"github.com/pine-vm/pine/internal/value"
)

// exprtext is a tiny S-expression notation the CLI reads expressions and
// environments from. It is a debugging convenience, not a language
// surface: Pine has no concrete syntax (spec's IR is the only input
// form an evaluating host ever sees), so there is nothing here for a
// lexer/parser library to help with beyond what a short hand-rolled
// reader already does.
//
// Grammar:
//
//	value  := int | "0x" hex | "(" value* ")"
//	expr   := value                          ; bare value => Literal
//	        | "(" "env" ")"
//	        | "(" "list" expr* ")"
//	        | "(" "kernel" name expr ")"
//	        | "(" "if" expr expr expr ")"
//	        | "(" "pe" expr expr ")"          ; ParseAndEval
//	        | "(" "tag" name expr ")"         ; StringTag
type exprReader struct {
	tokens []string
	pos    int
}

func tokenize(s string) []string {
	s = strings.ReplaceAll(s, "(", " ( ")
	s = strings.ReplaceAll(s, ")", " ) ")
	return strings.Fields(s)
}

func newExprReader(s string) *exprReader {
	return &exprReader{tokens: tokenize(s)}
}

func (r *exprReader) peek() (string, bool) {
	if r.pos >= len(r.tokens) {
		return "", false
	}
	return r.tokens[r.pos], true
}

func (r *exprReader) next() (string, error) {
	tok, ok := r.peek()
	if !ok {
		return "", fmt.Errorf("exprtext: unexpected end of input")
	}
	r.pos++
	return tok, nil
}

func (r *exprReader) expect(tok string) error {
	got, err := r.next()
	if err != nil {
		return err
	}
	if got != tok {
		return fmt.Errorf("exprtext: expected %q, got %q", tok, got)
	}
	return nil
}

// parseExprText reads a single expression from s.
func parseExprText(s string) (expr.Expr, error) {
	r := newExprReader(s)
	e, err := r.readExpr()
	if err != nil {
		return nil, err
	}
	if r.pos != len(r.tokens) {
		return nil, fmt.Errorf("exprtext: trailing input after expression")
	}
	return e, nil
}

func (r *exprReader) readExpr() (expr.Expr, error) {
	tok, ok := r.peek()
	if !ok {
		return nil, fmt.Errorf("exprtext: unexpected end of input")
	}
	if tok != "(" {
		v, err := r.readAtomValue()
		if err != nil {
			return nil, err
		}
		return expr.Literal{Value: v}, nil
	}

	// Look ahead past "(" to the form's keyword, if any, falling back to
	// treating the whole form as a literal Value (a List literal).
	save := r.pos
	r.pos++ // consume "("
	head, ok := r.peek()
	if !ok {
		return nil, fmt.Errorf("exprtext: unexpected end of input after (")
	}
	switch head {
	case "env":
		r.pos++
		if err := r.expect(")"); err != nil {
			return nil, err
		}
		return expr.Environment{}, nil
	case "list":
		r.pos++
		var items []expr.Expr
		for {
			tok, ok := r.peek()
			if !ok {
				return nil, fmt.Errorf("exprtext: unterminated list")
			}
			if tok == ")" {
				r.pos++
				break
			}
			e, err := r.readExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		return expr.List{Items: items}, nil
	case "kernel":
		r.pos++
		name, err := r.next()
		if err != nil {
			return nil, err
		}
		arg, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		if err := r.expect(")"); err != nil {
			return nil, err
		}
		return expr.KernelApplication{Name: name, Arg: arg}, nil
	case "if":
		r.pos++
		cond, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		ifTrue, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		ifFalse, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		if err := r.expect(")"); err != nil {
			return nil, err
		}
		return expr.Conditional{Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse}, nil
	case "pe":
		r.pos++
		encoded, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		env, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		if err := r.expect(")"); err != nil {
			return nil, err
		}
		return expr.ParseAndEval{Encoded: encoded, Env: env}, nil
	case "tag":
		r.pos++
		name, err := r.next()
		if err != nil {
			return nil, err
		}
		inner, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		if err := r.expect(")"); err != nil {
			return nil, err
		}
		return expr.StringTag{Tag: name, Inner: inner}, nil
	default:
		// Not a recognized keyword: rewind and read the whole form as a
		// literal list-of-values instead.
		r.pos = save
		v, err := r.readAtomValue()
		if err != nil {
			return nil, err
		}
		return expr.Literal{Value: v}, nil
	}
}

func (r *exprReader) readAtomValue() (*value.Value, error) {
	tok, ok := r.peek()
	if !ok {
		return nil, fmt.Errorf("exprtext: unexpected end of input")
	}
	if tok != "(" {
		r.pos++
		return parseValueAtom(tok)
	}
	r.pos++
	var items []*value.Value
	for {
		tok, ok := r.peek()
		if !ok {
			return nil, fmt.Errorf("exprtext: unterminated value list")
		}
		if tok == ")" {
			r.pos++
			break
		}
		v, err := r.readAtomValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return value.NewList(items), nil
}

func parseValueAtom(tok string) (*value.Value, error) {
	if strings.HasPrefix(tok, "0x") {
		b, err := hexDecode(tok[2:])
		if err != nil {
			return nil, fmt.Errorf("exprtext: bad hex blob %q: %w", tok, err)
		}
		return value.NewBlob(b), nil
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("exprtext: not an integer or 0x-blob: %q", tok)
	}
	return value.FromInt64(n), nil
}

func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		b, err := strconv.ParseUint(s[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(b)
	}
	return out, nil
}
