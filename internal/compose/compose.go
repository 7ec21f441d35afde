// Package compose builds binding expressions over registered symbols:
// alternatives that fall back when the preferred symbol stays latent,
// sequences that stop at the first latent step, and parallel groups
// that only succeed when every member binds.
//
//	resilient := compose.Sym("primary").Or(compose.Sym("fallback"))
//	sequential := compose.Sym("gate").Then(compose.Sym("action"))
//	parallel := compose.All(compose.Sym("a"), compose.Sym("b"))
//	res, err := resilient.TryBind(eng, ctx)
package compose

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/latch/internal/engine"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region result
// Status is the outcome of evaluating a binding expression.
type Status string

const (
	StatusBound  Status = "bound"
	StatusLatent Status = "latent"
)

// Result carries the outcome of one expression evaluation. Bound is
// the activation that decided the outcome (the last one for parallel
// groups, which also fill BoundAll). Source names the symbol that
// stayed latent.
type Result struct {
	Status   Status
	Bound    *symbol.BoundSymbol
	BoundAll []symbol.BoundSymbol
	Source   string
}

// IsBound reports whether the expression bound.
func (r Result) IsBound() bool {
	return r.Status == StatusBound
}

func success(bound symbol.BoundSymbol) Result {
	return Result{Status: StatusBound, Bound: &bound}
}

func successAll(bound []symbol.BoundSymbol) Result {
	last := bound[len(bound)-1]
	return Result{Status: StatusBound, Bound: &last, BoundAll: bound}
}

func stillLatent(id string) Result {
	return Result{Status: StatusLatent, Source: id}
}

// #endregion result

// #region expr
type node interface {
	bind(e *engine.Engine, ctx symbol.Context) (Result, error)
	fmt.Stringer
}

// Expr is a composable binding expression.
type Expr struct {
	n node
}

// Sym wraps one registered symbol by id.
func Sym(id string) Expr {
	return Expr{n: symNode(id)}
}

// Or tries the receiver first and falls back to other when it stays
// latent.
func (x Expr) Or(other Expr) Expr {
	return Expr{n: altNode{left: x.n, right: other.n}}
}

// Then attempts other only after the receiver binds.
func (x Expr) Then(other Expr) Expr {
	return Expr{n: seqNode{left: x.n, right: other.n}}
}

// And groups the receiver with other; the group binds only when every
// member binds. Chained And calls extend the same group.
func (x Expr) And(other Expr) Expr {
	if p, ok := x.n.(parNode); ok {
		return Expr{n: parNode(append(append([]node(nil), p...), other.n))}
	}
	return Expr{n: parNode{x.n, other.n}}
}

// All groups any number of expressions in parallel.
func All(xs ...Expr) Expr {
	items := make(parNode, len(xs))
	for i, x := range xs {
		items[i] = x.n
	}
	return Expr{n: items}
}

// TryBind evaluates the expression against the engine. Every symbol
// attempt goes through the engine's normal bind path, so the audit
// trail records each one.
func (x Expr) TryBind(e *engine.Engine, ctx symbol.Context) (Result, error) {
	if x.n == nil {
		return Result{Status: StatusLatent}, nil
	}
	return x.n.bind(e, ctx)
}

// String renders the expression structure.
func (x Expr) String() string {
	if x.n == nil {
		return "()"
	}
	return x.n.String()
}

// #endregion expr

// #region nodes
type symNode string

func (s symNode) bind(e *engine.Engine, ctx symbol.Context) (Result, error) {
	bound, err := e.Bind(string(s), ctx)
	if err != nil {
		return Result{}, err
	}
	if bound != nil {
		return success(*bound), nil
	}
	return stillLatent(string(s)), nil
}

func (s symNode) String() string { return string(s) }

type altNode struct {
	left, right node
}

func (a altNode) bind(e *engine.Engine, ctx symbol.Context) (Result, error) {
	res, err := a.left.bind(e, ctx)
	if err != nil || res.IsBound() {
		return res, err
	}
	return a.right.bind(e, ctx)
}

func (a altNode) String() string {
	return fmt.Sprintf("(%s | %s)", a.left, a.right)
}

type seqNode struct {
	left, right node
}

func (s seqNode) bind(e *engine.Engine, ctx symbol.Context) (Result, error) {
	res, err := s.left.bind(e, ctx)
	if err != nil || !res.IsBound() {
		return res, err
	}
	return s.right.bind(e, ctx)
}

func (s seqNode) String() string {
	return fmt.Sprintf("(%s >> %s)", s.left, s.right)
}

type parNode []node

// bind evaluates every member before deciding, so each latent member
// still leaves its audit entry. On success Bound is the last member's
// activation; otherwise the first latent member's result comes back.
func (p parNode) bind(e *engine.Engine, ctx symbol.Context) (Result, error) {
	if len(p) == 0 {
		return Result{Status: StatusLatent}, nil
	}
	results := make([]Result, len(p))
	for i, item := range p {
		res, err := item.bind(e, ctx)
		if err != nil {
			return res, err
		}
		results[i] = res
	}

	var bound []symbol.BoundSymbol
	allBound := true
	for _, r := range results {
		if !r.IsBound() {
			allBound = false
			continue
		}
		if r.BoundAll != nil {
			bound = append(bound, r.BoundAll...)
		} else if r.Bound != nil {
			bound = append(bound, *r.Bound)
		}
	}
	if allBound && len(bound) > 0 {
		return successAll(bound), nil
	}
	for _, r := range results {
		if !r.IsBound() {
			return r, nil
		}
	}
	return results[0], nil
}

func (p parNode) String() string {
	parts := make([]string, len(p))
	for i, item := range p {
		parts[i] = item.String()
	}
	return "(" + strings.Join(parts, " & ") + ")"
}

// #endregion nodes
