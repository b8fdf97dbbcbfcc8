// Package blacklist implements the admission-control check the streaming
// controller runs before installing a connection watcher: a set of compiled
// CEL rules evaluated against the requesting client and event type, any one
// of which matching blocks the request with a 403. The approach mirrors the
// teacher's CEL-backed per-message filters, compiled once and evaluated per
// call, repurposed here to evaluate once per admission check.
package blacklist

import (
	"strings"

	"github.com/google/cel-go/cel"
)

// Rule is one blocked-application condition, e.g.
// `event_type == "orders.created" && client_id == "bad-actor"`.
type Rule struct {
	Expression string
	prog       cel.Program
}

// List evaluates a set of compiled rules against an admission request.
type List struct {
	rules []Rule
}

// Compile builds a List from the given rule expressions. An empty or nil
// expression set compiles to a List that never blocks.
func Compile(expressions []string) (*List, error) {
	env, err := cel.NewEnv(
		cel.Variable("event_type", cel.StringType),
		cel.Variable("client_id", cel.StringType),
	)
	if err != nil {
		return nil, err
	}
	l := &List{}
	for _, expr := range expressions {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		ast, iss := env.Parse(expr)
		if iss != nil && iss.Err() != nil {
			return nil, iss.Err()
		}
		checked, iss2 := env.Check(ast)
		if iss2 != nil && iss2.Err() != nil {
			return nil, iss2.Err()
		}
		prog, err := env.Program(checked)
		if err != nil {
			return nil, err
		}
		l.rules = append(l.rules, Rule{Expression: expr, prog: prog})
	}
	return l, nil
}

// Blocked reports whether any compiled rule matches the given client and
// event type. A rule evaluation error is treated as non-matching rather than
// blocking the request, since a malformed blacklist entry should not itself
// become a denial-of-service vector against legitimate clients.
func (l *List) Blocked(clientID, eventTypeName string) bool {
	if l == nil {
		return false
	}
	for _, r := range l.rules {
		out, _, err := r.prog.Eval(map[string]any{
			"event_type": eventTypeName,
			"client_id":  clientID,
		})
		if err != nil {
			continue
		}
		if b, ok := out.Value().(bool); ok && b {
			return true
		}
	}
	return false
}
