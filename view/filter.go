package view

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/zeebo/errs/v2"

	"loov.dev/eventview/trace"
)

// DefaultMinDuration hides top-level events shorter than 3ms.
const DefaultMinDuration trace.Time = 3

// Filter decides whether an existing row is shown. Annotation flags and the
// aggregate of node are computed before Visible is called.
type Filter interface {
	Visible(node *trace.Node) bool
}

// MinDuration shows nodes lasting at least the given time.
type MinDuration trace.Time

func (min MinDuration) Visible(node *trace.Node) bool {
	return node.Duration >= trace.Time(min)
}

// All shows a node only when every filter does.
type All []Filter

func (all All) Visible(node *trace.Node) bool {
	for _, f := range all {
		if f != nil && !f.Visible(node) {
			return false
		}
	}
	return true
}

// Expr is a filter written as a CEL expression over the variables
// type, duration, start, self, annotated, logs and children.
type Expr struct {
	source  string
	program cel.Program
}

var exprEnv = func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("type", cel.StringType),
		cel.Variable("duration", cel.DoubleType),
		cel.Variable("start", cel.DoubleType),
		cel.Variable("self", cel.DoubleType),
		cel.Variable("annotated", cel.BoolType),
		cel.Variable("logs", cel.BoolType),
		cel.Variable("children", cel.IntType),
	)
	if err != nil {
		panic(err)
	}
	return env
}()

// CompileExpr compiles a boolean CEL expression, for example
//
//	type == "Paint" && duration > 5.0
func CompileExpr(source string) (*Expr, error) {
	ast, issues := exprEnv.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, errs.Errorf("filter %q: %w", source, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errs.Errorf("filter %q: result is %v, expected bool", source, ast.OutputType())
	}
	program, err := exprEnv.Program(ast)
	if err != nil {
		return nil, errs.Errorf("filter %q: %w", source, err)
	}
	return &Expr{source: source, program: program}, nil
}

func (expr *Expr) String() string { return expr.source }

// Visible evaluates the expression; evaluation errors hide the node.
func (expr *Expr) Visible(node *trace.Node) bool {
	ok, err := expr.Eval(node)
	return err == nil && ok
}

// Eval evaluates the expression against node.
func (expr *Expr) Eval(node *trace.Node) (bool, error) {
	var self trace.Time
	if agg, ok := node.Aggregate(); ok {
		self = agg[node.Type]
	}
	out, _, err := expr.program.Eval(map[string]any{
		"type":      node.Type.String(),
		"duration":  float64(node.Duration),
		"start":     float64(node.Start),
		"self":      float64(self),
		"annotated": node.HasAnnotations(),
		"logs":      node.HasLogs(),
		"children":  int64(len(node.Children)),
	})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expr.source, err)
	}
	visible, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: result not boolean", expr.source)
	}
	return visible, nil
}
