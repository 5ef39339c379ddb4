// Package rules evaluates configurable billing rules written in CEL.
//
// A rule sees two variables: line (item, qty, rate, mrp, tax_rate,
// available) and doc (subtotal, tax, total, paid). Rules that mention line
// run once per line, the rest once per document.
package rules

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"

	"pharmacy/internal/core/apperror"
)

// Rule is a named boolean expression that must hold.
type Rule struct {
	Name string
	Expr string
}

// Defaults are always applied to invoices.
var Defaults = []Rule{
	{Name: "rate_within_mrp", Expr: "line.mrp == 0.0 || line.rate <= line.mrp"},
	{Name: "positive_quantity", Expr: "line.qty > 0"},
	{Name: "paid_within_total", Expr: "doc.paid <= doc.total"},
}

// Line is the per-line input.
type Line struct {
	Item      string
	Qty       int64
	Rate      decimal.Decimal
	MRP       decimal.Decimal
	TaxRate   decimal.Decimal
	Available int64
}

// Doc is the document input.
type Doc struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Paid     decimal.Decimal
}

type compiled struct {
	Rule
	perLine bool
	prg     cel.Program
}

// Engine holds compiled rules.
type Engine struct {
	rules []compiled
}

// NewEngine compiles rules. A rule that does not compile or is not boolean
// is an error.
func NewEngine(rules ...Rule) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("line", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	e := &Engine{}
	for _, r := range rules {
		ast, iss := env.Compile(r.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, iss.Err())
		}
		if t := ast.OutputType(); !t.IsAssignableType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s: result must be bool, got %s", r.Name, t)
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		e.rules = append(e.rules, compiled{
			Rule:    r,
			perLine: strings.Contains(r.Expr, "line."),
			prg:     prg,
		})
	}
	return e, nil
}

// NewDefault compiles Defaults plus extra.
func NewDefault(extra ...Rule) (*Engine, error) {
	return NewEngine(append(append([]Rule(nil), Defaults...), extra...)...)
}

// Names lists the loaded rules.
func (e *Engine) Names() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// Check evaluates every rule. The first violation is returned as a
// validation error naming the rule and, for line rules, the line number.
func (e *Engine) Check(doc Doc, lines []Line) error {
	docVars := map[string]any{
		"subtotal": toFloat(doc.Subtotal),
		"tax":      toFloat(doc.Tax),
		"total":    toFloat(doc.Total),
		"paid":     toFloat(doc.Paid),
	}

	for _, r := range e.rules {
		if !r.perLine {
			if err := r.eval(docVars, map[string]any{}, 0); err != nil {
				return err
			}
			continue
		}
		for i, l := range lines {
			lineVars := map[string]any{
				"item":      l.Item,
				"qty":       l.Qty,
				"rate":      toFloat(l.Rate),
				"mrp":       toFloat(l.MRP),
				"tax_rate":  toFloat(l.TaxRate),
				"available": l.Available,
			}
			if err := r.eval(docVars, lineVars, i+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r compiled) eval(doc, line map[string]any, lineNo int) error {
	out, _, err := r.prg.Eval(map[string]any{"doc": doc, "line": line})
	if err != nil {
		return apperror.NewValidation(fmt.Sprintf("rule %s could not be evaluated: %v", r.Name, err)).
			WithDetail("rule", r.Name)
	}
	ok, isBool := out.Value().(bool)
	if isBool && ok {
		return nil
	}

	msg := "billing rule " + r.Name + " violated"
	appErr := apperror.NewValidation(msg).WithDetail("rule", r.Name)
	if lineNo > 0 {
		appErr = apperror.NewValidation(fmt.Sprintf("line %d: %s", lineNo, msg)).
			WithDetail("rule", r.Name).
			WithDetail("lineNo", lineNo)
	}
	return appErr
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Parse reads "name=expr;name2=expr2". Blank entries are skipped.
func Parse(s string) ([]Rule, error) {
	var out []Rule
	seen := map[string]struct{}{}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, expr, ok := strings.Cut(part, "=")
		name, expr = strings.TrimSpace(name), strings.TrimSpace(expr)
		if !ok || name == "" || expr == "" {
			return nil, fmt.Errorf("invalid rule %q, want name=expr", part)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate rule %q", name)
		}
		seen[name] = struct{}{}
		out = append(out, Rule{Name: name, Expr: expr})
	}
	return out, nil
}
