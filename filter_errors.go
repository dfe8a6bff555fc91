package settings

import (
	"errors"
	"fmt"
	"strings"
)

// FilterError captures expression-filter metadata alongside the originating
// error.
type FilterError struct {
	Engine string
	Expr   string
	Hook   string
	Err    error
}

func (e *FilterError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("settings: %s filter %s hook=%s: %v", e.Engine, describeExpression(e.Expr), e.Hook, e.Err)
}

func (e *FilterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEngineError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var filterErr *FilterError
	if errors.As(err, &filterErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "settings:") {
		return err
	}
	return fmt.Errorf("settings: %s filter: %w", engine, err)
}

func wrapFilterError(engine, expr, hook string, err error) error {
	if err == nil {
		return nil
	}

	var filterErr *FilterError
	if errors.As(err, &filterErr) {
		if filterErr.Engine == "" {
			filterErr.Engine = engine
		}
		if filterErr.Expr == "" {
			filterErr.Expr = expr
		}
		if filterErr.Hook == "" {
			filterErr.Hook = hook
		}
		return filterErr
	}

	return &FilterError{
		Engine: engine,
		Expr:   expr,
		Hook:   hook,
		Err:    err,
	}
}
