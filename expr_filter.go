package settings

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprFilterOption configures an expr-backed filter instance.
type ExprFilterOption func(*exprFilter)

// ExprWithProgramCache wires a ProgramCache into the expr filter.
func ExprWithProgramCache(cache ProgramCache) ExprFilterOption {
	return func(f *exprFilter) {
		f.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr filter.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprFilterOption {
	return func(f *exprFilter) {
		if registry == nil {
			return
		}
		f.registry = registry.Clone()
	}
}

// exprFilter rewrites hook values using github.com/expr-lang/expr. The
// expression sees value, key, hook, args, now, and metadata bindings and its
// result becomes the filtered value.
type exprFilter struct {
	expression string
	cache      ProgramCache
	registry   *FunctionRegistry
}

// NewExprFilter constructs a Filter backed by expr-lang/expr.
func NewExprFilter(expression string, opts ...ExprFilterOption) Filter {
	f := &exprFilter{expression: expression}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Apply compiles and runs the filter expression against value.
func (f *exprFilter) Apply(ctx FilterContext, value any) (any, error) {
	if f.expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	env := f.environment(ctx, value)
	if f.cache == nil {
		result, err := exprlang.Eval(f.expression, env)
		if err != nil {
			return nil, wrapFilterError("expr", f.expression, ctx.hookLabel(), err)
		}
		return result, nil
	}
	program, err := f.loadOrCompile(ctx)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapFilterError("expr", f.expression, ctx.hookLabel(), err)
	}
	return result, nil
}

func (f *exprFilter) loadOrCompile(ctx FilterContext) (*exprvm.Program, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(f.expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range f.registryNames() {
		fn := f.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(f.expression, options...)
	if err != nil {
		return nil, wrapFilterError("expr", f.expression, ctx.hookLabel(), err)
	}
	if f.cache != nil {
		f.cache.Set(f.expression, program)
	}
	return program, nil
}

func (f *exprFilter) environment(ctx FilterContext, value any) map[string]any {
	env := map[string]any{
		"value":    value,
		"key":      ctx.Key,
		"hook":     ctx.Hook,
		"args":     ctx.Args,
		"now":      ctx.timestamp(),
		"metadata": ctx.Metadata,
	}
	if f.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return f.registry.Call(name, arguments...)
		}
		for _, name := range f.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return f.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (f *exprFilter) registryNames() []string {
	if f == nil || f.registry == nil {
		return nil
	}
	return f.registry.Names()
}

func (f *exprFilter) registryFunction(name string) func(...any) (any, error) {
	if f == nil || f.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return f.registry.Call(name, arguments...)
	}
}
