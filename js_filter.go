//go:build js_filters

package settings

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsFilter rewrites hook values using a goja JavaScript expression. The
// expression sees value, key, hook, args, now, and metadata globals.
type jsFilter struct {
	expression string
	cache      ProgramCache
	registry   *FunctionRegistry
}

// NewJSFilter constructs a Filter backed by goja.
func NewJSFilter(expression string, opts ...JSFilterOption) Filter {
	cfg := applyJSFilterOptions(opts)
	return &jsFilter{
		expression: expression,
		cache:      cfg.cache,
		registry:   cfg.registry,
	}
}

func (f *jsFilter) Apply(ctx FilterContext, value any) (any, error) {
	if f.expression == "" {
		return nil, wrapEngineError("js", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	if f.cache == nil {
		return f.run(ctx, value, nil)
	}
	program, err := f.loadOrCompile(ctx)
	if err != nil {
		return nil, err
	}
	return f.run(ctx, value, program)
}

func (f *jsFilter) loadOrCompile(ctx FilterContext) (*goja.Program, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(f.expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", f.wrapExpression(), false)
	if err != nil {
		return nil, wrapFilterError("js", f.expression, ctx.hookLabel(), err)
	}
	if f.cache != nil {
		f.cache.Set(f.expression, program)
	}
	return program, nil
}

func (f *jsFilter) run(ctx FilterContext, value any, program *goja.Program) (any, error) {
	vm := goja.New()
	f.injectContext(vm, ctx, value)
	if program != nil {
		result, err := vm.RunProgram(program)
		if err != nil {
			return nil, wrapFilterError("js", f.expression, ctx.hookLabel(), err)
		}
		return result.Export(), nil
	}
	result, err := vm.RunString(f.wrapExpression())
	if err != nil {
		return nil, wrapFilterError("js", f.expression, ctx.hookLabel(), err)
	}
	return result.Export(), nil
}

func (f *jsFilter) injectContext(vm *goja.Runtime, ctx FilterContext, value any) {
	vm.Set("value", value)
	vm.Set("key", ctx.Key)
	vm.Set("hook", ctx.Hook)
	vm.Set("args", ctx.Args)
	vm.Set("now", ctx.timestamp())
	vm.Set("metadata", ctx.Metadata)
	if f.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return f.registry.Call(name, arguments...)
		})
		for _, name := range f.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return f.registry.Call(fn, arguments...)
			})
		}
	}
}

func (f *jsFilter) wrapExpression() string {
	return fmt.Sprintf("(function(){ return (%s); })()", f.expression)
}

func jsFiltersAvailable() bool {
	return true
}
