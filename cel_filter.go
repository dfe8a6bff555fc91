package settings

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELFilterOption configures a CEL-backed filter instance.
type CELFilterOption func(*celFilter)

// CELWithProgramCache wires a ProgramCache into the CEL filter.
func CELWithProgramCache(cache ProgramCache) CELFilterOption {
	return func(f *celFilter) {
		f.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL filter.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELFilterOption {
	return func(f *celFilter) {
		if registry == nil {
			return
		}
		f.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celFilter struct {
	expression string
	cache      ProgramCache
	registry   *FunctionRegistry
}

// NewCELFilter constructs a Filter backed by cel-go. The expression sees the
// same bindings as the expr engine: value, key, hook, args, now, metadata.
func NewCELFilter(expression string, opts ...CELFilterOption) Filter {
	f := &celFilter{expression: expression}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *celFilter) Apply(ctx FilterContext, value any) (any, error) {
	if f.expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	program, err := f.loadOrCompile(ctx)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(f.activation(ctx, value))
	if err != nil {
		return nil, wrapFilterError("cel", f.expression, ctx.hookLabel(), err)
	}
	return out.Value(), nil
}

func (f *celFilter) loadOrCompile(ctx FilterContext) (*celProgram, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(f.expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := f.buildEnv()
	if err != nil {
		return nil, wrapFilterError("cel", f.expression, ctx.hookLabel(), err)
	}
	ast, issues := env.Parse(f.expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapFilterError("cel", f.expression, ctx.hookLabel(), issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, wrapFilterError("cel", f.expression, ctx.hookLabel(), issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, wrapFilterError("cel", f.expression, ctx.hookLabel(), err)
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if f.cache != nil {
		f.cache.Set(f.expression, bundle)
	}
	return bundle, nil
}

func (f *celFilter) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("value", celgo.DynType),
		celgo.Variable("key", celgo.StringType),
		celgo.Variable("hook", celgo.StringType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("metadata", celgo.DynType),
	}
	if f.registry != nil {
		// CEL overloads have no varargs: call takes the function name and an
		// explicit argument list, call("name", [arg1, arg2]).
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.FunctionBinding(f.callBinding()),
		)))
	}
	return celgo.NewEnv(opts...)
}

func (f *celFilter) activation(ctx FilterContext, value any) map[string]any {
	return map[string]any{
		"value":    value,
		"key":      ctx.Key,
		"hook":     ctx.Hook,
		"args":     ctx.Args,
		"now":      ctx.timestamp(),
		"metadata": ctx.Metadata,
	}
}

func (f *celFilter) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if f.registry == nil {
			return types.NewErr("settings: function registry not configured")
		}
		if len(values) != 2 {
			return types.NewErr("settings: call requires a name and an argument list")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("settings: call name must be string")
		}
		list, ok := values[1].(traits.Lister)
		if !ok {
			return types.NewErr("settings: call arguments must be a list")
		}
		size, ok := list.Size().(types.Int)
		if !ok {
			return types.NewErr("settings: call argument list has no size")
		}
		args := make([]any, 0, int(size))
		for i := types.Int(0); i < size; i++ {
			args = append(args, list.Get(i).Value())
		}
		result, err := f.registry.Call(name, args...)
		if err != nil {
			return types.WrapErr(err)
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
