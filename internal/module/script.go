package module

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/dop251/goja"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/logger"
)

// Script loads CommonJS JavaScript modules (`module.exports = {...}`). Each
// file gets its own runtime; calls into a runtime are serialised.
//
// Promises returned by handlers are settled before the call returns, so
// `async` handlers work as long as everything they await is synchronous on
// the Go side (which every exposed API is).
type Script struct {
	log logger.Logger
}

// NewScript returns a script loader; console output goes to log.
func NewScript(log logger.Logger) *Script {
	return &Script{log: log}
}

func (s *Script) Extensions() []string { return []string{".js", ".cjs"} }

// Load runs the file once and converts its exports.
func (s *Script) Load(ctx context.Context, path string) (Export, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	rt := newRuntime(path, s.log.With("module", filepath.Base(path)))
	return rt.run(ctx, string(src))
}

// ScriptError is a JavaScript exception or rejection.
type ScriptError struct {
	Message string
	Stack   string
}

func (e *ScriptError) Error() string      { return e.Message }
func (e *ScriptError) StackTrace() string { return e.Stack }

type runtime struct {
	mu   sync.Mutex
	vm   *goja.Runtime
	path string
	log  logger.Logger
}

func newRuntime(path string, log logger.Logger) *runtime {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	rt := &runtime{vm: vm, path: path, log: log}
	rt.installConsole()
	return rt
}

// The wrapper keeps the module's first line on line 1 of the stack traces.
const (
	wrapperHead = "(function (module, exports) {"
	wrapperTail = "\n})"
)

func (rt *runtime) run(ctx context.Context, src string) (Export, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	defer rt.interruptOn(ctx)()

	wrapper, err := rt.vm.RunScript(rt.path, wrapperHead+src+wrapperTail)
	if err != nil {
		return nil, scriptErr(err)
	}
	fn, ok := goja.AssertFunction(wrapper)
	if !ok {
		return nil, errors.New("script wrapper is not callable")
	}

	mod := rt.vm.NewObject()
	exports := rt.vm.NewObject()
	if err := mod.Set("exports", exports); err != nil {
		return nil, err
	}
	if _, err := fn(goja.Undefined(), mod, exports); err != nil {
		return nil, scriptErr(err)
	}

	val := mod.Get("exports")
	if obj, ok := val.(*goja.Object); ok {
		if def := obj.Get("default"); present(def) {
			val = def
		}
	}
	if !present(val) {
		return nil, nil
	}
	if obj, ok := val.(*goja.Object); ok && obj.ClassName() == "Object" && len(obj.Keys()) == 0 {
		return nil, nil
	}
	return rt.convert(val), nil
}

func present(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// convert maps arrays to []any, objects to Fields (functions become Func,
// `data` becomes an application command) and primitives to Go values.
func (rt *runtime) convert(val goja.Value) Export {
	obj, ok := val.(*goja.Object)
	if !ok {
		return val.Export()
	}
	if fn, ok := goja.AssertFunction(obj); ok {
		return Fields{"execute": rt.wrap(goja.Undefined(), fn)}
	}
	if obj.ClassName() == "Array" {
		length := obj.Get("length").ToInteger()
		list := make([]any, 0, length)
		for i := int64(0); i < length; i++ {
			list = append(list, rt.convert(obj.Get(strconv.FormatInt(i, 10))))
		}
		return list
	}

	fields := Fields{}
	for _, key := range obj.Keys() {
		v := obj.Get(key)
		if key == "data" {
			fields[key] = rt.schema(v)
			continue
		}
		if fn, ok := goja.AssertFunction(v); ok {
			fields[key] = rt.wrap(obj, fn)
			continue
		}
		fields[key] = v.Export()
	}
	return fields
}

// schema decodes a plain data object (or a builder with toJSON) into an
// application command. Anything else is returned as-is for validation to
// reject.
func (rt *runtime) schema(v goja.Value) any {
	obj, ok := v.(*goja.Object)
	if !ok {
		if v == nil {
			return nil
		}
		return v.Export()
	}
	if toJSON, ok := goja.AssertFunction(obj.Get("toJSON")); ok {
		if res, err := toJSON(obj); err == nil {
			if plain, ok := res.(*goja.Object); ok {
				obj = plain
			}
		}
	}
	raw, err := json.Marshal(obj.Export())
	if err != nil {
		return obj.Export()
	}
	var def discordgo.ApplicationCommand
	if err := json.Unmarshal(raw, &def); err != nil {
		return obj.Export()
	}
	return &def
}

func (rt *runtime) wrap(this goja.Value, fn goja.Callable) Func {
	return func(ctx context.Context, args ...any) (any, error) {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		defer rt.interruptOn(ctx)()

		jsArgs := make([]goja.Value, len(args))
		for i, a := range args {
			jsArgs[i] = rt.toJS(ctx, a)
		}
		res, err := fn(this, jsArgs...)
		if err != nil {
			return nil, scriptErr(err)
		}
		return rt.settle(res)
	}
}

func (rt *runtime) settle(res goja.Value) (any, error) {
	if res == nil {
		return nil, nil
	}
	p, ok := res.Export().(*goja.Promise)
	if !ok {
		return res.Export(), nil
	}
	switch p.State() {
	case goja.PromiseStateRejected:
		return nil, rejection(p.Result())
	case goja.PromiseStatePending:
		return nil, errors.New("script promise did not settle")
	default:
		if p.Result() == nil {
			return nil, nil
		}
		return p.Result().Export(), nil
	}
}

func (rt *runtime) interruptOn(ctx context.Context) func() {
	stop := context.AfterFunc(ctx, func() { rt.vm.Interrupt(ctx.Err()) })
	return func() {
		stop()
		rt.vm.ClearInterrupt()
	}
}

func (rt *runtime) toJS(ctx context.Context, arg any) goja.Value {
	switch v := arg.(type) {
	case goja.Value:
		return v
	case command.Interaction:
		return rt.interactionObject(ctx, v)
	case bot.Client:
		return rt.clientObject(v)
	default:
		return rt.vm.ToValue(arg)
	}
}

func (rt *runtime) interactionObject(ctx context.Context, in command.Interaction) goja.Value {
	vm := rt.vm
	obj := vm.NewObject()
	user := in.User()
	_ = obj.Set("type", in.Type())
	_ = obj.Set("commandName", in.CommandName())
	_ = obj.Set("customId", in.CustomID())
	_ = obj.Set("guildId", in.GuildID())
	_ = obj.Set("user", map[string]any{"id": user.ID, "tag": user.Tag})
	_ = obj.Set("options", in.Options())
	_ = obj.DefineAccessorProperty("replied",
		vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(in.Replied()) }),
		nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	_ = obj.DefineAccessorProperty("deferred",
		vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(in.Deferred()) }),
		nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	_ = obj.Set("reply", func(call goja.FunctionCall) goja.Value {
		rt.must(in.Reply(ctx, response(call.Argument(0))))
		return goja.Undefined()
	})
	_ = obj.Set("followUp", func(call goja.FunctionCall) goja.Value {
		rt.must(in.FollowUp(ctx, response(call.Argument(0))))
		return goja.Undefined()
	})
	_ = obj.Set("deferReply", func(call goja.FunctionCall) goja.Value {
		rt.must(in.Defer(ctx, response(call.Argument(0)).Ephemeral))
		return goja.Undefined()
	})
	return obj
}

func (rt *runtime) clientObject(c bot.Client) goja.Value {
	vm := rt.vm
	obj := vm.NewObject()
	bind := func(once bool) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			name := call.Argument(0).String()
			fn, ok := goja.AssertFunction(call.Argument(1))
			if !ok {
				panic(vm.NewTypeError("listener for %s is not a function", name))
			}
			run := rt.wrap(goja.Undefined(), fn)
			listener := func(ctx context.Context, args ...any) error {
				_, err := run(ctx, args...)
				return err
			}
			if once {
				c.Once(name, listener)
			} else {
				c.On(name, listener)
			}
			return goja.Undefined()
		}
	}
	_ = obj.Set("on", bind(false))
	_ = obj.Set("once", bind(true))
	return obj
}

func (rt *runtime) installConsole() {
	console := rt.vm.NewObject()
	logAt := func(fn func(string, ...any)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				parts[i] = a.String()
			}
			fn(strings.Join(parts, " "))
			return goja.Undefined()
		}
	}
	_ = console.Set("log", logAt(rt.log.Info))
	_ = console.Set("info", logAt(rt.log.Info))
	_ = console.Set("debug", logAt(rt.log.Debug))
	_ = console.Set("warn", logAt(rt.log.Warn))
	_ = console.Set("error", logAt(rt.log.Error))
	_ = rt.vm.Set("console", console)
}

// must throws err into the calling script.
func (rt *runtime) must(err error) {
	if err != nil {
		panic(rt.vm.NewGoError(err))
	}
}

func response(v goja.Value) command.Response {
	if !present(v) {
		return command.Response{}
	}
	if m, ok := v.Export().(map[string]any); ok {
		content, _ := m["content"].(string)
		ephemeral, _ := m["ephemeral"].(bool)
		return command.Response{Content: content, Ephemeral: ephemeral}
	}
	return command.Response{Content: v.String()}
}

func scriptErr(err error) error {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return &ScriptError{Message: ex.Value().String(), Stack: ex.String()}
	}
	return err
}

func rejection(v goja.Value) error {
	if !present(v) {
		return &ScriptError{Message: "promise rejected"}
	}
	se := &ScriptError{Message: v.String()}
	if obj, ok := v.(*goja.Object); ok {
		if stack := obj.Get("stack"); present(stack) {
			se.Stack = stack.String()
		}
	}
	return se
}
