package builtins

import (
	"fmt"
	"os"

	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// installConsole builds the minimal `console` object spec §4.9 calls
// for: not part of the ECMAScript spec itself, but present in every
// original_source/core/engine example surface and needed by the demo
// CLI. Mirrors the teacher's own ad hoc `fmt.Fprintf(os.Stderr, ...)`
// trace lines (mcp/logging.go's "[DEBUG] ..." style) rather than
// pulling in a structured-logging library for what is, here, direct
// host-visible program output.
func installConsole(eng *vm.Engine, objectProto value.Value) {
	rt := eng.Runtime()
	console := rt.NewOrdinary(objectProto)

	logTo := func(w *os.File) nativeFn {
		return func(eng *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				s, err := consoleFormat(eng, a, map[value.Value]bool{})
				if err != nil {
					return value.Value{}, err
				}
				parts[i] = s
			}
			for i, p := range parts {
				if i > 0 {
					fmt.Fprint(w, " ")
				}
				fmt.Fprint(w, p)
			}
			fmt.Fprintln(w)
			return value.Undefined, nil
		}
	}

	defMethod(eng, console, "log", 0, logTo(os.Stdout))
	defMethod(eng, console, "info", 0, logTo(os.Stdout))
	defMethod(eng, console, "debug", 0, logTo(os.Stdout))
	defMethod(eng, console, "warn", 0, logTo(os.Stderr))
	defMethod(eng, console, "error", 0, logTo(os.Stderr))

	defOwn(eng, eng.GlobalObject, "console", console, false)
}

// consoleFormat renders v in a Node-like console.log style: strings
// print bare (no quotes, also inside arrays and objects), numbers use
// Go's %g formatting (so 1000000 prints as 1e+06 and Infinity as +Inf),
// everything else gets a JS-source-ish rendering. seen guards against cyclic object/array
// structures (spec doesn't require this, a diagnostic logger does).
func consoleFormat(eng *vm.Engine, v value.Value, seen map[value.Value]bool) (string, error) {
	rt := eng.Runtime()
	switch {
	case v.IsUndefined():
		return "undefined", nil
	case v.IsNull():
		return "null", nil
	case v.IsBoolean():
		return fmt.Sprintf("%v", value.ToBoolean(v)), nil
	case v.IsNumber():
		return formatNumber(v.AsFloat64()), nil
	case v.IsString():
		return rt.Strings.Lookup(v.Ref()), nil
	case v.IsSymbol():
		return "Symbol(" + rt.Strings.Lookup(v.Ref()) + ")", nil
	}
	if !v.IsObject() {
		return v.GoString(), nil
	}
	if seen[v] {
		return "[Circular]", nil
	}
	seen[v] = true
	defer delete(seen, v)

	o := rt.Resolve(v)
	if o == nil {
		return "[object]", nil
	}
	if rt.IsCallable(v) {
		nameV, _ := rt.GetV(v, key(eng, "name"))
		name := ""
		if nameV.IsString() {
			name = rt.Strings.Lookup(nameV.Ref())
		}
		if name == "" {
			return "[Function (anonymous)]", nil
		}
		return "[Function: " + name + "]", nil
	}
	if isPromise(rt, v) {
		return "Promise { <pending or settled> }", nil
	}
	if o.ObjectKind() == object.KindArray {
		n, err := arrLen(eng, v)
		if err != nil {
			return "", err
		}
		out := "[ "
		for i := int64(0); i < n; i++ {
			if i > 0 {
				out += ", "
			}
			elem, err := rt.GetV(v, object.IndexKey(uint32(i)))
			if err != nil {
				return "", err
			}
			s, err := consoleFormat(eng, elem, seen)
			if err != nil {
				return "", err
			}
			out += s
		}
		if n > 0 {
			out += " "
		}
		return out + "]", nil
	}

	keys, err := rt.OwnPropertyKeys(v)
	if err != nil {
		return "", err
	}
	out := "{ "
	wrote := false
	for _, k := range keys {
		if k.Kind() == object.KeySymbol {
			continue
		}
		d, ok, err := rt.GetOwnProperty(v, k)
		if err != nil || !ok || !d.Enumerable {
			continue
		}
		if wrote {
			out += ", "
		}
		val, err := rt.GetV(v, k)
		if err != nil {
			return "", err
		}
		s, err := consoleFormat(eng, val, seen)
		if err != nil {
			return "", err
		}
		out += rt.Strings.Lookup(keyToStringValue(eng, k).Ref()) + ": " + s
		wrote = true
	}
	if wrote {
		out += " "
	}
	return out + "}", nil
}

func formatNumber(f float64) string {
	if f != f {
		return "NaN"
	}
	return fmt.Sprintf("%g", f)
}
