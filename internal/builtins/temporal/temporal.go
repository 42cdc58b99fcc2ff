// Package temporal is the engine's Temporal proposal stub (spec §9's
// open question, resolved per its own guidance: "implementers should
// treat Temporal as an external library; the engine core need only
// expose it as another built-in module"). It registers itself with
// internal/builtins.Register the same way a real host-native module
// would — not claiming full proposal coverage, only Temporal.Now,
// Temporal.PlainDate, and Temporal.Duration with the minimal
// arithmetic needed for a calendar-aware demo script.
package temporal

import (
	"fmt"
	"time"

	"github.com/oxhq/esengine/internal/builtins"
	"github.com/oxhq/esengine/internal/object"
	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

func init() {
	builtins.Register("temporal", install)
}

// wallClock prefers a host-supplied clock (esengine.HostHooks.Now,
// wired onto the Engine at Context construction) so a host can make
// Temporal.Now deterministic for tests/replay; falls back to the real
// wall clock otherwise.
func wallClock(e *vm.Engine) time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// install builds the Temporal namespace object. Exported under both
// "Temporal" (named import) and "default" (default import) since a
// bare compiled-in module has no way to express which style the
// importing source used.
func install(eng *vm.Engine) map[string]value.Value {
	objectProto := eng.ObjectProto

	plainDateProto := eng.Runtime().NewOrdinary(objectProto)
	durationProto := eng.Runtime().NewOrdinary(objectProto)

	plainDateCtor := newConstructor(eng, "PlainDate", 3, plainDateProto, func(e *vm.Engine, _ value.Value, args []value.Value, newTarget value.Value) (value.Value, error) {
		if newTarget.IsUndefined() {
			return value.Value{}, &value.TypeError{Message: "Constructor Temporal.PlainDate requires 'new'"}
		}
		year, err := toInt(argOrUndefined(args, 0))
		if err != nil {
			return value.Value{}, err
		}
		month, err := toInt(argOrUndefined(args, 1))
		if err != nil {
			return value.Value{}, err
		}
		day, err := toInt(argOrUndefined(args, 2))
		if err != nil {
			return value.Value{}, err
		}
		return newPlainDate(e, plainDateProto, year, month, day), nil
	})

	durationCtor := newConstructor(eng, "Duration", 7, durationProto, func(e *vm.Engine, _ value.Value, args []value.Value, newTarget value.Value) (value.Value, error) {
		if newTarget.IsUndefined() {
			return value.Value{}, &value.TypeError{Message: "Constructor Temporal.Duration requires 'new'"}
		}
		fields := make([]int, 7)
		for i := range fields {
			n, err := toInt(argOrUndefined(args, i))
			if err != nil {
				return value.Value{}, err
			}
			fields[i] = n
		}
		return newDuration(e, durationProto, fields), nil
	})

	installPlainDateMethods(eng, plainDateProto, durationProto)
	installDurationMethods(eng, durationProto)

	now := eng.Runtime().NewOrdinary(objectProto)
	defMethod(eng, now, "instant", 0, func(e *vm.Engine, _ value.Value, _ []value.Value, _ value.Value) (value.Value, error) {
		return str(e, wallClock(e).UTC().Format(time.RFC3339Nano)), nil
	})
	defMethod(eng, now, "plainDateISO", 0, func(e *vm.Engine, _ value.Value, _ []value.Value, _ value.Value) (value.Value, error) {
		t := wallClock(e).UTC()
		return newPlainDate(e, plainDateProto, t.Year(), int(t.Month()), t.Day()), nil
	})

	temporal := eng.Runtime().NewOrdinary(objectProto)
	defOwn(eng, temporal, "Now", now, false)
	defOwn(eng, temporal, "PlainDate", plainDateCtor, false)
	defOwn(eng, temporal, "Duration", durationCtor, false)

	return map[string]value.Value{
		"Temporal": temporal,
		"default":  temporal,
	}
}

// --- PlainDate -------------------------------------------------------

func newPlainDate(eng *vm.Engine, proto value.Value, year, month, day int) value.Value {
	// Normalize through time.Date the way the ISO calendar's
	// BalanceISODate does: an out-of-range month/day (PlainDate.add's
	// carry) rolls into the adjacent unit instead of erroring.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	d := eng.Runtime().NewOrdinary(proto)
	defOwn(eng, d, "year", value.Int32(int32(t.Year())), true)
	defOwn(eng, d, "month", value.Int32(int32(t.Month())), true)
	defOwn(eng, d, "day", value.Int32(int32(t.Day())), true)
	return d
}

func plainDateFields(eng *vm.Engine, this value.Value) (year, month, day int, err error) {
	rt := eng.Runtime()
	yv, err := rt.GetV(this, key(eng, "year"))
	if err != nil {
		return 0, 0, 0, err
	}
	mv, err := rt.GetV(this, key(eng, "month"))
	if err != nil {
		return 0, 0, 0, err
	}
	dv, err := rt.GetV(this, key(eng, "day"))
	if err != nil {
		return 0, 0, 0, err
	}
	return int(yv.AsFloat64()), int(mv.AsFloat64()), int(dv.AsFloat64()), nil
}

func installPlainDateMethods(eng *vm.Engine, proto value.Value, durationProto value.Value) {
	defMethod(eng, proto, "toString", 0, func(e *vm.Engine, this value.Value, _ []value.Value, _ value.Value) (value.Value, error) {
		year, month, day, err := plainDateFields(e, this)
		if err != nil {
			return value.Value{}, err
		}
		return str(e, fmt.Sprintf("%04d-%02d-%02d", year, month, day)), nil
	})

	// add applies a Temporal.Duration's date-portion fields (years,
	// months, weeks, days — the time-of-day fields are out of scope for
	// a calendar-date value) and returns a new PlainDate, the minimal
	// slice of PlainDate.prototype.add's behavior this stub covers.
	defMethod(eng, proto, "add", 1, func(e *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		year, month, day, err := plainDateFields(e, this)
		if err != nil {
			return value.Value{}, err
		}
		dur := argOrUndefined(args, 0)
		years, months, weeks, days, err := durationDateFields(e, dur)
		if err != nil {
			return value.Value{}, err
		}
		t := time.Date(year+years, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		t = t.AddDate(0, months, weeks*7+days)
		proto, err := e.Runtime().GetPrototypeOf(this)
		if err != nil {
			return value.Value{}, err
		}
		return newPlainDate(e, proto, t.Year(), int(t.Month()), t.Day()), nil
	})

	// until returns the whole-day difference between this and another
	// PlainDate as a Temporal.Duration's days field, the smallest useful
	// slice of PlainDate.prototype.until's largestUnit-aware behavior.
	defMethod(eng, proto, "until", 1, func(e *vm.Engine, this value.Value, args []value.Value, _ value.Value) (value.Value, error) {
		y1, m1, d1, err := plainDateFields(e, this)
		if err != nil {
			return value.Value{}, err
		}
		other := argOrUndefined(args, 0)
		y2, m2, d2, err := plainDateFields(e, other)
		if err != nil {
			return value.Value{}, err
		}
		t1 := time.Date(y1, time.Month(m1), d1, 0, 0, 0, 0, time.UTC)
		t2 := time.Date(y2, time.Month(m2), d2, 0, 0, 0, 0, time.UTC)
		days := int(t2.Sub(t1).Hours() / 24)
		return newDuration(e, durationProto, []int{0, 0, 0, days, 0, 0, 0}), nil
	})
}

// --- Duration --------------------------------------------------------

var durationFieldNames = [...]string{"years", "months", "weeks", "days", "hours", "minutes", "seconds"}

func newDuration(eng *vm.Engine, proto value.Value, fields []int) value.Value {
	d := eng.Runtime().NewOrdinary(proto)
	for i, name := range durationFieldNames {
		defOwn(eng, d, name, value.Int32(int32(fields[i])), true)
	}
	return d
}

func durationDateFields(eng *vm.Engine, d value.Value) (years, months, weeks, days int, err error) {
	rt := eng.Runtime()
	vals := make([]int, 4)
	for i, name := range durationFieldNames[:4] {
		v, e := rt.GetV(d, key(eng, name))
		if e != nil {
			return 0, 0, 0, 0, e
		}
		vals[i] = int(v.AsFloat64())
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

func installDurationMethods(eng *vm.Engine, proto value.Value) {
	defMethod(eng, proto, "toString", 0, func(e *vm.Engine, this value.Value, _ []value.Value, _ value.Value) (value.Value, error) {
		rt := e.Runtime()
		vals := make([]int, len(durationFieldNames))
		for i, name := range durationFieldNames {
			v, err := rt.GetV(this, key(e, name))
			if err != nil {
				return value.Value{}, err
			}
			vals[i] = int(v.AsFloat64())
		}
		years, months, weeks, days, hours, minutes, seconds := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5], vals[6]
		out := "P"
		if years != 0 {
			out += fmt.Sprintf("%dY", years)
		}
		if months != 0 {
			out += fmt.Sprintf("%dM", months)
		}
		if weeks != 0 {
			out += fmt.Sprintf("%dW", weeks)
		}
		if days != 0 {
			out += fmt.Sprintf("%dD", days)
		}
		if hours != 0 || minutes != 0 || seconds != 0 {
			out += "T"
			if hours != 0 {
				out += fmt.Sprintf("%dH", hours)
			}
			if minutes != 0 {
				out += fmt.Sprintf("%dM", minutes)
			}
			if seconds != 0 {
				out += fmt.Sprintf("%dS", seconds)
			}
		}
		if out == "P" {
			out = "PT0S"
		}
		return str(e, out), nil
	})
}

// --- local helpers -----------------------------------------------------
//
// builtins.go's key/str/defOwn/defMethod/newConstructor/argOrUndefined
// are package-private to internal/builtins; this package keeps its own
// copies rather than exporting the whole helper surface just for one
// stub module's sake.

func key(eng *vm.Engine, name string) object.Key {
	rt := eng.Runtime()
	return object.StringKey(rt.Strings.Intern(name), name)
}

func str(eng *vm.Engine, s string) value.Value {
	return value.HeapValue(value.TagString, eng.Runtime().Strings.Intern(s))
}

func defOwn(eng *vm.Engine, target value.Value, name string, v value.Value, enumerable bool) {
	eng.Runtime().DefineOwnProperty(target, key(eng, name), object.Descriptor{
		HasValue: true, Value: v, Writable: true, Configurable: true, Enumerable: enumerable,
		HasWritable: true, HasConfigurable: true, HasEnumerable: true,
	})
}

type nativeFn = func(eng *vm.Engine, this value.Value, args []value.Value, newTarget value.Value) (value.Value, error)

func defMethod(eng *vm.Engine, target value.Value, name string, length int, fn nativeFn) value.Value {
	f := eng.NewNativeFunction(name, false, fn)
	defOwn(eng, f, "length", value.Int32(int32(length)), false)
	defOwn(eng, target, name, f, false)
	return f
}

func newConstructor(eng *vm.Engine, name string, length int, proto value.Value, fn nativeFn) value.Value {
	ctor := eng.NewNativeFunction(name, true, fn)
	defOwn(eng, ctor, "length", value.Int32(int32(length)), false)
	defOwn(eng, ctor, "prototype", proto, false)
	defOwn(eng, proto, "constructor", ctor, false)
	return ctor
}

func argOrUndefined(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

func toInt(v value.Value) (int, error) {
	if v.IsUndefined() {
		return 0, nil
	}
	f, err := value.ToIntegerOrInfinity(v)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
