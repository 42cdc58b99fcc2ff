package object

import (
	"encoding/binary"
	"math"

	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

// ElementKind enumerates the typed-array element formats spec §4.3's
// "TypedArray... element kind" names (Int8Array through Float64Array,
// plus the BigInt64/BigUint64 variants).
type ElementKind uint8

const (
	ElemInt8 ElementKind = iota
	ElemUint8
	ElemUint8Clamped
	ElemInt16
	ElemUint16
	ElemInt32
	ElemUint32
	ElemFloat32
	ElemFloat64
	ElemBigInt64
	ElemBigUint64
)

// Size returns the element's byte width.
func (k ElementKind) Size() int {
	switch k {
	case ElemInt8, ElemUint8, ElemUint8Clamped:
		return 1
	case ElemInt16, ElemUint16:
		return 2
	case ElemInt32, ElemUint32, ElemFloat32:
		return 4
	default:
		return 8
	}
}

// ArrayBufferPayload is the backing byte store shared by TypedArrays
// and DataViews (spec §4.3: "ArrayBuffer... a fixed-length byte
// store"). Detach zeroes Data and sets Detached so every exotic
// TypedArray access observes it has lost its buffer.
type ArrayBufferPayload struct {
	Data     []byte
	Detached bool
}

func (p *ArrayBufferPayload) Kind() heap.Kind       { return heap.KindArrayBuffer }
func (p *ArrayBufferPayload) Trace(v *heap.Visitor) {}

// Finalize implements heap.Finalizable: a detached buffer still frees
// its Go-side backing slice promptly rather than waiting on Go's own
// GC to notice it's unreferenced (spec §4.1 "resource-owning cells...
// finalized before generic ones").
func (p *ArrayBufferPayload) Finalize() { p.Data = nil; p.Detached = true }

// NewArrayBuffer allocates an ArrayBuffer object of length n bytes,
// zero-initialized (spec §4.3 AllocateArrayBuffer).
func (rt *Runtime) NewArrayBuffer(proto value.Value, n int) value.Value {
	v := rt.newObject(KindArrayBuffer, ordinaryMethods, proto)
	o := rt.Resolve(v)
	o.Payload = &ArrayBufferPayload{Data: make([]byte, n)}
	return v
}

// TypedArrayPayload is an integer-indexed exotic object's view onto an
// ArrayBuffer (spec §4.3 "TypedArray... ByteOffset/ArrayLength over an
// ArrayBuffer").
type TypedArrayPayload struct {
	Buffer     value.Value // the backing ArrayBuffer Value
	bufferCell *ArrayBufferPayload
	ByteOffset int
	Length     int // element count
	Elem       ElementKind
}

func (p *TypedArrayPayload) Kind() heap.Kind { return heap.KindObject }
func (p *TypedArrayPayload) Trace(v *heap.Visitor) {
	markValue(v, p.Buffer)
}

var typedArrayMethods = func() *InternalMethods {
	m := cloneOrdinary()
	m.GetOwnProperty = typedArrayGetOwnProperty
	m.HasProperty = typedArrayHasProperty
	m.DefineOwnProperty = typedArrayDefineOwnProperty
	m.Get = typedArrayGet
	m.Set = typedArraySet
	m.Delete = typedArrayDelete
	m.OwnPropertyKeys = typedArrayOwnPropertyKeys
	return m
}()

// NewTypedArray allocates a TypedArray exotic object viewing buffer.
func (rt *Runtime) NewTypedArray(proto, buffer value.Value, byteOffset, length int, elem ElementKind) value.Value {
	bo := rt.Resolve(buffer)
	v := rt.newObject(KindTypedArray, typedArrayMethods, proto)
	o := rt.Resolve(v)
	o.Payload = &TypedArrayPayload{
		Buffer: buffer, bufferCell: bo.Payload.(*ArrayBufferPayload),
		ByteOffset: byteOffset, Length: length, Elem: elem,
	}
	return v
}

// isValidIntegerIndex implements spec's "IsValidIntegerIndex" check:
// key must canonically be a non-negative integer within [0, Length)
// and the buffer must not be detached (spec §4.3).
func isValidIntegerIndex(p *TypedArrayPayload, key Key) bool {
	return key.kind == KeyIndex && !p.bufferCell.Detached && int(key.idx) < p.Length
}

func typedArrayGetOwnProperty(rt *Runtime, o *Object, key Key) (Descriptor, bool, error) {
	p := o.Payload.(*TypedArrayPayload)
	if key.kind == KeyIndex {
		if !isValidIntegerIndex(p, key) {
			return Descriptor{}, false, nil
		}
		v := readElement(p, int(key.idx))
		return Descriptor{HasValue: true, Value: v, Writable: true, Enumerable: true,
			HasWritable: true, HasEnumerable: true, HasConfigurable: true}, true, nil
	}
	return ordinaryGetOwnProperty(rt, o, key)
}

func typedArrayHasProperty(rt *Runtime, o *Object, key Key) (bool, error) {
	p := o.Payload.(*TypedArrayPayload)
	if key.kind == KeyIndex {
		return isValidIntegerIndex(p, key), nil
	}
	return ordinaryHasProperty(rt, o, key)
}

func typedArrayDefineOwnProperty(rt *Runtime, o *Object, key Key, desc Descriptor) (bool, error) {
	p := o.Payload.(*TypedArrayPayload)
	if key.kind == KeyIndex {
		if !isValidIntegerIndex(p, key) {
			return false, nil
		}
		if desc.IsAccessor() || (desc.HasConfigurable && !desc.Configurable) ||
			(desc.HasEnumerable && !desc.Enumerable) || (desc.HasWritable && !desc.Writable) {
			return false, nil
		}
		if desc.HasValue {
			writeElement(p, int(key.idx), desc.Value)
		}
		return true, nil
	}
	return ordinaryDefineOwnProperty(rt, o, key, desc)
}

func typedArrayGet(rt *Runtime, o *Object, key Key, receiver value.Value) (value.Value, error) {
	p := o.Payload.(*TypedArrayPayload)
	if key.kind == KeyIndex {
		if !isValidIntegerIndex(p, key) {
			return value.Undefined, nil
		}
		return readElement(p, int(key.idx)), nil
	}
	return ordinaryGet(rt, o, key, receiver)
}

func typedArraySet(rt *Runtime, o *Object, key Key, v, receiver value.Value) (bool, error) {
	p := o.Payload.(*TypedArrayPayload)
	if key.kind == KeyIndex {
		// ToNumber/ToBigInt conversion still runs even on an
		// out-of-bounds index (spec §4.3 "conversion happens before the
		// bounds check is consulted").
		n, err := value.ToNumber(v)
		if err != nil {
			return false, err
		}
		if !isValidIntegerIndex(p, key) {
			return true, nil
		}
		writeElement(p, int(key.idx), n)
		return true, nil
	}
	return ordinarySet(rt, o, key, v, receiver)
}

func typedArrayDelete(rt *Runtime, o *Object, key Key) (bool, error) {
	p := o.Payload.(*TypedArrayPayload)
	if key.kind == KeyIndex {
		return !isValidIntegerIndex(p, key), nil
	}
	return ordinaryDelete(rt, o, key)
}

func typedArrayOwnPropertyKeys(rt *Runtime, o *Object) ([]Key, error) {
	p := o.Payload.(*TypedArrayPayload)
	keys := make([]Key, 0, p.Length)
	for i := 0; i < p.Length; i++ {
		keys = append(keys, IndexKey(uint32(i)))
	}
	own, err := ordinaryOwnPropertyKeys(rt, o)
	if err != nil {
		return nil, err
	}
	return append(keys, own...), nil
}

func readElement(p *TypedArrayPayload, i int) value.Value {
	off := p.ByteOffset + i*p.Elem.Size()
	b := p.bufferCell.Data[off : off+p.Elem.Size()]
	switch p.Elem {
	case ElemInt8:
		return value.Int32(int32(int8(b[0])))
	case ElemUint8, ElemUint8Clamped:
		return value.Int32(int32(b[0]))
	case ElemInt16:
		return value.Int32(int32(int16(binary.LittleEndian.Uint16(b))))
	case ElemUint16:
		return value.Int32(int32(binary.LittleEndian.Uint16(b)))
	case ElemInt32:
		return value.Number(float64(int32(binary.LittleEndian.Uint32(b))))
	case ElemUint32:
		return value.Number(float64(binary.LittleEndian.Uint32(b)))
	case ElemFloat32:
		return value.Number(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
	case ElemFloat64:
		return value.Number(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	default:
		return value.Undefined // BigInt64/BigUint64 round-trip through internal/object's BigInts table, wired by builtins
	}
}

func writeElement(p *TypedArrayPayload, i int, n value.Value) {
	off := p.ByteOffset + i*p.Elem.Size()
	b := p.bufferCell.Data[off : off+p.Elem.Size()]
	f := n.AsFloat64()
	switch p.Elem {
	case ElemInt8, ElemUint8:
		b[0] = byte(int64(f))
	case ElemUint8Clamped:
		c := f
		if c < 0 {
			c = 0
		} else if c > 255 {
			c = 255
		}
		b[0] = byte(math.Round(c))
	case ElemInt16, ElemUint16:
		binary.LittleEndian.PutUint16(b, uint16(int64(f)))
	case ElemInt32, ElemUint32:
		binary.LittleEndian.PutUint32(b, uint32(int64(f)))
	case ElemFloat32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(f)))
	case ElemFloat64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(f))
	}
}
