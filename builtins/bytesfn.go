package builtins

import (
	"fmt"

	"github.com/lumenforge/lumen/values"
)

// registerBytesFunctions wires spec section 4.9's Bytes bullet.
func (r *Registry) registerBytesFunctions() {
	r.defID("from_ascii", 90, biFromAscii)
	r.defID("to_ascii", 91, biToAscii)
	r.defID("bytes_len", 92, biBytesLen)
	r.defID("bytes_slice", 93, biBytesSlice)
	r.defID("bytes_concat", 94, biBytesConcat)
}

func biFromAscii(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("from_ascii", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Bin([]byte(s)), nil
}

func biToAscii(r *Registry, args []values.Value) (values.Value, error) {
	b, err := r.bytesArg("to_ascii", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(string(b)), nil
}

func biBytesLen(r *Registry, args []values.Value) (values.Value, error) {
	b, err := r.bytesArg("bytes_len", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Int(int64(len(b))), nil
}

func biBytesSlice(r *Registry, args []values.Value) (values.Value, error) {
	b, err := r.bytesArg("bytes_slice", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	start, err := r.intArg("bytes_slice", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	end := int64(len(b))
	if len(args) > 2 {
		end, err = r.intArg("bytes_slice", args, 2)
		if err != nil {
			return values.Value{}, err
		}
	}
	if start < 0 || end > int64(len(b)) || start > end {
		return values.Value{}, fmt.Errorf("bytes_slice: range [%d,%d) out of bounds for length %d", start, end, len(b))
	}
	return values.Bin(b[start:end]), nil
}

func biBytesConcat(r *Registry, args []values.Value) (values.Value, error) {
	var out []byte
	for i := range args {
		b, err := r.bytesArg("bytes_concat", args, i)
		if err != nil {
			return values.Value{}, err
		}
		out = append(out, b...)
	}
	return values.Bin(out), nil
}
