package param

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"cuelang.org/go/cue"
	"gopkg.in/yaml.v3"
)

// Marker keys. Objects are not values in their own right; an object in
// decoded input must be one of these markers.
const (
	MarkerVar   = "$var"   // {"$var": "theta", "value": 0.1} -> Symbol
	MarkerFn    = "$fn"    // {"$fn": "ansatz"} -> Callable
	MarkerArray = "$array" // {"$array": [2, 3], "data": [...]} -> Array
)

// DecodeJSON decodes a JSON document into a Value.
// Integer literals become Int, all other numbers Float.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode json: trailing data after value")
	}
	return fromDecoded(raw)
}

// DecodeYAML decodes a YAML document into a Value.
func DecodeYAML(data []byte) (Value, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return fromDecoded(raw)
}

// FromDecoded converts the output of a generic decoder (encoding/json with
// UseNumber, or yaml.v3 into any) into a Value.
func FromDecoded(raw any) (Value, error) {
	return fromDecoded(raw)
}

func fromDecoded(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of range: %d", val)
		}
		return Int(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		return fromNumber(val)
	case []any:
		seq := make(Seq, len(val))
		for i, elem := range val {
			pv, err := fromDecoded(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq[i] = pv
		}
		return seq, nil
	case map[string]any:
		fields := make(map[string]Value, len(val))
		for k, elem := range val {
			pv, err := fromDecoded(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			fields[k] = pv
		}
		return fromMarker(fields)
	default:
		return nil, fmt.Errorf("unsupported decoded type: %T", raw)
	}
}

// fromNumber keeps integer literals integral.
func fromNumber(n json.Number) (Value, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("integer out of range: %s", s)
		}
		return Int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %s: %w", s, err)
	}
	return Float(f), nil
}

// FromCUE converts a concrete CUE value into a Value.
func FromCUE(v cue.Value) (Value, error) {
	if err := v.Err(); err != nil {
		return nil, err
	}

	switch v.Kind() {
	case cue.NullKind:
		return Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return Int(i), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		seq := Seq{}
		for iter.Next() {
			pv, err := FromCUE(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", len(seq), err)
			}
			seq = append(seq, pv)
		}
		return seq, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		fields := map[string]Value{}
		for iter.Next() {
			label := iter.Selector().Unquoted()
			pv, err := FromCUE(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", label, err)
			}
			fields[label] = pv
		}
		return fromMarker(fields)
	default:
		return nil, fmt.Errorf("value is not concrete: %v", v)
	}
}

// fromMarker turns a decoded object into the Value its marker names.
func fromMarker(fields map[string]Value) (Value, error) {
	switch {
	case fields[MarkerVar] != nil:
		name, ok := fields[MarkerVar].(String)
		if !ok {
			return nil, fmt.Errorf("%s must be a string, got %s", MarkerVar, KindOf(fields[MarkerVar]))
		}
		if err := onlyKeys(fields, MarkerVar, "value"); err != nil {
			return nil, err
		}
		return NewSymbol(string(name), fields["value"]), nil

	case fields[MarkerFn] != nil:
		name, ok := fields[MarkerFn].(String)
		if !ok {
			return nil, fmt.Errorf("%s must be a string, got %s", MarkerFn, KindOf(fields[MarkerFn]))
		}
		if err := onlyKeys(fields, MarkerFn); err != nil {
			return nil, err
		}
		return Callable{Name: string(name)}, nil

	case fields[MarkerArray] != nil:
		if err := onlyKeys(fields, MarkerArray, "data"); err != nil {
			return nil, err
		}
		dims, err := intList(fields[MarkerArray])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", MarkerArray, err)
		}
		data, err := floatList(fields["data"])
		if err != nil {
			return nil, fmt.Errorf("%s data: %w", MarkerArray, err)
		}
		return NewArray(dims, data)

	default:
		return nil, fmt.Errorf("objects are not values: expected one of %s, %s, %s", MarkerVar, MarkerFn, MarkerArray)
	}
}

func onlyKeys(fields map[string]Value, allowed ...string) error {
	for k := range fields {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unexpected key %q in %s marker", k, allowed[0])
		}
	}
	return nil
}

func intList(v Value) ([]int, error) {
	seq, ok := v.(Seq)
	if !ok {
		return nil, fmt.Errorf("expected a list of integers, got %s", KindOf(v))
	}
	out := make([]int, len(seq))
	for i, elem := range seq {
		n, ok := elem.(Int)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected int, got %s", i, KindOf(elem))
		}
		if int64(int(n)) != int64(n) {
			return nil, fmt.Errorf("[%d]: integer out of range: %d", i, int64(n))
		}
		out[i] = int(n)
	}
	return out, nil
}

func floatList(v Value) ([]float64, error) {
	if v == nil {
		return nil, fmt.Errorf("missing")
	}
	seq, ok := v.(Seq)
	if !ok {
		return nil, fmt.Errorf("expected a list of numbers, got %s", KindOf(v))
	}
	out := make([]float64, len(seq))
	for i, elem := range seq {
		switch n := elem.(type) {
		case Int:
			out[i] = float64(n)
		case Float:
			out[i] = float64(n)
		default:
			return nil, fmt.Errorf("[%d]: expected number, got %s", i, KindOf(elem))
		}
	}
	return out, nil
}
