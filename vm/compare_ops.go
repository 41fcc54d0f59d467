package vm

import "github.com/lumenforge/lumen/values"

func (vm *VM) compareEq(a, b values.Value) values.Value {
	return values.Bool(values.Equal(a, b, vm.Strings))
}

func (vm *VM) compareLt(a, b values.Value) values.Value {
	return values.Bool(values.Compare(a, b, vm.Strings) < 0)
}

func (vm *VM) compareLe(a, b values.Value) values.Value {
	return values.Bool(values.Compare(a, b, vm.Strings) <= 0)
}

func (vm *VM) logicalNot(v values.Value) values.Value {
	return values.Bool(!values.Truthy(v, vm.Strings))
}

func (vm *VM) logicalAnd(a, b values.Value) values.Value {
	return values.Bool(values.Truthy(a, vm.Strings) && values.Truthy(b, vm.Strings))
}

func (vm *VM) logicalOr(a, b values.Value) values.Value {
	return values.Bool(values.Truthy(a, vm.Strings) || values.Truthy(b, vm.Strings))
}

// inContainer implements the IN opcode: membership of a in container
// b (List/Tuple/Set by value-equality, Map/Record by string key).
func (vm *VM) inContainer(needle, container values.Value) (values.Value, error) {
	switch container.Kind {
	case values.KindList:
		lb := container.Data.(*values.ListBox)
		for _, item := range lb.Items() {
			if values.Equal(needle, item, vm.Strings) {
				return values.Bool(true), nil
			}
		}
		return values.Bool(false), nil
	case values.KindTuple:
		tb := container.Data.(*values.TupleBox)
		for _, item := range tb.Items() {
			if values.Equal(needle, item, vm.Strings) {
				return values.Bool(true), nil
			}
		}
		return values.Bool(false), nil
	case values.KindSet:
		sb := container.Data.(*values.SetBox)
		for _, item := range sb.Items() {
			if values.Equal(needle, item, vm.Strings) {
				return values.Bool(true), nil
			}
		}
		return values.Bool(false), nil
	case values.KindMap:
		key, ok := vm.asMapKey(needle)
		if !ok {
			return values.Bool(false), nil
		}
		mb := container.Data.(*values.MapBox)
		_, found := mb.Get(key)
		return values.Bool(found), nil
	case values.KindRecord:
		key, ok := vm.asMapKey(needle)
		if !ok {
			return values.Bool(false), nil
		}
		rb := container.Data.(*values.RecordBox)
		_, found := rb.Rec.Fields.Get(key)
		return values.Bool(found), nil
	default:
		return values.Value{}, NewError(KindTypeError, "'in' requires a container on the right-hand side, got %s", container.TypeName())
	}
}

func (vm *VM) asMapKey(v values.Value) (string, bool) {
	ref, ok := v.AsStringRef()
	if !ok {
		return "", false
	}
	s, err := ref.Resolve(vm.Strings)
	if err != nil {
		return "", false
	}
	return s, true
}

// isType implements the IS opcode: a type-name check against the
// value's Kind, a declared record/union type name, or a registered
// type's name.
func (vm *VM) isType(v values.Value, typeName string) values.Value {
	switch typeName {
	case "Any":
		return values.Bool(true)
	case "Null":
		return values.Bool(v.Kind == values.KindNull)
	case "Bool":
		return values.Bool(v.Kind == values.KindBool)
	case "Int":
		return values.Bool(v.Kind == values.KindInt || v.Kind == values.KindBigInt)
	case "Float":
		return values.Bool(v.Kind == values.KindFloat)
	case "String":
		return values.Bool(v.Kind == values.KindString)
	case "List":
		return values.Bool(v.Kind == values.KindList)
	case "Tuple":
		return values.Bool(v.Kind == values.KindTuple)
	case "Set":
		return values.Bool(v.Kind == values.KindSet)
	case "Map":
		return values.Bool(v.Kind == values.KindMap)
	}
	if v.Kind == values.KindRecord {
		rb := v.Data.(*values.RecordBox)
		return values.Bool(rb.Rec.TypeName == typeName)
	}
	if v.Kind == values.KindUnion {
		u := v.Data.(*values.Union)
		decl, ok := vm.Types.Lookup(typeName)
		if !ok || decl.Kind != "enum" {
			return values.Bool(false)
		}
		for _, variant := range decl.Variants {
			if variant.Name == u.Tag {
				return values.Bool(true)
			}
		}
	}
	return values.Bool(false)
}
