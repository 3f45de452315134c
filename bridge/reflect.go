package bridge

import (
	"reflect"
	"strconv"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/codec"
	"github.com/hostbridge/clr-host/errors"
)

// Constructible is optionally implemented by registered prototypes that
// accept constructor arguments. Types without it default-construct only.
type Constructible interface {
	Construct(args []codec.Value) error
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// RegisterStruct builds a dispatch table from a struct prototype and
// registers it. All exported methods on the pointer type become bridge
// methods, except Construct and Dispose which belong to the lifecycle.
// Method parameters and results must be boundary types (int32, int64,
// float64, bool, string, clrhost.Handle, or any); a trailing error
// result is allowed.
func (r *Registry) RegisterStruct(assembly string, prototype any) (*TypeDescriptor, error) {
	rt := reflect.TypeOf(prototype)
	if rt == nil || rt.Kind() != reflect.Ptr || rt.Elem().Kind() != reflect.Struct {
		return nil, errors.InvalidInput(errors.PhaseBridge, "prototype must be a pointer to struct")
	}
	elem := rt.Elem()

	desc := &TypeDescriptor{
		Assembly: assembly,
		Name:     elem.Name(),
		New:      structCtor(elem),
		Methods:  make(map[string]Method),
	}

	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if !m.IsExported() || m.Name == "Construct" || m.Name == "Dispose" {
			continue
		}
		if err := checkMethodShape(m); err != nil {
			return nil, err
		}
		desc.Methods[m.Name] = reflectMethod(m.Name)
	}

	if err := r.Register(desc); err != nil {
		return nil, err
	}
	return desc, nil
}

func structCtor(elem reflect.Type) Ctor {
	return func(args []codec.Value) (any, error) {
		inst := reflect.New(elem).Interface()
		if len(args) == 0 {
			return inst, nil
		}
		c, ok := inst.(Constructible)
		if !ok {
			return nil, errors.New(errors.PhaseBridge, errors.KindConstructor).
				Detail("type %s takes no constructor arguments, got %d", elem.Name(), len(args)).
				Build()
		}
		if err := c.Construct(args); err != nil {
			return nil, err
		}
		return inst, nil
	}
}

func checkMethodShape(m reflect.Method) error {
	mt := m.Type
	for i := 1; i < mt.NumIn(); i++ { // 0 is the receiver
		if !boundaryType(mt.In(i)) {
			return errors.New(errors.PhaseBridge, errors.KindInvalidInput).
				Detail("method %s: parameter %d has unsupported type %s", m.Name, i-1, mt.In(i)).
				Build()
		}
	}
	switch mt.NumOut() {
	case 0:
		return nil
	case 1:
		if boundaryType(mt.Out(0)) || mt.Out(0) == errType {
			return nil
		}
	case 2:
		if boundaryType(mt.Out(0)) && mt.Out(1) == errType {
			return nil
		}
	}
	return errors.New(errors.PhaseBridge, errors.KindInvalidInput).
		Detail("method %s: unsupported result shape", m.Name).
		Build()
}

func boundaryType(t reflect.Type) bool {
	switch t {
	case reflect.TypeOf(int32(0)),
		reflect.TypeOf(int64(0)),
		reflect.TypeOf(float64(0)),
		reflect.TypeOf(false),
		reflect.TypeOf(""),
		reflect.TypeOf(clrhost.Handle(0)):
		return true
	}
	return t.Kind() == reflect.Interface && t.NumMethod() == 0
}

func reflectMethod(name string) Method {
	return func(recv any, args []codec.Value) (codec.Value, bool, error) {
		rv := reflect.ValueOf(recv).MethodByName(name)
		if !rv.IsValid() {
			return nil, false, errors.NotFound(errors.PhaseBridge, "method", name)
		}
		mt := rv.Type()
		if mt.NumIn() != len(args) {
			return nil, false, errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
				Detail("method %s takes %d arguments, got %d", name, mt.NumIn(), len(args)).
				Build()
		}

		in := make([]reflect.Value, len(args))
		for i, a := range args {
			v, err := coerceArg(a, mt.In(i), i)
			if err != nil {
				return nil, false, err
			}
			in[i] = v
		}

		out := rv.Call(in)
		return splitResults(out)
	}
}

func coerceArg(a codec.Value, target reflect.Type, idx int) (reflect.Value, error) {
	if target.Kind() == reflect.Interface && target.NumMethod() == 0 {
		if a == nil {
			return reflect.Zero(target), nil
		}
		return reflect.ValueOf(a), nil
	}
	if a == nil {
		return reflect.Value{}, errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
			Path(pathArg(idx)).
			Detail("null argument for %s parameter", target).
			Build()
	}

	av := reflect.ValueOf(a)
	if av.Type() == target {
		return av, nil
	}
	// One deliberate widening: an int32 off the wire fills an int64 slot.
	if target == reflect.TypeOf(int64(0)) && av.Type() == reflect.TypeOf(int32(0)) {
		return av.Convert(target), nil
	}
	return reflect.Value{}, errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
		Path(pathArg(idx)).
		Detail("argument type %T does not fit %s parameter", a, target).
		Build()
}

func splitResults(out []reflect.Value) (codec.Value, bool, error) {
	switch len(out) {
	case 0:
		return nil, false, nil
	case 1:
		if out[0].Type() == errType {
			if err, _ := out[0].Interface().(error); err != nil {
				return nil, false, err
			}
			return nil, false, nil
		}
		return out[0].Interface(), true, nil
	default:
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, false, err
		}
		return out[0].Interface(), true, nil
	}
}

func pathArg(i int) string {
	return "arg[" + strconv.Itoa(i) + "]"
}
