package axontest

import (
	"fmt"
	"reflect"

	"github.com/0xxfu/bittensor/synapse"
)

type service struct {
	name    string
	fn      reflect.Value
	argType reflect.Type
}

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	synapseType = reflect.TypeOf((*synapse.Synapse)(nil)).Elem()
)

// newService checks that fn has the forward signature func(*T) error, where *T is a
// synapse, and names the service after T.
func newService(fn any) (*service, error) {
	val := reflect.ValueOf(fn)
	typ := val.Type()
	if typ.Kind() != reflect.Func {
		return nil, fmt.Errorf("axontest: forward must be a func, got %s", typ.Kind())
	}
	if typ.NumIn() != 1 || typ.NumOut() != 1 || typ.Out(0) != errorType {
		return nil, fmt.Errorf("axontest: forward must be func(*Synapse) error, got %s", typ)
	}
	arg := typ.In(0)
	if arg.Kind() != reflect.Ptr || arg.Elem().Kind() != reflect.Struct || !arg.Implements(synapseType) {
		return nil, fmt.Errorf("axontest: forward argument must be a pointer to a synapse, got %s", arg)
	}

	name := arg.Elem().Name()
	if named, ok := reflect.New(arg.Elem()).Interface().(synapse.Named); ok {
		name = named.SynapseName()
	}
	return &service{name: name, fn: val, argType: arg.Elem()}, nil
}

// call runs the forward function on a decoded *T.
func (s *service) call(arg reflect.Value) error {
	results := s.fn.Call([]reflect.Value{arg})
	if !results[0].IsNil() {
		return results[0].Interface().(error)
	}
	return nil
}
