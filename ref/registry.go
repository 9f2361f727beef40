package ref

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// TypeOptions 按 type 选择已注册的实现，options 作为构造函数的参数
type TypeOptions struct {
	Type    string `cfg:"type"`
	Options any    `cfg:"options"`
}

// Convertable 配置数据的抽象，New 会用它生成构造函数需要的参数类型
type Convertable interface {
	// ConvertTo object 为指向目标对象的指针
	ConvertTo(object any) error
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type constructor struct {
	fn           reflect.Value
	paramType    reflect.Type
	returnsError bool
}

func newConstructor(newFunc any, target reflect.Type) (*constructor, error) {
	fn := reflect.ValueOf(newFunc)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %T", newFunc)
	}

	ft := fn.Type()
	if ft.NumIn() > 1 {
		return nil, fmt.Errorf("constructor must have 0 or 1 parameters, got %d", ft.NumIn())
	}
	if ft.NumOut() != 1 && ft.NumOut() != 2 {
		return nil, fmt.Errorf("constructor must return 1 or 2 values, got %d", ft.NumOut())
	}
	if ft.NumOut() == 2 && !ft.Out(1).Implements(errorType) {
		return nil, fmt.Errorf("second return value of constructor must be error")
	}
	if !ft.Out(0).AssignableTo(target) {
		return nil, fmt.Errorf("constructor returns %v, which is not assignable to %v", ft.Out(0), target)
	}

	c := &constructor{fn: fn, returnsError: ft.NumOut() == 2}
	if ft.NumIn() == 1 {
		c.paramType = ft.In(0)
	}
	return c, nil
}

// arg 将 options 转换为构造函数的参数，nil 按参数类型的零值处理
func (c *constructor) arg(options any) (reflect.Value, error) {
	pt := c.paramType
	if options == nil {
		if pt.Kind() == reflect.Ptr {
			return reflect.New(pt.Elem()), nil
		}
		return reflect.Zero(pt), nil
	}

	ov := reflect.ValueOf(options)
	if ov.Type().AssignableTo(pt) {
		return ov, nil
	}
	if ov.Kind() == reflect.Ptr && !ov.IsNil() && ov.Elem().Type().AssignableTo(pt) {
		return ov.Elem(), nil
	}
	if pt.Kind() == reflect.Ptr && ov.Type().AssignableTo(pt.Elem()) {
		v := reflect.New(pt.Elem())
		v.Elem().Set(ov)
		return v, nil
	}

	convertable, ok := options.(Convertable)
	if !ok {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %v", options, pt)
	}
	if pt.Kind() == reflect.Ptr {
		v := reflect.New(pt.Elem())
		if err := convertable.ConvertTo(v.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("convert options to %v: %w", pt, err)
		}
		return v, nil
	}
	v := reflect.New(pt)
	if err := convertable.ConvertTo(v.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("convert options to %v: %w", pt, err)
	}
	return v.Elem(), nil
}

func (c *constructor) call(options any) (any, error) {
	var args []reflect.Value
	if c.paramType != nil {
		arg, err := c.arg(options)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	out := c.fn.Call(args)
	if c.returnsError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// Registry 某一类组件的构造函数表，例如 transport、fieldcache、log writer
type Registry[T any] struct {
	kind  string
	mu    sync.RWMutex
	ctors map[string]*constructor
}

func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, ctors: map[string]*constructor{}}
}

// Register 注册构造函数，构造函数形如 func([options]) (T[, error])
func (r *Registry[T]) Register(name string, newFunc any) error {
	c, err := newConstructor(newFunc, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return fmt.Errorf("register %s %q: %w", r.kind, name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.ctors[name]; ok && existing.fn.Pointer() != c.fn.Pointer() {
		return fmt.Errorf("%s %q already registered with a different constructor", r.kind, name)
	}
	r.ctors[name] = c
	return nil
}

func (r *Registry[T]) MustRegister(name string, newFunc any) {
	if err := r.Register(name, newFunc); err != nil {
		panic(err)
	}
}

// New 按 options.Type 创建实例
func (r *Registry[T]) New(options *TypeOptions) (T, error) {
	var zero T
	if options == nil {
		return zero, fmt.Errorf("%s options is nil", r.kind)
	}

	r.mu.RLock()
	c, ok := r.ctors[options.Type]
	r.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("unknown %s type %q, registered: %v", r.kind, options.Type, r.Types())
	}

	obj, err := c.call(options.Options)
	if err != nil {
		return zero, fmt.Errorf("create %s %q: %w", r.kind, options.Type, err)
	}
	return obj.(T), nil
}

// Types 已注册的类型名，按字母序
func (r *Registry[T]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
