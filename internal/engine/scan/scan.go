// Package scan enumerates the immediate members of live objects through
// reflection. It backs the bus locator and the fallback payload summaries.
package scan

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	enginerrors "github.com/drblury/sigtap/internal/engine/errors"
)

// Origin identifies how a node was obtained.
type Origin int

const (
	// OriginField means the node is a struct field.
	OriginField Origin = iota
	// OriginGetter means the node came from a zero-argument method.
	OriginGetter
	// OriginResolver means the node was produced by a type resolver rather
	// than by walking the root.
	OriginResolver
)

func (o Origin) String() string {
	switch o {
	case OriginField:
		return "field"
	case OriginGetter:
		return "getter"
	case OriginResolver:
		return "resolver"
	default:
		return "unknown"
	}
}

// Node is one discovered member of an object graph. When the member exists
// but its value could not be read, Err is set and Value is nil.
type Node struct {
	Name   string
	Type   reflect.Type
	Value  any
	Origin Origin
	Err    error
}

// Accessible reports whether the node's value was read successfully.
func (n Node) Accessible() bool { return n.Err == nil }

// VisitFunc receives each discovered node. Returning false stops the walk.
type VisitFunc func(Node) bool

// GraphScanner enumerates the immediate members of a root object.
// Implementations never recurse into member values; callers that need to go
// deeper scan the member explicitly.
type GraphScanner interface {
	Scan(root any, visit VisitFunc) error
}

// ReflectScanner walks struct fields and zero-argument getter methods.
// Getter coverage follows Go method sets, so pass a pointer to reach
// pointer-receiver getters.
type ReflectScanner struct {
	// IncludeGetters adds zero-argument single-return methods to the walk.
	IncludeGetters bool
	// IncludeUnexported reads unexported fields through unsafe addressing.
	// Unexported fields of non-addressable roots are reported as
	// inaccessible nodes instead.
	IncludeUnexported bool
}

// NewReflectScanner returns a scanner with getters and unexported fields
// enabled.
func NewReflectScanner() *ReflectScanner {
	return &ReflectScanner{IncludeGetters: true, IncludeUnexported: true}
}

// Scan visits every field of root, then every getter. It returns an error
// only when root itself is unusable; per-member failures surface as nodes
// with Err set.
func (s *ReflectScanner) Scan(root any, visit VisitFunc) error {
	if root == nil {
		return errors.New("scan: root is nil")
	}

	rv := reflect.ValueOf(root)
	elem := rv
	for elem.Kind() == reflect.Pointer {
		if elem.IsNil() {
			return errors.New("scan: root is a nil pointer")
		}
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("scan: root must be a struct or pointer to struct, got %T", root)
	}

	if !s.visitFields(elem, visit) {
		return nil
	}
	if s.IncludeGetters {
		s.visitGetters(rv, visit)
	}
	return nil
}

func (s *ReflectScanner) visitFields(elem reflect.Value, visit VisitFunc) bool {
	t := elem.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := elem.Field(i)

		node := Node{Name: field.Name, Type: field.Type, Origin: OriginField}
		switch {
		case field.IsExported():
			node.Value = fv.Interface()
		case s.IncludeUnexported && fv.CanAddr():
			node.Value = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem().Interface()
		default:
			node.Err = fmt.Errorf("%w: unexported field %s on non-addressable root", enginerrors.ErrNodeInaccessible, field.Name)
		}
		if !visit(node) {
			return false
		}
	}
	return true
}

func (s *ReflectScanner) visitGetters(rv reflect.Value, visit VisitFunc) bool {
	t := rv.Type()
	for i := 0; i < t.NumMethod(); i++ {
		name := t.Method(i).Name
		m := rv.Method(i)
		mt := m.Type()
		if mt.NumIn() != 0 || mt.NumOut() != 1 {
			continue
		}

		node := Node{Name: name, Type: mt.Out(0), Origin: OriginGetter}
		node.Value, node.Err = callGetter(name, m)
		if !visit(node) {
			return false
		}
	}
	return true
}

// callGetter invokes a bound zero-argument method, converting panics into an
// inaccessible-node error so one throwing getter never aborts the walk.
func callGetter(name string, m reflect.Value) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: getter %s panicked: %v", enginerrors.ErrNodeInaccessible, name, r)
		}
	}()
	results := m.Call(nil)
	return results[0].Interface(), nil
}

// Collect runs scanner.Scan on root and returns every visited node.
func Collect(scanner GraphScanner, root any) ([]Node, error) {
	var nodes []Node
	err := scanner.Scan(root, func(n Node) bool {
		nodes = append(nodes, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// FindFunc returns the first accessible node with a usable value for which
// accept returns true. Nil pointers and nil interfaces are never offered,
// so an unset field does not match by type alone.
func FindFunc(scanner GraphScanner, root any, accept func(Node) bool) (Node, bool, error) {
	var (
		found Node
		ok    bool
	)
	err := scanner.Scan(root, func(n Node) bool {
		if !n.Accessible() || !hasUsableValue(n) {
			return true
		}
		if accept(n) {
			found = n
			ok = true
			return false
		}
		return true
	})
	if err != nil {
		return Node{}, false, err
	}
	return found, ok, nil
}

func hasUsableValue(n Node) bool {
	if n.Value == nil {
		return false
	}
	rv := reflect.ValueOf(n.Value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// FindByTypeName returns the first accessible node whose static or dynamic
// type renders as name, for example "*hostsim.SignalBus".
func FindByTypeName(scanner GraphScanner, root any, name string) (Node, bool, error) {
	return FindFunc(scanner, root, func(n Node) bool {
		return typeNameMatches(n, name)
	})
}

func typeNameMatches(n Node, name string) bool {
	if n.Type != nil && n.Type.String() == name {
		return true
	}
	if t := reflect.TypeOf(n.Value); t != nil && t.String() == name {
		return true
	}
	return false
}
