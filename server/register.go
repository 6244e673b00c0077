package server

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/luma/webservices/registry"
)

// Loader defines an object in the library on demand. It is called by
// RegisterObject when the object is not defined yet.
type Loader func(typeName string) error

var implName = strings.NewReplacer(".", "_", "/", "_")

// RegisterFunction exposes a function of the library under name. Calling it
// several times for the same name adds signatures.
//
// The implementation is found by replacing `.` and `/` in name with `_`, so
// `examples.echo` binds to the function defined as `examples_echo`. Names
// like `Type::method` bind to a method of an object in the library.
//
// A nil in accepts any parameters.
func (s *Server) RegisterFunction(name string, in []registry.Param, out, description string) error {
	if out == "" {
		out = registry.Unchecked.Out
	}

	return s.register(name, registry.Signature{In: in, Out: out}, description, s.registry.Add)
}

// addEntry stores a resolved method in the registry, either Registry.Add or
// Registry.Set.
type addEntry func(name string, sig registry.Signature, description string, fn registry.Callable) error

func (s *Server) register(name string, sig registry.Signature, description string, add addEntry) error {
	if s.IsInternal(name) {
		return fmt.Errorf("%s: %w", name, ErrInternalName)
	}

	fn, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := add(name, sig, description, fn); err != nil {
		return fmt.Errorf("Failed to register %s: %w", name, err)
	}

	s.log.Debug("Registered function",
		zap.String("operation", name),
		zap.Int("params", len(sig.In)),
		zap.Bool("checked", sig.Checked()))

	return nil
}

func (s *Server) resolve(name string) (registry.Callable, error) {
	if i := strings.Index(name, "::"); i >= 0 {
		fn, ok := s.library.Method(name[:i], name[i+2:])
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrNoSuchFunction)
		}
		return fn, nil
	}

	fn, ok := s.library.Function(implName.Replace(name))
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSuchFunction)
	}

	return fn, nil
}

// RegisterObject exposes every method of an object of the library as
// `Type::method`, without parameter checks. When the object is not defined
// yet and load is not nil, load is called first.
//
// Registering an object again replaces the entries of its methods.
//
// A method whose name matches the type name is taken for a constructor and
// skipped.
func (s *Server) RegisterObject(typeName string, load Loader) error {
	if load != nil && !s.library.HasObject(typeName) {
		if err := load(typeName); err != nil {
			return fmt.Errorf("Failed to load %s: %w", typeName, err)
		}
	}

	methods, ok := s.library.Methods(typeName)
	if !ok {
		return fmt.Errorf("%s: %w", typeName, ErrNoSuchObject)
	}

	for _, method := range methods {
		if strings.EqualFold(method, typeName) {
			continue
		}

		name := typeName + "::" + method
		if err := s.register(name, registry.Unchecked, "", s.registry.Set); err != nil {
			return err
		}
	}

	return nil
}

// RegisteredMethods returns the names of all registered methods, sorted.
func (s *Server) RegisteredMethods() []string {
	return s.registry.RegisteredMethods()
}

// MethodDescription returns the description of a registered method.
func (s *Server) MethodDescription(name string) (string, bool) {
	return s.registry.MethodDescription(name)
}

// MethodSignatures returns the signatures of a registered method.
func (s *Server) MethodSignatures(name string) ([]registry.Signature, bool) {
	return s.registry.MethodSignatures(name)
}
