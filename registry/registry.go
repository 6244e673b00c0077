package registry

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	ErrSealed     = errors.New("Registry is sealed, methods can only be registered before requests are processed")
	ErrEmptyName  = errors.New("Method name cannot be empty")
	ErrNoCallable = errors.New("Method has no implementation")
)

// Param describes one parameter of a signature.
type Param struct {
	Name string
	Type string
}

// Signature is one accepted parameter list of a method, with the type of its
// result. A nil In means the parameters are not checked.
type Signature struct {
	In  []Param
	Out string
}

// Unchecked is the signature of methods that accept any parameters.
var Unchecked = Signature{In: nil, Out: "mixed"}

// Checked reports whether the signature validates parameters.
func (s Signature) Checked() bool {
	return s.In != nil
}

// Introspector is the read only view of a registry used by introspection
// operations.
type Introspector interface {
	RegisteredMethods() []string
	MethodDescription(name string) (string, bool)
	MethodSignatures(name string) ([]Signature, bool)
}

// Entry is a registered method.
type Entry struct {
	Name        string
	Signatures  []Signature
	Description string
	Callable    Callable
}

// Registry maps public method names to their signatures, descriptions and
// implementation.
//
// A registry is populated during setup and then sealed. Once sealed it is
// read only and safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	sealed  int32
}

func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Add appends a signature to the named method, creating it if needed. The
// description replaces the current one when it is not empty, or when the
// method has no description yet.
//
// The callable of the first registration is kept; later registrations of the
// same name only add signatures.
func (r *Registry) Add(name string, sig Signature, description string, fn Callable) error {
	if name == "" {
		return ErrEmptyName
	}

	if fn == nil {
		return ErrNoCallable
	}

	if r.IsSealed() {
		return ErrSealed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[name]
	if !ok {
		entry = &Entry{Name: name, Callable: fn}
		r.entries[name] = entry
	}

	entry.Signatures = append(entry.Signatures, copySignature(sig))

	if description != "" || !ok {
		entry.Description = description
	}

	return nil
}

// Set registers name with a single signature, replacing whatever was
// registered under it before.
func (r *Registry) Set(name string, sig Signature, description string, fn Callable) error {
	if name == "" {
		return ErrEmptyName
	}

	if fn == nil {
		return ErrNoCallable
	}

	if r.IsSealed() {
		return ErrSealed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = &Entry{
		Name:        name,
		Signatures:  []Signature{copySignature(sig)},
		Description: description,
		Callable:    fn,
	}

	return nil
}

// Seal makes the registry read only.
func (r *Registry) Seal() {
	atomic.StoreInt32(&r.sealed, 1)
}

// IsSealed reports whether Seal has been called.
func (r *Registry) IsSealed() bool {
	return atomic.LoadInt32(&r.sealed) == 1
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	return entry, ok
}

// RegisteredMethods returns the names of all registered methods, sorted.
func (r *Registry) RegisteredMethods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// MethodDescription returns the description of a method. The second return
// value is false if the method is not registered.
func (r *Registry) MethodDescription(name string) (string, bool) {
	entry, ok := r.Lookup(name)
	if !ok {
		return "", false
	}

	return entry.Description, true
}

// MethodSignatures returns a copy of the signatures of a method. The second
// return value is false if the method is not registered.
func (r *Registry) MethodSignatures(name string) ([]Signature, bool) {
	entry, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}

	sigs := make([]Signature, len(entry.Signatures))
	for i, sig := range entry.Signatures {
		sigs[i] = copySignature(sig)
	}

	return sigs, true
}

// Len returns the number of registered methods.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

func copySignature(sig Signature) Signature {
	if sig.In == nil {
		return Signature{Out: sig.Out}
	}

	in := make([]Param, len(sig.In))
	copy(in, sig.In)

	return Signature{In: in, Out: sig.Out}
}

var _ Introspector = (*Registry)(nil)
