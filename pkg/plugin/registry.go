package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Registry keeps the set of known implementations per role.
type Registry interface {
	Register(role Role, d Descriptor) error
	Find(role Role, name string) (Descriptor, bool)
	List(role Role) []Descriptor
}

type registryImpl struct {
	mu    sync.RWMutex
	roles map[Role]map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return &registryImpl{
		roles: make(map[Role]map[string]Descriptor),
	}
}

func (r *registryImpl) Register(role Role, d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !validRole(role) {
		return fmt.Errorf("plugin '%s' has unsupported role '%s'", d.Name, role)
	}
	if d.Name == "" {
		return fmt.Errorf("plugin descriptor for role '%s' has no name", role)
	}
	if d.New == nil {
		return fmt.Errorf("plugin '%s' has no constructor", d.Name)
	}

	byName := r.roles[role]
	if byName == nil {
		byName = make(map[string]Descriptor)
		r.roles[role] = byName
	}
	if _, exists := byName[d.Name]; exists {
		return fmt.Errorf("plugin '%s' already registered for role '%s'", d.Name, role)
	}
	byName[d.Name] = d
	return nil
}

// Find looks a descriptor up by exact, case-sensitive name. The second return
// value is false when nothing matched; a miss is never an error.
func (r *registryImpl) Find(role Role, name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.roles[role][name]
	return d, ok
}

// List returns every descriptor registered for a role, sorted by name.
// A role with no implementations yields an empty slice.
func (r *registryImpl) List(role Role) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byName := r.roles[role]
	out := make([]Descriptor, 0, len(byName))
	for _, d := range byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func validRole(role Role) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Disabled pairs an unavailable descriptor with the reason it is disabled.
type Disabled struct {
	Descriptor Descriptor
	Reason     string
}

// Partition splits a role's descriptors into available and unavailable sets.
// Availability is evaluated at call time, so a condition that changed since
// registration is reflected in the result.
func Partition(r Registry, role Role) (available []Descriptor, unavailable []Disabled) {
	for _, d := range r.List(role) {
		if reason := d.DisableReason(); reason != "" {
			unavailable = append(unavailable, Disabled{Descriptor: d, Reason: reason})
		} else {
			available = append(available, d)
		}
	}
	return available, unavailable
}

// Instantiate runs the descriptor's two-stage argument parse and constructs
// the implementation. Arguments the descriptor does not recognize are
// returned, not rejected; a higher-level combinator decides whether leftover
// arguments are an error.
func Instantiate(d Descriptor, args []string, defaults map[string]any) (any, []string, error) {
	var opts any
	leftover := args
	if d.Parse != nil {
		var err error
		opts, leftover, err = d.Parse(args, defaults)
		if err != nil {
			return nil, nil, err
		}
	}
	inst, err := d.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return inst, leftover, nil
}

var (
	globalMu       sync.RWMutex
	globalRegistry = NewRegistry()
)

// SetRegistry replaces the process-wide registry. Intended for tests.
func SetRegistry(r Registry) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalRegistry = r
}

// Default returns the process-wide registry that package-init registrations
// land in.
func Default() Registry {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalRegistry
}

// Register adds a descriptor to the process-wide registry.
func Register(role Role, d Descriptor) error {
	return Default().Register(role, d)
}

// MustRegister is Register for package-init use; a bad registration is a
// programming error and panics.
func MustRegister(role Role, d Descriptor) {
	if err := Register(role, d); err != nil {
		panic(err)
	}
}

// Find looks a descriptor up in the process-wide registry.
func Find(role Role, name string) (Descriptor, bool) {
	return Default().Find(role, name)
}

// List enumerates the process-wide registry for one role.
func List(role Role) []Descriptor {
	return Default().List(role)
}
