package deploynet

import (
	"fmt"
	"sort"
	"sync"
)

// Table maps network names to profiles. It is immutable once built and safe
// for concurrent use.
type Table struct {
	profiles map[string]Profile
	lookup   LookupFunc
}

// Option configures a Table.
type Option func(*Table)

// WithEnv sets the environment lookup used by remote-signing profiles.
func WithEnv(lookup LookupFunc) Option {
	return func(t *Table) {
		if lookup != nil {
			t.lookup = lookup
		}
	}
}

// NewTable builds a table from profiles. Names must be unique and every
// profile must carry either host and port or both provider variables.
// An empty NetworkID becomes AnyNetwork.
func NewTable(profiles []Profile, opts ...Option) (*Table, error) {
	t := &Table{
		profiles: make(map[string]Profile, len(profiles)),
		lookup:   lookupEnv,
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, p := range profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, exists := t.profiles[p.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
		}
		t.profiles[p.Name] = t.bind(p)
	}
	return t, nil
}

func (t *Table) bind(p Profile) Profile {
	if p.NetworkID == "" {
		p.NetworkID = AnyNetwork
	}
	p.slot = nil
	if p.RemoteSigning() {
		p.slot = &providerSlot{lookup: t.lookup}
	}
	return p
}

// Get returns the profile registered under name.
func (t *Table) Get(name string) (Profile, error) {
	p, ok := t.profiles[name]
	if !ok {
		return Profile{}, &NotFoundError{Name: name}
	}
	return p, nil
}

// Has reports whether name is registered.
func (t *Table) Has(name string) bool {
	_, ok := t.profiles[name]
	return ok
}

// Len returns the number of profiles.
func (t *Table) Len() int {
	return len(t.profiles)
}

// Names returns the registered names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.profiles))
	for name := range t.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profiles returns all profiles sorted by name.
func (t *Table) Profiles() []Profile {
	out := make([]Profile, 0, len(t.profiles))
	for _, name := range t.Names() {
		out = append(out, t.profiles[name])
	}
	return out
}

// Merge returns a new table where overrides replace same-named profiles and
// add new ones. The receiver is left untouched.
func (t *Table) Merge(overrides ...Profile) (*Table, error) {
	merged := make(map[string]Profile, len(t.profiles)+len(overrides))
	for name, p := range t.profiles {
		merged[name] = p
	}
	seen := make(map[string]bool, len(overrides))
	for _, p := range overrides {
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
		}
		seen[p.Name] = true
		merged[p.Name] = p
	}

	profiles := make([]Profile, 0, len(merged))
	for _, p := range merged {
		profiles = append(profiles, p)
	}
	return NewTable(profiles, WithEnv(t.lookup))
}

// BuiltinProfiles returns the built-in network profiles.
func BuiltinProfiles() []Profile {
	return []Profile{
		{
			Name:          NetworkMain,
			NetworkID:     AnyNetwork,
			PrivateKeyEnv: EnvDeployerPrivateKey,
			URLEnv:        EnvEthereumURL,
		},
		{
			Name:      NetworkDevelopment,
			Host:      "localhost",
			Port:      8546,
			NetworkID: AnyNetwork,
		},
		{
			Name:      NetworkTestnet,
			Host:      "ethnode",
			Port:      8545,
			NetworkID: AnyNetwork,
		},
		{
			Name:      NetworkParity,
			Host:      "172.17.0.4",
			Port:      8545,
			NetworkID: AnyNetwork,
		},
	}
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := NewTable(BuiltinProfiles())
	if err != nil {
		panic(err)
	}
	return t
})

// Default returns the built-in table. It is built once per process.
func Default() *Table {
	return defaultTable()
}
