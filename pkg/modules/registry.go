// Package modules resolves a deployed module address to the wrapper for its
// ABI version. Wrapper packages register a constructor per (name, version)
// from init(); importing a wrapper package is what makes it resolvable.
package modules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/blang/semver/v4"
	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/capability"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
)

// Descriptor identifies one resolved module instance.
type Descriptor struct {
	Kind    Kind
	Name    Name
	Address common.Address
	Version semver.Version
	Factory common.Address
}

// Module is what every registered wrapper returns.
type Module interface {
	capability.Capabilities
	Descriptor() Descriptor
}

// Constructor builds the wrapper for d over t.
type Constructor func(d Descriptor, t contract.Transport, opts ...contract.Option) Module

// Registration ties a constructor to one module name and version.
type Registration struct {
	Name    Name
	Version string
	New     Constructor
}

type regKey struct {
	name    Name
	version string
}

var (
	regMu    sync.RWMutex
	registry = map[regKey]Registration{}
)

// Register adds r to the global registry. Call it from init(); registering
// the same name and version twice panics.
func Register(r Registration) {
	v, err := semver.ParseTolerant(r.Version)
	if err != nil {
		panic(fmt.Sprintf("modules: bad version %q for %s: %v", r.Version, r.Name, err))
	}
	k := regKey{r.Name, v.String()}

	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[k]; dup {
		panic(fmt.Sprintf("modules: %s %s registered twice", r.Name, k.version))
	}
	registry[k] = r
}

func lookup(name Name, v semver.Version) (Registration, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	r, ok := registry[regKey{name, v.String()}]
	return r, ok
}

func hasName(name Name) bool {
	regMu.RLock()
	defer regMu.RUnlock()
	for k := range registry {
		if k.name == name {
			return true
		}
	}
	return false
}

// Supported lists the versions registered for name, ascending.
func Supported(name Name) []semver.Version {
	regMu.RLock()
	defer regMu.RUnlock()
	var out []semver.Version
	for k := range registry {
		if k.name == name {
			out = append(out, semver.MustParse(k.version))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LT(out[j]) })
	return out
}
