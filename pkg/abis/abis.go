// Package abis embeds the contract ABIs the wrappers are built against, one
// file per (module, version), and parses each of them once at init.
package abis

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed json/*.json
var files embed.FS

// Definition is a parsed ABI plus the order in which its events are declared.
// go-ethereum keeps events in a map, so the order is recovered from the raw
// JSON.
type Definition struct {
	Key    string
	ABI    abi.ABI
	Events []string
}

var definitions = map[string]*Definition{}

// Well-known keys.
const (
	SecurityToken               = "SecurityToken"
	ModuleFactory               = "ModuleFactory"
	Module                      = "Module"
	GeneralPermissionManager300 = "GeneralPermissionManager_3_0_0"
	GeneralTransferManager300   = "GeneralTransferManager_3_0_0"
	GeneralTransferManager310   = "GeneralTransferManager_3_1_0"
	LockUpTransferManager300    = "LockUpTransferManager_3_0_0"
	VolumeRestrictionTM300      = "VolumeRestrictionTM_3_0_0"
)

func init() {
	entries, err := files.ReadDir("json")
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		raw, err := files.ReadFile("json/" + e.Name())
		if err != nil {
			panic(err)
		}
		key := strings.TrimSuffix(e.Name(), ".json")
		def, err := parse(key, raw)
		if err != nil {
			panic(fmt.Sprintf("abis: %s: %v", key, err))
		}
		definitions[key] = def
	}
}

func parse(key string, raw []byte) (*Definition, error) {
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	var entries []struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}

	def := &Definition{Key: key, ABI: parsed}
	for _, e := range entries {
		if e.Type == "event" {
			def.Events = append(def.Events, e.Name)
		}
	}
	return def, nil
}

// Get returns the definition for key. ok is false if no such file is embedded.
func Get(key string) (*Definition, bool) {
	d, ok := definitions[key]
	return d, ok
}

// MustGet is Get for keys known at compile time.
func MustGet(key string) *Definition {
	d, ok := definitions[key]
	if !ok {
		panic("abis: unknown definition " + key)
	}
	return d
}

// Key builds the definition key for a module name and version, e.g.
// ("VolumeRestrictionTM", "3.0.0") -> "VolumeRestrictionTM_3_0_0".
func Key(name, version string) string {
	return name + "_" + strings.ReplaceAll(version, ".", "_")
}

// Keys returns all embedded definition keys, sorted.
func Keys() []string {
	out := make([]string, 0, len(definitions))
	for k := range definitions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
