// Package events validates, filters, decodes and streams the logs a module
// emits.
package events

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

// Set is the closed set of events a module version declares.
type Set struct {
	Module string
	ABI    abi.ABI
	// Names in declaration order.
	Names []string
}

// NewSet builds the event set of an embedded ABI definition.
func NewSet(module string, def *abis.Definition) *Set {
	return &Set{Module: module, ABI: def.ABI, Names: def.Events}
}

// Validate returns the named event, or InvalidData listing every valid name.
func (s *Set) Validate(name string) (abi.Event, error) {
	if ev, ok := s.ABI.Events[name]; ok {
		return ev, nil
	}
	return abi.Event{}, polyerr.InvalidData("", nil, "event name %q is not valid for %s, valid names: %s",
		name, s.Module, strings.Join(s.Names, ", "))
}

// Filter restricts a query by indexed argument values, keyed by argument
// name. Missing keys match anything.
type Filter map[string]any

// Event is one decoded log.
type Event struct {
	Name string
	Args map[string]any
	Log  types.Log
}

// Topics validates filter against the indexed inputs of ev and returns the
// positional topic filter, event ID first.
func (s *Set) Topics(ev abi.Event, filter Filter) ([][]common.Hash, error) {
	query := [][]any{{ev.ID}}
	used := 0
	for _, in := range ev.Inputs {
		if !in.Indexed {
			continue
		}
		v, ok := filter[in.Name]
		if !ok || v == nil {
			query = append(query, nil)
			continue
		}
		norm, err := normalize(in, v)
		if err != nil {
			return nil, err
		}
		query = append(query, []any{norm})
		used++
	}
	if used != countNonNil(filter) {
		for k := range filter {
			if !isIndexed(ev, k) {
				return nil, polyerr.InvalidData("filter", k, "not an indexed argument of %s", ev.Name)
			}
		}
	}

	topics, err := abi.MakeTopics(query...)
	if err != nil {
		return nil, polyerr.Wrap(err, polyerr.KindInvalidData, "filter", nil, "cannot encode topics")
	}
	return trimTrailing(topics), nil
}

// Decode unpacks l as the event named by its first topic.
func (s *Set) Decode(l types.Log) (Event, error) {
	if len(l.Topics) == 0 {
		return Event{}, polyerr.InvalidData("log", l.TxHash.Hex(), "anonymous log")
	}
	ev, err := s.ABI.EventByID(l.Topics[0])
	if err != nil {
		return Event{}, polyerr.Wrap(err, polyerr.KindInvalidData, "log", l.Topics[0].Hex(), "unknown event for %s", s.Module)
	}

	args := make(map[string]any)
	if len(ev.Inputs.NonIndexed()) > 0 {
		if err := ev.Inputs.NonIndexed().UnpackIntoMap(args, l.Data); err != nil {
			return Event{}, polyerr.Wrap(err, polyerr.KindInvalidData, "log", l.TxHash.Hex(), "cannot decode %s data", ev.Name)
		}
	}
	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, l.Topics[1:]); err != nil {
			return Event{}, polyerr.Wrap(err, polyerr.KindInvalidData, "log", l.TxHash.Hex(), "cannot decode %s topics", ev.Name)
		}
	}
	return Event{Name: ev.Name, Args: args, Log: l}, nil
}

func normalize(in abi.Argument, v any) (any, error) {
	bad := func() error {
		return polyerr.InvalidData("filter", in.Name, "value %v does not match type %s", v, in.Type.String())
	}
	switch in.Type.T {
	case abi.AddressTy:
		switch x := v.(type) {
		case common.Address:
			return x, nil
		case string:
			if !common.IsHexAddress(x) {
				return nil, bad()
			}
			return common.HexToAddress(x), nil
		}
	case abi.BoolTy:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case abi.UintTy, abi.IntTy:
		switch x := v.(type) {
		case *big.Int:
			return x, nil
		case uint8:
			return new(big.Int).SetUint64(uint64(x)), nil
		case uint64:
			return new(big.Int).SetUint64(x), nil
		case int:
			return big.NewInt(int64(x)), nil
		}
	case abi.FixedBytesTy:
		switch x := v.(type) {
		case [32]byte:
			return common.Hash(x), nil
		case common.Hash:
			return x, nil
		case string:
			b, err := units.StringToBytes32(x)
			if err != nil {
				return nil, err
			}
			return common.Hash(b), nil
		}
	}
	return nil, bad()
}

func isIndexed(ev abi.Event, name string) bool {
	for _, in := range ev.Inputs {
		if in.Indexed && in.Name == name {
			return true
		}
	}
	return false
}

func countNonNil(f Filter) int {
	n := 0
	for _, v := range f {
		if v != nil {
			n++
		}
	}
	return n
}

func trimTrailing(topics [][]common.Hash) [][]common.Hash {
	for len(topics) > 1 && len(topics[len(topics)-1]) == 0 {
		topics = topics[:len(topics)-1]
	}
	return topics
}
