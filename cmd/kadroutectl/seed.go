package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/dustan1/kademlia/pkg/idgen"
	"github.com/dustan1/kademlia/pkg/routing"
)

// observation is one line of a seed file: a single operation to replay
// against the Router.
type observation struct {
	// Id is a bitstring of exactly the table's id length; any other
	// non-empty string is hashed into an id, and an empty Id means the
	// id is derived from Link.
	Id string `json:"id"`
	// Link is the node's transport link; when empty, the Id string is
	// used as the link. For ops other than "touch" it must match the
	// link the node was originally touched with.
	Link string `json:"link"`
	// Time is the logical timestamp for a "touch". Zero means "assign
	// the next BaseTime-derived value".
	Time int64 `json:"time"`
	// Op is one of "touch" (default), "stale", "lock", "unlock".
	Op string `json:"op"`
}

// loadSeed reads and decodes a seed file.
func loadSeed(path string) ([]observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kadroutectl: reading seed file: %w", err)
	}
	var out []observation
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("kadroutectl: parsing seed file: %w", err)
	}
	return out, nil
}

// resolveId turns an observation's Id field (or, if empty, its Link)
// into a routing.Id of the given length.
func resolveId(o observation, length int) (routing.Id, error) {
	if o.Id == "" {
		return idgen.DeriveId([]byte(o.Link), length)
	}
	return parseBitstring(o.Id, length)
}

// parseBitstring parses a string of '0'/'1' characters of exactly
// length into a routing.Id, or derives one by hashing s if it is not a
// bitstring of that exact length.
func parseBitstring(s string, length int) (routing.Id, error) {
	if len(s) != length {
		return idgen.DeriveId([]byte(s), length)
	}
	for _, r := range s {
		if r != '0' && r != '1' {
			return idgen.DeriveId([]byte(s), length)
		}
	}
	v, ok := new(big.Int).SetString(s, 2)
	if !ok {
		return routing.Id{}, fmt.Errorf("kadroutectl: %q is not a valid bitstring", s)
	}
	return routing.IdFromBigInt(v, length)
}
