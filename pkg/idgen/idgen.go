// Package idgen derives routing.Id values from arbitrary content —
// typically a peer's transport link — by hashing with Keccak-256. This
// gives two independent observers of the same link the same id without
// any coordination, which is how cmd/kadroutectl assigns ids to the
// peers in a replayed observation file when the file only carries links.
package idgen

import (
	"golang.org/x/crypto/sha3"

	"github.com/dustan1/kademlia/pkg/routing"
)

// DeriveId hashes data with Keccak-256 and truncates the digest to an
// Id of the given bit length (at most 256).
func DeriveId(data []byte, length int) (routing.Id, error) {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	return routing.IdFromBytes(d.Sum(nil), length)
}

// FromLink is a convenience wrapper deriving an id from a peer's
// transport link.
func FromLink(link string, length int) (routing.Id, error) {
	return DeriveId([]byte(link), length)
}
