// Package gtypes holds the opaque identifier types shared across the
// selection engine, the observation actor, and the execution loop:
// Address, DeploymentId, and BlockPointer/BlockStatus.
package gtypes

import (
	"encoding/hex"
	"fmt"
)

// AddressSize is the length in bytes of an Address.
const AddressSize = 20

// Address is a 20-byte opaque identifier for an actor: an indexer, a user,
// or an allocation.
type Address [AddressSize]byte

// ParseAddress decodes a hex string (with or without a 0x prefix) into an
// Address.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := decodeHex(s, AddressSize)
	if err != nil {
		return a, fmt.Errorf("parse address: %w", err)
	}
	copy(a[:], b)
	return a, nil
}

// String renders the address as a 0x-prefixed hex string.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Less provides the deterministic "address bytes ascending" tiebreak the
// selection engine's sort requires.
func (a Address) Less(other Address) bool {
	for i := range a {
		if a[i] != other[i] {
			return a[i] < other[i]
		}
	}
	return false
}

// DeploymentIdSize is the length in bytes of a DeploymentId.
const DeploymentIdSize = 32

// DeploymentId is the 32-byte content-address of a subgraph deployment.
type DeploymentId [DeploymentIdSize]byte

// ParseDeploymentId decodes a hex string into a DeploymentId.
func ParseDeploymentId(s string) (DeploymentId, error) {
	var d DeploymentId
	b, err := decodeHex(s, DeploymentIdSize)
	if err != nil {
		return d, fmt.Errorf("parse deployment id: %w", err)
	}
	copy(d[:], b)
	return d, nil
}

// String renders the deployment id as a 0x-prefixed hex string. IPFSHash
// should be preferred for display to end users.
func (d DeploymentId) String() string {
	return "0x" + hex.EncodeToString(d[:])
}

// ipfsHashPrefix is the base58btc multihash prefix (sha2-256, 32 bytes) that
// makes a deployment id display like an IPFS CIDv0 hash: "Qm...".
var ipfsHashPrefix = []byte{0x12, 0x20}

// IPFSHash renders the deployment id as an IPFS-style base58 hash, e.g.
// "Qmaa1dXJUNYLMM1Wb7MPryB6nLwAD5fjybF4fuYWopH6zx".
func (d DeploymentId) IPFSHash() string {
	return base58Encode(append(append([]byte{}, ipfsHashPrefix...), d[:]...))
}

func decodeHex(s string, size int) ([]byte, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(b))
	}
	return b, nil
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// base58Encode implements base58btc encoding (Bitcoin/IPFS alphabet), with
// no external dependency: util/base58 and decred/base58 both implement
// exactly this alphabet, and this is a self-contained rewrite of the same
// algorithm applied to a fixed 34-byte multihash rather than an
// arbitrary-length byte slice.
func base58Encode(input []byte) string {
	zeros := 0
	for zeros < len(input) && input[zeros] == 0 {
		zeros++
	}

	size := (len(input)-zeros)*138/100 + 1
	buf := make([]byte, size)
	high := size - 1
	for _, b := range input {
		carry := int(b)
		i := size - 1
		for ; i > high || carry != 0; i-- {
			carry += 256 * int(buf[i])
			buf[i] = byte(carry % 58)
			carry /= 58
		}
		high = i
	}

	i := 0
	for i < size && buf[i] == 0 {
		i++
	}

	out := make([]byte, zeros+(size-i))
	for j := 0; j < zeros; j++ {
		out[j] = base58Alphabet[0]
	}
	for j := zeros; i < size; i, j = i+1, j+1 {
		out[j] = base58Alphabet[buf[i]]
	}
	return string(out)
}

// BlockPointer identifies a block by number and hash.
type BlockPointer struct {
	Number uint64
	Hash   [32]byte
}

// BlockStatus is an indexer's reported view of a deployment's indexing
// progress.
type BlockStatus struct {
	ReportedNumber      uint64
	BlocksBehind        uint64
	BehindReportedBlock bool
	MinBlock            *uint64
}

// UnresolvedBlockKind distinguishes the two ways a block may be requested
// from a block resolver.
type UnresolvedBlockKind int

const (
	// UnresolvedByHash requests resolution of a known hash.
	UnresolvedByHash UnresolvedBlockKind = iota
	// UnresolvedByNumber requests resolution of a known number.
	UnresolvedByNumber
)

// UnresolvedBlock is a block the execution loop needs resolved (number <->
// hash) before it can proceed with selection.
type UnresolvedBlock struct {
	Kind   UnresolvedBlockKind
	Hash   [32]byte
	Number uint64
}

// BlockHead is the resolver's answer to an UnresolvedBlock request.
type BlockHead struct {
	Block BlockPointer
}
