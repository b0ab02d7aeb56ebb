// Package merkle builds the reward accumulator. Its encoding matches
// Solidity's keccak256(abi.encodePacked(address, uint256)) leaves combined
// with sorted-pair hashing, so proofs can be checked by a standard
// sorted-pair verifier without direction bits.
package merkle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	ErrEmptyTree     = errors.New("merkle tree needs at least one leaf")
	ErrDuplicateLeaf = errors.New("duplicate leaf address")
	ErrNilAmount     = errors.New("leaf amount is nil")
	ErrLeafNotFound  = errors.New("leaf not found")
)

type Leaf struct {
	Address common.Address
	Amount  *uint256.Int
}

// Hash is keccak256(address[20] || amount as 32 byte big-endian).
func (l Leaf) Hash() common.Hash {
	return LeafHash(l.Address, l.Amount)
}

func LeafHash(addr common.Address, amount *uint256.Int) common.Hash {
	encodedAmount := amount.Bytes32()
	return crypto.Keccak256Hash(addr.Bytes(), encodedAmount[:])
}

// hashPair hashes the two nodes in ascending byte order.
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// Tree is an immutable binary Merkle tree. An unpaired node at the end of
// a level is promoted to the next level unchanged.
type Tree struct {
	leaves []Leaf
	index  map[common.Address]int
	layers [][]common.Hash
}

// NewTree builds a tree over leaves in the given order.
func NewTree(leaves []Leaf) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	t := &Tree{
		leaves: make([]Leaf, len(leaves)),
		index:  make(map[common.Address]int, len(leaves)),
	}
	level := make([]common.Hash, len(leaves))
	for i, leaf := range leaves {
		if leaf.Amount == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilAmount, leaf.Address.Hex())
		}
		if _, ok := t.index[leaf.Address]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLeaf, leaf.Address.Hex())
		}
		t.index[leaf.Address] = i
		t.leaves[i] = Leaf{Address: leaf.Address, Amount: new(uint256.Int).Set(leaf.Amount)}
		level[i] = leaf.Hash()
	}

	t.layers = append(t.layers, level)
	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		t.layers = append(t.layers, next)
		level = next
	}
	return t, nil
}

func (t *Tree) Root() common.Hash {
	top := t.layers[len(t.layers)-1]
	return top[0]
}

func (t *Tree) Len() int {
	return len(t.leaves)
}

func (t *Tree) Leaves() []Leaf {
	out := make([]Leaf, len(t.leaves))
	for i, leaf := range t.leaves {
		out[i] = Leaf{Address: leaf.Address, Amount: new(uint256.Int).Set(leaf.Amount)}
	}
	return out
}

// Proof returns the sibling hashes from leaf i up to the root. Levels
// where the node was promoted contribute nothing.
func (t *Tree) Proof(i int) ([]common.Hash, error) {
	if i < 0 || i >= len(t.leaves) {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", i, len(t.leaves))
	}

	proof := make([]common.Hash, 0, len(t.layers)-1)
	for _, level := range t.layers[:len(t.layers)-1] {
		sibling := i ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		i /= 2
	}
	return proof, nil
}

// ProofFor looks the address up and returns its leaf and proof.
func (t *Tree) ProofFor(addr common.Address) (Leaf, []common.Hash, error) {
	i, ok := t.index[addr]
	if !ok {
		return Leaf{}, nil, fmt.Errorf("%w: %s", ErrLeafNotFound, addr.Hex())
	}
	proof, err := t.Proof(i)
	if err != nil {
		return Leaf{}, nil, err
	}
	leaf := t.leaves[i]
	return Leaf{Address: leaf.Address, Amount: new(uint256.Int).Set(leaf.Amount)}, proof, nil
}

// Verify folds proof into leaf and compares the result with root.
func Verify(root, leaf common.Hash, proof []common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

func VerifyLeaf(root common.Hash, addr common.Address, amount *uint256.Int, proof []common.Hash) bool {
	if amount == nil {
		return false
	}
	return Verify(root, LeafHash(addr, amount), proof)
}
