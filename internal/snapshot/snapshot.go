package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/ledger"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/merkle"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/reward"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/stake"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/types"
)

const Version = 1

var (
	ErrNoClaim        = errors.New("address has no claim in snapshot")
	ErrRootMismatch   = errors.New("snapshot root does not match its leaves")
	ErrUnsupportedVer = errors.New("unsupported snapshot version")
)

type Leaf struct {
	Address common.Address `json:"address"`
	Amount  sdkmath.Int    `json:"amount"`
}

type ClaimEntry struct {
	Amount sdkmath.Int    `json:"amount"`
	Proof  []common.Hash `json:"proof"`
}

type MarketSummary struct {
	Market                    string      `json:"market"`
	AverageTotalStake         sdkmath.Int `json:"averageTotalStake"`
	PreviousAverageTotalStake sdkmath.Int `json:"previousAverageTotalStake"`
	TotalSupply               sdkmath.Int `json:"totalSupply"`
	Participants              int         `json:"participants"`
}

// Snapshot is the artifact handed from the distributor to the seeding
// transaction and to claimants. It carries every proof, so a claimant
// only needs the artifact to claim.
type Snapshot struct {
	Version           int                           `json:"version"`
	PeriodID          uint64                        `json:"periodId"`
	Window            stake.Window                  `json:"window"`
	PreviousWindow    stake.Window                  `json:"previousWindow"`
	Root              common.Hash                   `json:"merkleRoot"`
	Pool              sdkmath.Int                   `json:"pool"`
	TotalAllocation   sdkmath.Int                   `json:"totalAllocation"`
	AverageTotalStake sdkmath.Int                   `json:"averageTotalStake"`
	StakePercent      sdkmath.Int                   `json:"stakePercent"`
	Target            sdkmath.Int                   `json:"target"`
	Markets           []MarketSummary               `json:"markets"`
	Leaves            []Leaf                        `json:"leaves"`
	Claims            map[common.Address]ClaimEntry `json:"claims"`
}

type BuildInput struct {
	PeriodID       uint64
	Window         stake.Window
	PreviousWindow stake.Window
	Sizing         *reward.PoolSizing
	Allocation     *reward.Allocation
	AverageTotal   sdkmath.Int
	Markets        []MarketSummary
}

// Build turns an allocation into a snapshot. The leaves keep the
// allocation order. An empty allocation produces a snapshot with the
// zero root and no claims; such a period is never seeded.
func Build(in BuildInput) (*Snapshot, error) {
	s := &Snapshot{
		Version:           Version,
		PeriodID:          in.PeriodID,
		Window:            in.Window,
		PreviousWindow:    in.PreviousWindow,
		Pool:              in.Allocation.Pool,
		TotalAllocation:   in.Allocation.Distributed,
		AverageTotalStake: in.AverageTotal,
		StakePercent:      in.Sizing.StakePercent,
		Target:            in.Sizing.Target,
		Markets:           in.Markets,
		Leaves:            make([]Leaf, 0, len(in.Allocation.Shares)),
		Claims:            make(map[common.Address]ClaimEntry, len(in.Allocation.Shares)),
	}
	if len(in.Allocation.Shares) == 0 {
		return s, nil
	}

	leaves := make([]merkle.Leaf, 0, len(in.Allocation.Shares))
	for _, share := range in.Allocation.Shares {
		amount, err := types.ToUint256(share.Amount)
		if err != nil {
			return nil, fmt.Errorf("share of %s: %w", share.Address.Hex(), err)
		}
		leaves = append(leaves, merkle.Leaf{Address: share.Address, Amount: amount})
		s.Leaves = append(s.Leaves, Leaf{Address: share.Address, Amount: share.Amount})
	}

	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return nil, err
	}
	s.Root = tree.Root()

	for i, leaf := range s.Leaves {
		proof, err := tree.Proof(i)
		if err != nil {
			return nil, err
		}
		s.Claims[leaf.Address] = ClaimEntry{Amount: leaf.Amount, Proof: proof}
	}
	return s, nil
}

func (s *Snapshot) IsEmpty() bool {
	return len(s.Leaves) == 0
}

// Claim returns the ledger claim of addr for this period.
func (s *Snapshot) Claim(addr common.Address) (ledger.Claim, error) {
	entry, ok := s.Claims[addr]
	if !ok {
		return ledger.Claim{}, fmt.Errorf("%w: %s in period %d", ErrNoClaim, addr.Hex(), s.PeriodID)
	}
	amount, err := types.ToUint256(entry.Amount)
	if err != nil {
		return ledger.Claim{}, err
	}
	proof := make([]common.Hash, len(entry.Proof))
	copy(proof, entry.Proof)
	return ledger.Claim{PeriodID: s.PeriodID, Amount: amount, Proof: proof}, nil
}

// Verify rebuilds the tree from the leaves and checks the root, the
// total and every stored proof.
func (s *Snapshot) Verify() error {
	if s.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVer, s.Version)
	}
	if s.IsEmpty() {
		if s.Root != (common.Hash{}) || len(s.Claims) != 0 {
			return ErrRootMismatch
		}
		return nil
	}

	leaves := make([]merkle.Leaf, 0, len(s.Leaves))
	total := sdkmath.ZeroInt()
	for _, leaf := range s.Leaves {
		amount, err := types.ToUint256(leaf.Amount)
		if err != nil {
			return err
		}
		leaves = append(leaves, merkle.Leaf{Address: leaf.Address, Amount: amount})
		total = total.Add(leaf.Amount)
	}
	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return err
	}
	if tree.Root() != s.Root {
		return fmt.Errorf("%w: computed %s, stored %s", ErrRootMismatch, tree.Root().Hex(), s.Root.Hex())
	}
	if !total.Equal(s.TotalAllocation) {
		return fmt.Errorf("snapshot total %s does not match leaves sum %s", s.TotalAllocation, total)
	}
	if len(s.Claims) != len(s.Leaves) {
		return fmt.Errorf("snapshot has %d claims for %d leaves", len(s.Claims), len(s.Leaves))
	}

	for _, leaf := range leaves {
		c, err := s.Claim(leaf.Address)
		if err != nil {
			return err
		}
		if !c.Amount.Eq(leaf.Amount) || !merkle.VerifyLeaf(s.Root, leaf.Address, c.Amount, c.Proof) {
			return fmt.Errorf("invalid proof for %s", leaf.Address.Hex())
		}
	}
	return nil
}

func Marshal(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}
