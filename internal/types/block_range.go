package types

import "fmt"

// BlockRange is a half-open range of block heights [From, To).
type BlockRange struct {
	From uint64 `json:"from" bson:"from"`
	To   uint64 `json:"to" bson:"to"`
}

func (r BlockRange) Validate() error {
	if r.From >= r.To {
		return fmt.Errorf("invalid block range [%d, %d)", r.From, r.To)
	}
	return nil
}

func (r BlockRange) Contains(height uint64) bool {
	return height >= r.From && height < r.To
}

func (r BlockRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.From, r.To)
}
