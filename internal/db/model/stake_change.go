package model

// MarketDocument registers a market whose stake changes are indexed.
type MarketDocument struct {
	Name string `bson:"_id"`
}

// StakeChangeDocument mirrors one balance assignment written by the
// chain indexer. Balances are base-10 strings to keep full precision.
type StakeChangeDocument struct {
	Market       string `bson:"market" json:"market"`
	Address      string `bson:"address" json:"address"`
	SubAccountID uint64 `bson:"sub_account_id" json:"sub_account_id"`
	NewBalance   string `bson:"new_balance" json:"new_balance"`
	BlockHeight  uint64 `bson:"block_height" json:"block_height"`
	LogIndex     uint64 `bson:"log_index" json:"log_index"`
}
