package model

// SnapshotDocument is the persisted, seedable form of a period snapshot.
// Payload holds the exact artifact bytes that were published under
// ContentID.
type SnapshotDocument struct {
	PeriodID        uint64 `bson:"_id"`
	ContentID       string `bson:"content_id"`
	Root            string `bson:"root"`
	Pool            string `bson:"pool"`
	TotalAllocation string `bson:"total_allocation"`
	Leaves          int    `bson:"leaves"`
	Payload         string `bson:"payload"`
	CreatedAt       int64  `bson:"created_at"`
	Seeded          bool   `bson:"seeded"`
}
