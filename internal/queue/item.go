package queue

// Status is the lifecycle state of a queued item.
type Status string

const (
	// StatusQueued means the item waits for dispatch to the oracle.
	StatusQueued Status = "queued"
	// StatusPosted means the item is in flight: posted to the oracle and
	// awaiting a label decision. At most one item store-wide may be posted.
	StatusPosted Status = "posted"
	// StatusError parks an item for manual review after a failed resolution.
	StatusError Status = "error"
)

// Item is one unit of labeling work.
type Item struct {
	// Seq is the insertion sequence assigned by the store; it defines FIFO order.
	Seq uint64 `json:"seq"`
	// ID is the stable external identifier (message id). Unique while stored.
	ID string `json:"id"`

	Subject     string `json:"subject"`
	Source      string `json:"source"`
	CreatedAtMs int64  `json:"createdAtMs"`
	// Context is the free-text body handed to the oracle, already truncated
	// to the configured bound.
	Context string `json:"context"`

	// Labels holds the oracle's raw reply once a decision arrives.
	Labels string `json:"labels,omitempty"`

	Status Status `json:"status"`
	// PostedAtMs is set when the item transitions to posted; zero otherwise.
	PostedAtMs int64 `json:"postedAtMs,omitempty"`
	// Attempts counts dispatches, including re-dispatch after stale reclaim.
	Attempts int `json:"attempts,omitempty"`
}

// InFlight reports whether the item occupies the single in-flight slot.
func (i Item) InFlight() bool { return i.Status == StatusPosted }
