package cache

// node is one entry of the store: the value, its lifetime and its access
// record, threaded on the store's recency list (head = MRU, tail = LRU).
type node struct {
	key string
	val any

	prev *node
	next *node

	inserted int64 // UnixNano of the last Set
	exp      int64 // inserted + ttl, UnixNano

	// seq is the store access counter at the last hit or write.
	// The tail of the list always has the smallest seq.
	seq uint64
}

func (n *node) Key() string { return n.key }
func (n *node) Seq() uint64 { return n.seq }
