// Package policy defines how the cache store orders its entries.
//
// The store owns a key->entry map and an intrusive recency list (head = most
// recently used, tail = least). A policy only moves entries along that list
// through Hooks; when the store needs room it evicts Back().
package policy

// Node is the view of a cache entry a policy gets to see.
type Node interface {
	Key() string
	// Seq is the access counter value recorded at the last hit or write.
	Seq() uint64
}

// Hooks are the O(1) list operations the store exposes to a policy.
// All calls happen with the store lock held.
type Hooks interface {
	MoveToFront(Node)
	PushFront(Node)
	Remove(Node)
	Back() Node
	Len() int
}

// Instance is a policy bound to one store's hooks.
//
//   - OnAdd may return an entry the store must evict immediately.
//   - OnGet and OnUpdate report a hit and a write respectively.
//   - OnRemove is a notification; the store unlinks the entry itself.
type Instance interface {
	OnAdd(Node) (evict Node)
	OnGet(Node)
	OnUpdate(Node)
	OnRemove(Node)
}

// Policy creates Instances.
type Policy interface {
	New(Hooks) Instance
}
