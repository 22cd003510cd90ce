// Package lru implements least-recently-used ordering.
//
// Every hit and every write moves the entry to the head of the store list,
// so the tail always holds the entry with the smallest access counter.
package lru

import "github.com/IvanBrykalov/dashcache/policy"

type lru struct {
	h policy.Hooks
}

type factory struct{}

// New returns the LRU policy.
func New() policy.Policy { return factory{} }

func (factory) New(h policy.Hooks) policy.Instance { return &lru{h: h} }

// OnAdd admits at MRU. Capacity is enforced by the store.
func (p *lru) OnAdd(n policy.Node) policy.Node {
	p.h.PushFront(n)
	return nil
}

func (p *lru) OnGet(n policy.Node)    { p.h.MoveToFront(n) }
func (p *lru) OnUpdate(n policy.Node) { p.h.MoveToFront(n) }
func (p *lru) OnRemove(policy.Node)   {}
