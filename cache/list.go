package cache

import "github.com/IvanBrykalov/dashcache/policy"

// insertFront links n at MRU.
func (s *Store) insertFront(n *node) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
}

// moveToFront promotes n to MRU.
func (s *Store) moveToFront(n *node) {
	if n == s.head {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

// removeNode unlinks n from the list.
func (s *Store) removeNode(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
}

// storeHooks exposes the list to the policy. Map bookkeeping stays in Store.
type storeHooks struct{ s *Store }

func (h storeHooks) MoveToFront(x policy.Node) { h.s.moveToFront(x.(*node)) }
func (h storeHooks) PushFront(x policy.Node)   { h.s.insertFront(x.(*node)) }
func (h storeHooks) Remove(x policy.Node)      { h.s.removeNode(x.(*node)) }
func (h storeHooks) Len() int                  { return h.s.len }

func (h storeHooks) Back() policy.Node {
	if h.s.tail == nil {
		return nil
	}
	return h.s.tail
}
