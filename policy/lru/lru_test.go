package lru

import (
	"testing"

	"github.com/IvanBrykalov/dashcache/policy"
)

type testNode struct {
	k   string
	seq uint64
}

func (n *testNode) Key() string { return n.k }
func (n *testNode) Seq() uint64 { return n.seq }

type mockHooks struct {
	pushFrontCnt   int
	moveToFrontCnt int
	removeCnt      int

	lastPush policy.Node
	lastMove policy.Node
}

func (h *mockHooks) MoveToFront(n policy.Node) { h.moveToFrontCnt++; h.lastMove = n }
func (h *mockHooks) PushFront(n policy.Node)   { h.pushFrontCnt++; h.lastPush = n }
func (h *mockHooks) Remove(policy.Node)        { h.removeCnt++ }
func (h *mockHooks) Back() policy.Node         { return nil }
func (h *mockHooks) Len() int                  { return 0 }

func TestLRU_OnAdd_PushFrontAndNoEvict(t *testing.T) {
	t.Parallel()

	h := &mockHooks{}
	p := New().New(h)

	n := &testNode{k: "org:a:employees", seq: 1}
	if ev := p.OnAdd(n); ev != nil {
		t.Fatalf("OnAdd must not propose an eviction, got %v", ev)
	}
	if h.pushFrontCnt != 1 || h.lastPush != n {
		t.Fatal("OnAdd must call PushFront exactly once with the node")
	}
	if h.moveToFrontCnt != 0 || h.removeCnt != 0 {
		t.Fatal("OnAdd must not call MoveToFront/Remove")
	}
}

// Hits and writes both count as use.
func TestLRU_OnGetAndUpdate_MoveToFront(t *testing.T) {
	t.Parallel()

	h := &mockHooks{}
	p := New().New(h)

	n := &testNode{k: "org:a:teams", seq: 2}
	p.OnGet(n)
	p.OnUpdate(n)

	if h.moveToFrontCnt != 2 || h.lastMove != n {
		t.Fatalf("want 2 MoveToFront calls, got %d", h.moveToFrontCnt)
	}
	if h.pushFrontCnt != 0 || h.removeCnt != 0 {
		t.Fatal("OnGet/OnUpdate must not call PushFront/Remove")
	}
}

func TestLRU_OnRemove_NoOp(t *testing.T) {
	t.Parallel()

	h := &mockHooks{}
	New().New(h).OnRemove(&testNode{k: "x"})

	if h.pushFrontCnt+h.moveToFrontCnt+h.removeCnt != 0 {
		t.Fatal("OnRemove must not touch the list")
	}
}
