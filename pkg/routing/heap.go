package routing

// pqItem is a priority queue entry. Ordering is by cost, then by hop count,
// so equal-cost paths deterministically prefer fewer edges.
type pqItem struct {
	node int32
	cost float64
	hops int32
}

// minHeap is a concrete-typed binary min-heap for Dijkstra.
// Avoids the interface boxing of container/heap.
type minHeap struct {
	items []pqItem
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) less(i, j int) bool {
	if h.items[i].cost != h.items[j].cost {
		return h.items[i].cost < h.items[j].cost
	}
	return h.items[i].hops < h.items[j].hops
}

func (h *minHeap) Push(node int32, cost float64, hops int32) {
	h.items = append(h.items, pqItem{node, cost, hops})
	h.siftUp(len(h.items) - 1)
}

func (h *minHeap) Pop() pqItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.less(left, smallest) {
			smallest = left
		}
		if right < n && h.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
