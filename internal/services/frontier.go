package services

import (
	"container/heap"

	"ride-routing-service/internal/domain"
)

// frontierItem is a priority-queue entry for the shortest-path search.
type frontierItem struct {
	ref   domain.NodeRef
	cost  float64 // seconds from origin
	index int     // position in the heap, maintained by the heap methods
}

// frontier implements heap.Interface as a min-heap on cost.
type frontier []*frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool { return f[i].cost < f[j].cost }

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
	f[i].index, f[j].index = i, j
}

func (f *frontier) Push(x any) {
	item := x.(*frontierItem)
	item.index = len(*f)
	*f = append(*f, item)
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*f = old[:n-1]
	return item
}

// update lowers an item's cost and restores heap order.
func (f *frontier) update(item *frontierItem, cost float64) {
	item.cost = cost
	heap.Fix(f, item.index)
}
