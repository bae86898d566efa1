package mst

import (
	"context"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/primal-host/atcore/cid"
)

// NodeStore is the pluggable persistence seam for materialised MST nodes:
// callers supply an implementation backed by memory, disk, or a remote
// blockstore. Node is addressed by its own content CID.
type NodeStore interface {
	Get(ctx context.Context, c cid.CID) ([]byte, error)
	Put(ctx context.Context, c cid.CID, data []byte) error
}

// item is one slot within a materialised node: either a leaf entry or a
// pointer to a lower-layer subtree sitting between two leaf entries (or
// before the first / after the last).
type item struct {
	isTree  bool
	entry   Entry
	subtree *builtNode
}

// builtNode is the in-memory form of one physical MST node, prior to (or
// just after) persistence.
type builtNode struct {
	layer int
	items []item
}

// itemWire is the CBOR wire shape of one item slot.
type itemWire struct {
	IsTree bool   `cbor:"is_tree"`
	Tree   string `cbor:"tree,omitempty"`
	Key    string `cbor:"k,omitempty"`
	Value  string `cbor:"v,omitempty"`
}

// nodeWire is the CBOR wire shape of a persisted node.
type nodeWire struct {
	Layer int        `cbor:"layer"`
	Items []itemWire `cbor:"items"`
}

// Root materialises the full multi-layer physical structure for t,
// persists every node through store, and returns the CID of the root
// node. An empty Tree has no root and returns ErrEmptyTree.
func (t *Tree) Root(ctx context.Context, store NodeStore) (cid.CID, error) {
	if len(t.entries) == 0 {
		return cid.CID{}, ErrEmptyTree
	}
	built := build(t.entries)
	return persistNode(ctx, store, built)
}

// ErrEmptyTree is returned by Root when the tree has no entries to
// persist.
var ErrEmptyTree = fmt.Errorf("mst: empty_tree")

// build recursively partitions a sorted entry slice into the interleaved
// leaf/subtree layer structure: the node's layer is the maximum depth
// among its entries; entries at that depth become direct leaf items,
// while maximal runs of lower-depth entries become recursively built
// subtree pointers.
func build(entries []Entry) *builtNode {
	maxDepth := 0
	for _, e := range entries {
		if d := CalculateKeyDepth(e.Key); d > maxDepth {
			maxDepth = d
		}
	}

	var items []item
	i := 0
	for i < len(entries) {
		if CalculateKeyDepth(entries[i].Key) == maxDepth {
			items = append(items, item{isTree: false, entry: entries[i]})
			i++
			continue
		}
		j := i
		for j < len(entries) && CalculateKeyDepth(entries[j].Key) != maxDepth {
			j++
		}
		items = append(items, item{isTree: true, subtree: build(entries[i:j])})
		i = j
	}
	return &builtNode{layer: maxDepth, items: items}
}

func persistNode(ctx context.Context, store NodeStore, n *builtNode) (cid.CID, error) {
	wire := nodeWire{Layer: n.layer}
	for _, it := range n.items {
		if it.isTree {
			subCID, err := persistNode(ctx, store, it.subtree)
			if err != nil {
				return cid.CID{}, err
			}
			wire.Items = append(wire.Items, itemWire{IsTree: true, Tree: subCID.String()})
		} else {
			wire.Items = append(wire.Items, itemWire{Key: it.entry.Key, Value: it.entry.Value.String()})
		}
	}
	data, err := cbor.Marshal(wire)
	if err != nil {
		return cid.CID{}, fmt.Errorf("mst: encode node: %w", err)
	}
	nodeCID, err := cid.FromData(data, cid.CodecDagCBOR)
	if err != nil {
		return cid.CID{}, err
	}
	if err := store.Put(ctx, nodeCID, data); err != nil {
		return cid.CID{}, fmt.Errorf("mst: put node %s: %w", nodeCID, err)
	}
	return nodeCID, nil
}

// Load reconstructs a Tree by recursively walking the persisted
// multi-layer structure rooted at root.
func Load(ctx context.Context, store NodeStore, root cid.CID) (*Tree, error) {
	entries, err := loadNode(ctx, store, root)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return FromEntries(entries), nil
}

func loadNode(ctx context.Context, store NodeStore, nodeCID cid.CID) ([]Entry, error) {
	data, err := store.Get(ctx, nodeCID)
	if err != nil {
		return nil, fmt.Errorf("mst: get node %s: %w", nodeCID, err)
	}
	var wire nodeWire
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("mst: decode node %s: %w", nodeCID, err)
	}

	var entries []Entry
	for _, it := range wire.Items {
		if it.IsTree {
			subCID, err := cid.Parse(it.Tree)
			if err != nil {
				return nil, fmt.Errorf("mst: node %s: subtree cid: %w", nodeCID, err)
			}
			sub, err := loadNode(ctx, store, subCID)
			if err != nil {
				return nil, err
			}
			entries = append(entries, sub...)
		} else {
			valCID, err := cid.Parse(it.Value)
			if err != nil {
				return nil, fmt.Errorf("mst: node %s: value cid: %w", nodeCID, err)
			}
			entries = append(entries, Entry{Key: it.Key, Value: valCID})
		}
	}
	return entries, nil
}
