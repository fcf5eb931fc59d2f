package scene

import "fmt"

// Snapshot is a point-in-time capture of a node subtree: type tag, flat
// string attributes, text content, and child order. Snapshots are plain
// data, safe to hold across frames and to diff.
type Snapshot struct {
	Type  string
	Key   string
	Text  string
	Attrs map[string]string
	Kids  []Snapshot
}

// PatchOp identifies a tree mutation produced by Diff.
type PatchOp uint8

const (
	// OpReplaceText replaces a text node's content
	OpReplaceText PatchOp = 0x01
	// OpSetProp sets or replaces an attribute
	OpSetProp PatchOp = 0x02
	// OpRemoveNode removes a node
	OpRemoveNode PatchOp = 0x03
	// OpInsertNode inserts a new subtree
	OpInsertNode PatchOp = 0x04
	// OpRemoveProp removes an attribute
	OpRemoveProp PatchOp = 0x05
	// OpMoveNode moves a node to a new position among its siblings
	OpMoveNode PatchOp = 0x06
)

// Patch is a single mutation. NodeID and ParentID are assigned in diff
// order and are stable within one Diff call.
type Patch struct {
	Op       PatchOp
	NodeID   uint32
	ParentID uint32 // for insert and move operations
	BeforeID uint32 // for insert and move operations (0 means append)
	Name     string // attribute name for set/remove
	Value    string // text content or attribute value
	Node     *Snapshot
}

// String returns a human-readable representation of the patch.
func (p Patch) String() string {
	switch p.Op {
	case OpReplaceText:
		return fmt.Sprintf("ReplaceText(node=%d, text=%q)", p.NodeID, p.Value)
	case OpSetProp:
		return fmt.Sprintf("SetProp(node=%d, name=%q, value=%q)", p.NodeID, p.Name, p.Value)
	case OpRemoveProp:
		return fmt.Sprintf("RemoveProp(node=%d, name=%q)", p.NodeID, p.Name)
	case OpRemoveNode:
		return fmt.Sprintf("RemoveNode(node=%d)", p.NodeID)
	case OpInsertNode:
		return fmt.Sprintf("InsertNode(parent=%d, before=%d)", p.ParentID, p.BeforeID)
	case OpMoveNode:
		return fmt.Sprintf("MoveNode(node=%d, parent=%d, before=%d)", p.NodeID, p.ParentID, p.BeforeID)
	default:
		return fmt.Sprintf("Unknown(op=%d)", p.Op)
	}
}

type diffContext struct {
	patches []Patch
	counter uint32
	ids     map[*Snapshot]uint32
}

func newDiffContext() *diffContext {
	return &diffContext{
		patches: make([]Patch, 0, 16),
		counter: 1,
		ids:     make(map[*Snapshot]uint32),
	}
}

func (ctx *diffContext) id(s *Snapshot) uint32 {
	if s == nil {
		return 0
	}
	if id, ok := ctx.ids[s]; ok {
		return id
	}
	id := ctx.counter
	ctx.counter++
	ctx.ids[s] = id
	return id
}

func (ctx *diffContext) add(p Patch) {
	ctx.patches = append(ctx.patches, p)
}

// Diff computes the patches that transform prev into next.
func Diff(prev, next *Snapshot) []Patch {
	ctx := newDiffContext()
	diffNode(ctx, prev, next, 0)
	return ctx.patches
}

func diffNode(ctx *diffContext, prev, next *Snapshot, parentID uint32) {
	if prev == nil && next == nil {
		return
	}

	if prev != nil && next == nil {
		ctx.add(Patch{Op: OpRemoveNode, NodeID: ctx.id(prev)})
		return
	}

	if prev == nil {
		ctx.add(Patch{Op: OpInsertNode, NodeID: ctx.id(next), ParentID: parentID, Node: next})
		return
	}

	// A type change replaces the whole subtree.
	if prev.Type != next.Type {
		ctx.add(Patch{Op: OpRemoveNode, NodeID: ctx.id(prev)})
		ctx.add(Patch{Op: OpInsertNode, NodeID: ctx.id(next), ParentID: parentID, Node: next})
		return
	}

	nodeID := ctx.id(prev)
	ctx.ids[next] = nodeID

	if prev.Type == "text" {
		if prev.Text != next.Text {
			ctx.add(Patch{Op: OpReplaceText, NodeID: nodeID, Value: next.Text})
		}
		return
	}

	diffAttrs(ctx, nodeID, prev.Attrs, next.Attrs)
	diffKids(ctx, nodeID, prev.Kids, next.Kids)
}

func diffAttrs(ctx *diffContext, nodeID uint32, prev, next map[string]string) {
	for name, pv := range prev {
		nv, ok := next[name]
		if !ok {
			ctx.add(Patch{Op: OpRemoveProp, NodeID: nodeID, Name: name})
		} else if pv != nv {
			ctx.add(Patch{Op: OpSetProp, NodeID: nodeID, Name: name, Value: nv})
		}
	}
	for name, nv := range next {
		if _, ok := prev[name]; !ok {
			ctx.add(Patch{Op: OpSetProp, NodeID: nodeID, Name: name, Value: nv})
		}
	}
}

func diffKids(ctx *diffContext, parentID uint32, prev, next []Snapshot) {
	if len(prev) == 0 && len(next) == 0 {
		return
	}
	if len(next) == 0 {
		for i := range prev {
			diffNode(ctx, &prev[i], nil, parentID)
		}
		return
	}
	if len(prev) == 0 {
		for i := range next {
			diffNode(ctx, nil, &next[i], parentID)
		}
		return
	}

	keyed := false
	for i := range next {
		if next[i].Key != "" {
			keyed = true
			break
		}
	}
	if keyed {
		diffKeyedKids(ctx, parentID, prev, next)
	} else {
		diffIndexedKids(ctx, parentID, prev, next)
	}
}

// diffIndexedKids matches children positionally.
func diffIndexedKids(ctx *diffContext, parentID uint32, prev, next []Snapshot) {
	min := len(prev)
	if len(next) < min {
		min = len(next)
	}
	for i := 0; i < min; i++ {
		diffNode(ctx, &prev[i], &next[i], parentID)
	}
	for i := min; i < len(prev); i++ {
		diffNode(ctx, &prev[i], nil, parentID)
	}
	for i := min; i < len(next); i++ {
		diffNode(ctx, nil, &next[i], parentID)
	}
}

// diffKeyedKids reconciles by key so reordered children move instead of
// being rebuilt.
func diffKeyedKids(ctx *diffContext, parentID uint32, prev, next []Snapshot) {
	prevByKey := make(map[string]int)
	for i := range prev {
		if k := prev[i].Key; k != "" {
			prevByKey[k] = i
		}
	}

	matched := make([]bool, len(prev))
	var moves []struct {
		nodeID uint32
		index  int
	}

	for nextIdx := range next {
		child := &next[nextIdx]
		if key := child.Key; key != "" {
			if prevIdx, found := prevByKey[key]; found {
				matched[prevIdx] = true
				nodeID := ctx.id(&prev[prevIdx])
				diffNode(ctx, &prev[prevIdx], child, parentID)
				if prevIdx != nextIdx {
					moves = append(moves, struct {
						nodeID uint32
						index  int
					}{nodeID, nextIdx})
				}
			} else {
				diffNode(ctx, nil, child, parentID)
			}
			continue
		}

		// Unkeyed child among keyed siblings: match by position.
		if nextIdx < len(prev) && prev[nextIdx].Key == "" && !matched[nextIdx] {
			matched[nextIdx] = true
			diffNode(ctx, &prev[nextIdx], child, parentID)
		} else {
			diffNode(ctx, nil, child, parentID)
		}
	}

	for i, ok := range matched {
		if !ok {
			diffNode(ctx, &prev[i], nil, parentID)
		}
	}

	for _, mv := range moves {
		var beforeID uint32
		if mv.index+1 < len(next) {
			beforeID = ctx.id(&next[mv.index+1])
		}
		ctx.add(Patch{Op: OpMoveNode, NodeID: mv.nodeID, ParentID: parentID, BeforeID: beforeID})
	}
}
