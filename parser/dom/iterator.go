package dom

// TreeIterator steps through a subtree in tree order, the order Walk enters
// nodes in. Unlike Walk it does not lock the document: the children and
// next sibling of a node are read only when the iterator moves past it, so
// nodes inserted there in the meantime are visited.
//
//	for it := doc.Iterate(root); it.Next(); {
//		n := it.Node()
//	}
type TreeIterator struct {
	doc   *Document
	root  NodeID
	cur   NodeID
	stack []NodeID
}

// Iterate returns an iterator over root and its descendants. Template
// contents are skipped, as in Walk.
func (d *Document) Iterate(root NodeID) *TreeIterator {
	return &TreeIterator{
		doc:   d,
		root:  root,
		cur:   NoNode,
		stack: []NodeID{root},
	}
}

// Next advances to the next node and reports whether there is one.
func (it *TreeIterator) Next() bool {
	if it.cur != NoNode {
		n := &it.doc.nodes[it.cur]
		if it.cur != it.root && n.nextSibling != NoNode {
			it.stack = append(it.stack, n.nextSibling)
		}
		if n.firstChild != NoNode {
			it.stack = append(it.stack, n.firstChild)
		}
	}
	if len(it.stack) == 0 {
		it.cur = NoNode
		return false
	}
	it.cur = it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	return true
}

// Node is the current node, NoNode before the first call to Next and after
// the last.
func (it *TreeIterator) Node() NodeID {
	return it.cur
}
