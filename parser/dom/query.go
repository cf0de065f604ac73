package dom

import "github.com/pkg/errors"

// ErrQueryUninitialized is returned for a query that was never told whether
// to find the first match or all of them.
var ErrQueryUninitialized = errors.New("dom: query has no search type")

// SearchType says how many matches a Query collects.
type SearchType int

const (
	SearchUninitialized SearchType = iota
	SearchFirst
	SearchAll
)

// ConditionKind is the test a Condition applies to a node.
type ConditionKind int

const (
	EqualsTag ConditionKind = iota
	EqualsID
	ContainsClass
	ContainsAttribute
	ContainsChildTag
	HasParentTag
)

var conditionNames = [...]string{
	EqualsTag:         "EqualsTag",
	EqualsID:          "EqualsID",
	ContainsClass:     "ContainsClass",
	ContainsAttribute: "ContainsAttribute",
	ContainsChildTag:  "ContainsChildTag",
	HasParentTag:      "HasParentTag",
}

func (k ConditionKind) String() string {
	if int(k) < len(conditionNames) {
		return conditionNames[k]
	}
	return "ConditionKind(?)"
}

type Condition struct {
	Kind  ConditionKind
	Value string
}

// Query selects the nodes matching every one of its conditions. It is built
// by chaining:
//
//	q := dom.NewQuery().EqualsTag("li").ContainsClass("done").FindAll()
type Query struct {
	Conditions []Condition
	Search     SearchType
}

func NewQuery() *Query {
	return &Query{}
}

func (q *Query) add(k ConditionKind, v string) *Query {
	q.Conditions = append(q.Conditions, Condition{Kind: k, Value: v})
	return q
}

// EqualsTag matches elements with the local name tag.
func (q *Query) EqualsTag(tag string) *Query { return q.add(EqualsTag, tag) }

// EqualsID matches elements whose id attribute is id.
func (q *Query) EqualsID(id string) *Query { return q.add(EqualsID, id) }

// ContainsClass matches elements whose class list holds class.
func (q *Query) ContainsClass(class string) *Query { return q.add(ContainsClass, class) }

// ContainsAttribute matches elements that have the attribute, whatever its
// value.
func (q *Query) ContainsAttribute(key string) *Query { return q.add(ContainsAttribute, key) }

// ContainsChildTag matches nodes with a child element named tag.
func (q *Query) ContainsChildTag(tag string) *Query { return q.add(ContainsChildTag, tag) }

// HasParentTag matches nodes whose parent is an element named tag.
func (q *Query) HasParentTag(tag string) *Query { return q.add(HasParentTag, tag) }

func (q *Query) FindFirst() *Query {
	q.Search = SearchFirst
	return q
}

func (q *Query) FindAll() *Query {
	q.Search = SearchAll
	return q
}

// Query returns the nodes under root, root included, that match q, in tree
// order. A SearchFirst query returns at most one node.
func (d *Document) Query(root NodeID, q *Query) ([]NodeID, error) {
	if q == nil || q.Search == SearchUninitialized {
		return nil, ErrQueryUninitialized
	}
	if !d.valid(root) {
		return nil, errors.Wrapf(ErrNotFound, "query root %d", root)
	}
	var found []NodeID
	done := false
	d.Walk(root, VisitorFuncs{EnterFunc: func(n NodeRef) bool {
		if done {
			return false
		}
		if d.matches(n.ID, q.Conditions) {
			found = append(found, n.ID)
			done = q.Search == SearchFirst
		}
		return !done
	}})
	return found, nil
}

func (d *Document) matches(id NodeID, conds []Condition) bool {
	for _, c := range conds {
		if !d.matchesCondition(id, c) {
			return false
		}
	}
	return true
}

func (d *Document) matchesCondition(id NodeID, c Condition) bool {
	n := &d.nodes[id]
	switch c.Kind {
	case ContainsChildTag:
		for ch := n.firstChild; ch != NoNode; ch = d.nodes[ch].nextSibling {
			if d.nodes[ch].typ == ElementNode && d.nodes[ch].name == c.Value {
				return true
			}
		}
		return false
	case HasParentTag:
		return n.parent != NoNode && d.nodes[n.parent].typ == ElementNode && d.nodes[n.parent].name == c.Value
	}
	if n.typ != ElementNode {
		return false
	}
	switch c.Kind {
	case EqualsTag:
		return n.name == c.Value
	case EqualsID:
		v, ok := d.Attr(id, "id")
		return ok && v == c.Value
	case ContainsClass:
		return n.classes != nil && n.classes.Contains(c.Value)
	case ContainsAttribute:
		_, ok := d.Attr(id, c.Value)
		return ok
	}
	return false
}
