// Package expansion tracks expand/collapse state for rendered tree
// positions.
//
// A position is the path of ids from the category root down to the node,
// with instance segments marked apart from subclass segments. The path
// names one entity and stays stable while the query reshapes the visible
// tree. Bind still checks the
// id it is given against the one recorded for the position and resets the
// position to expanded on a mismatch, so a collapse made on one entity can
// never leak onto another.
//
// While a query is active every position is displayed expanded. The stored
// value is left untouched and governs again once the query is cleared.
package expansion

import "strings"

// sep and instanceMark cannot appear in dataset ids, which are entity
// identifiers.
const (
	sep          = "\x1f"
	instanceMark = "\x1e"
)

// Key identifies a rendered position.
type Key string

// Root returns the key of a top-level node.
func Root(id string) Key {
	return Key(id)
}

// Child returns the key of the child with the given id under k.
func (k Key) Child(id string) Key {
	return Key(string(k) + sep + id)
}

// Instance returns the key of the instance with the given id under k. A
// subclass and an instance sharing an id under one parent get distinct
// keys.
func (k Key) Instance(id string) Key {
	return Key(string(k) + sep + instanceMark + id)
}

// IsInstance reports whether k was built with Instance.
func (k Key) IsInstance() bool {
	return strings.HasPrefix(k.last(), instanceMark)
}

// Depth returns how many ancestors the position has.
func (k Key) Depth() int {
	return strings.Count(string(k), sep)
}

// ID returns the id of the node at k.
func (k Key) ID() string {
	return strings.TrimPrefix(k.last(), instanceMark)
}

func (k Key) last() string {
	s := string(k)
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[i+len(sep):]
	}
	return s
}

type position struct {
	id       string
	expanded bool
}

// Controller owns the expansion state of every rendered position.
// It is not safe for concurrent use; the session drives it from one
// goroutine.
type Controller struct {
	positions   map[Key]*position
	queryActive bool
}

// New returns an empty controller with no active query.
func New() *Controller {
	return &Controller{positions: make(map[Key]*position)}
}

// SetQueryActive records whether a search query is active. It does not
// touch stored state.
func (c *Controller) SetQueryActive(active bool) {
	c.queryActive = active
}

// QueryActive reports whether a search query is active.
func (c *Controller) QueryActive() bool {
	return c.queryActive
}

// Bind records that the entity with the given id is rendered at k. A new
// position starts expanded; a position whose id changed is reset to
// expanded. It reports whether the position was created or reset.
func (c *Controller) Bind(k Key, id string) bool {
	p, ok := c.positions[k]
	if !ok {
		c.positions[k] = &position{id: id, expanded: true}
		return true
	}
	if p.id != id {
		p.id = id
		p.expanded = true
		return true
	}
	return false
}

// Toggle flips the stored state of a bound position. It is a no-op while
// a query is active or when nothing is bound at k, and reports whether
// the state changed.
func (c *Controller) Toggle(k Key) bool {
	if c.queryActive {
		return false
	}
	p, ok := c.positions[k]
	if !ok {
		return false
	}
	p.expanded = !p.expanded
	return true
}

// Expanded reports the displayed state of k: always true while a query is
// active, otherwise the stored state.
func (c *Controller) Expanded(k Key) bool {
	if c.queryActive {
		return true
	}
	return c.Stored(k)
}

// Stored returns the stored state of k. Unbound positions report the
// initial state, expanded.
func (c *Controller) Stored(k Key) bool {
	if p, ok := c.positions[k]; ok {
		return p.expanded
	}
	return true
}

// BoundID returns the id bound at k.
func (c *Controller) BoundID(k Key) (string, bool) {
	p, ok := c.positions[k]
	if !ok {
		return "", false
	}
	return p.id, true
}

// ExpandAll expands every bound position. No-op while a query is active.
func (c *Controller) ExpandAll() {
	c.setAll(true)
}

// CollapseAll collapses every bound position. No-op while a query is
// active.
func (c *Controller) CollapseAll() {
	c.setAll(false)
}

func (c *Controller) setAll(expanded bool) {
	if c.queryActive {
		return
	}
	for _, p := range c.positions {
		p.expanded = expanded
	}
}

// Retain drops state for every position not in keep. Call it after a
// render pass with the set of positions that were rendered.
func (c *Controller) Retain(keep map[Key]bool) {
	for k := range c.positions {
		if !keep[k] {
			delete(c.positions, k)
		}
	}
}

// Len returns the number of bound positions.
func (c *Controller) Len() int {
	return len(c.positions)
}
