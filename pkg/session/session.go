// Package session holds the state of one browsing session: the loaded
// hierarchy, the selected category and the search query. Everything the
// views display is derived from it.
package session

import (
	"github.com/vanderheijden86/hierview/pkg/debug"
	"github.com/vanderheijden86/hierview/pkg/expansion"
	"github.com/vanderheijden86/hierview/pkg/model"
	"github.com/vanderheijden86/hierview/pkg/treefilter"
)

// Option configures a Session.
type Option func(*Session)

// WithClearQueryOnSelect makes SelectCategory clear the query when the
// selection changes. By default the query is kept and re-applied to the
// newly selected category.
func WithClearQueryOnSelect(clear bool) Option {
	return func(s *Session) {
		s.clearQueryOnSelect = clear
	}
}

// WithCategory preselects a category.
func WithCategory(id string) Option {
	return func(s *Session) {
		s.activeID = id
	}
}

// Session is the explicit state of one browser. It is not safe for
// concurrent use.
type Session struct {
	hierarchy          []model.HierarchyNode
	activeID           string
	query              string
	clearQueryOnSelect bool
	expansion          *expansion.Controller

	// displayed caches DisplayedNodes until the next state change.
	displayed      []model.HierarchyNode
	displayedValid bool
	// displayedSubclasses is how many leading displayed nodes are
	// subclasses of the root; the rest are instances.
	displayedSubclasses int
}

// New creates a session over hierarchy, which is treated as immutable.
func New(hierarchy []model.HierarchyNode, opts ...Option) *Session {
	s := &Session{
		hierarchy: hierarchy,
		expansion: expansion.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Categories returns the top-level category roots in dataset order.
func (s *Session) Categories() []model.HierarchyNode {
	return s.hierarchy
}

// SetHierarchy swaps in a reloaded hierarchy. The selected category id
// and the query are kept; if the category no longer exists nothing is
// displayed until another one is selected.
func (s *Session) SetHierarchy(hierarchy []model.HierarchyNode) {
	s.hierarchy = hierarchy
	s.invalidate()
}

// SelectCategory makes the category with the given id active.
func (s *Session) SelectCategory(id string) {
	if id == s.activeID {
		return
	}
	debug.Log("session: select category %q (query %q)", id, s.query)
	s.activeID = id
	if s.clearQueryOnSelect {
		s.setQuery("")
	}
	s.invalidate()
}

// ClearCategory deselects the active category.
func (s *Session) ClearCategory() {
	s.activeID = ""
	s.invalidate()
}

// ActiveCategoryID returns the selected category id, or "" when none is
// selected.
func (s *Session) ActiveCategoryID() string {
	return s.activeID
}

// ActiveRoot returns the selected category root. It reports false when no
// category is selected or the id is not in the hierarchy.
func (s *Session) ActiveRoot() (*model.HierarchyNode, bool) {
	if s.activeID == "" {
		return nil, false
	}
	for i := range s.hierarchy {
		if s.hierarchy[i].ID == s.activeID {
			return &s.hierarchy[i], true
		}
	}
	return nil, false
}

// SetQuery stores the raw query as typed.
func (s *Session) SetQuery(raw string) {
	if raw == s.query {
		return
	}
	s.setQuery(raw)
	s.invalidate()
}

func (s *Session) setQuery(raw string) {
	s.query = raw
	s.expansion.SetQueryActive(treefilter.NormalizeQuery(raw) != "")
}

// Query returns the raw query.
func (s *Session) Query() string {
	return s.query
}

// NormalizedQuery returns the query as the filter sees it.
func (s *Session) NormalizedQuery() string {
	return treefilter.NormalizeQuery(s.query)
}

// QueryActive reports whether the normalized query is non-empty.
func (s *Session) QueryActive() bool {
	return s.NormalizedQuery() != ""
}

// DisplayedNodes returns the children of the active root, filtered by the
// query when one is active. Without a query the original nodes are
// returned as they are.
func (s *Session) DisplayedNodes() []model.HierarchyNode {
	if s.displayedValid {
		return s.displayed
	}

	root, ok := s.ActiveRoot()
	switch {
	case !ok:
		s.displayed, s.displayedSubclasses = nil, 0
	case !s.QueryActive():
		s.displayed, s.displayedSubclasses = root.Children(), len(root.Subclasses)
	default:
		// Filtering is per node, so filtering the two collections apart
		// gives the same sequence as filtering their concatenation.
		q := s.NormalizedQuery()
		sub := treefilter.Filter(root.Subclasses, q)
		inst := treefilter.Filter(root.Instances, q)
		s.displayed = append(sub[:len(sub):len(sub)], inst...)
		s.displayedSubclasses = len(sub)
		debug.Log("session: %q under %s kept %d top-level nodes", q, root.ID, len(s.displayed))
	}
	s.displayedValid = true
	return s.displayed
}

// ResultCount returns the number of nodes kept by the filter, or 0 when
// no query is active.
func (s *Session) ResultCount() int {
	if !s.QueryActive() {
		return 0
	}
	return treefilter.CountNodes(s.DisplayedNodes())
}

// Expansion returns the session's expansion controller.
func (s *Session) Expansion() *expansion.Controller {
	return s.expansion
}

// Toggle flips the expansion of the node at k. See expansion.Controller.
func (s *Session) Toggle(k expansion.Key) bool {
	return s.expansion.Toggle(k)
}

func (s *Session) invalidate() {
	s.displayed = nil
	s.displayedSubclasses = 0
	s.displayedValid = false
}
