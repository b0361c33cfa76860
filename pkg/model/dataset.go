package model

// Dataset is the top-level document produced by the hierarchy builder.
type Dataset struct {
	Hierarchy []HierarchyNode  `json:"hierarchy"`
	Metadata  *DatasetMetadata `json:"metadata,omitempty"`
}

// DatasetMetadata describes how the hierarchy was collected.
type DatasetMetadata struct {
	Endpoint              string            `json:"endpoint,omitempty"`
	SeedItems             int               `json:"seed_items,omitempty"`
	TotalItemsDiscovered  int               `json:"total_items_discovered,omitempty"`
	SubclassRelationships int               `json:"subclass_relationships,omitempty"`
	InstanceRelationships int               `json:"instance_relationships,omitempty"`
	ManuallyExcluded      []Reference       `json:"manually_excluded,omitempty"`
	PropertiesUsed        map[string]string `json:"properties_used,omitempty"`
}

// FindCategory returns the top-level node with the given id.
func (d *Dataset) FindCategory(id string) (*HierarchyNode, bool) {
	for i := range d.Hierarchy {
		if d.Hierarchy[i].ID == id {
			return &d.Hierarchy[i], true
		}
	}
	return nil, false
}

// Walk visits nodes depth-first, subclasses before instances. Returning
// false from fn skips the node's children.
func Walk(nodes []HierarchyNode, fn func(node *HierarchyNode, depth int) bool) {
	var walk func(nodes []HierarchyNode, depth int)
	walk = func(nodes []HierarchyNode, depth int) {
		for i := range nodes {
			node := &nodes[i]
			if !fn(node, depth) {
				continue
			}
			walk(node.Subclasses, depth+1)
			walk(node.Instances, depth+1)
		}
	}
	walk(nodes, 0)
}

// CollectIDs returns every id that appears anywhere under nodes.
func CollectIDs(nodes []HierarchyNode) map[string]bool {
	ids := make(map[string]bool)
	Walk(nodes, func(node *HierarchyNode, _ int) bool {
		ids[node.ID] = true
		return true
	})
	return ids
}
