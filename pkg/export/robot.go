package export

import (
	"io"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/hierview/pkg/metrics"
	"github.com/vanderheijden86/hierview/pkg/model"
)

// RobotCategory identifies the category a robot result was computed for.
type RobotCategory struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// RobotOutput is the JSON document written by `hv --robot`.
type RobotOutput struct {
	GeneratedAt     string                 `json:"generated_at"`
	DataPath        string                 `json:"data_path,omitempty"`
	Category        *RobotCategory         `json:"category,omitempty"`
	Categories      []RobotCategory        `json:"categories,omitempty"`
	Query           string                 `json:"query"`
	NormalizedQuery string                 `json:"normalized_query"`
	QueryActive     bool                   `json:"query_active"`
	ResultCount     int                    `json:"result_count"`
	NodeCount       int                    `json:"node_count"`
	Nodes           []model.HierarchyNode  `json:"nodes"`
	Metadata        *model.DatasetMetadata `json:"metadata,omitempty"`
	Timings         []metrics.TimingStats  `json:"timings,omitempty"`
	UsageHints      []string               `json:"usage_hints,omitempty"`
}

// NewRobotOutput fills the fields every robot document carries.
// Nodes is never null in the encoded output.
func NewRobotOutput(query, normalized string, nodes []model.HierarchyNode) RobotOutput {
	if nodes == nil {
		nodes = []model.HierarchyNode{}
	}
	return RobotOutput{
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		Query:           query,
		NormalizedQuery: normalized,
		QueryActive:     normalized != "",
		Nodes:           nodes,
	}
}

// CategorySummary converts a category root for robot output.
func CategorySummary(root *model.HierarchyNode) RobotCategory {
	return RobotCategory{ID: root.ID, Label: root.Label, Description: root.Description}
}

// WriteRobot encodes out as indented JSON.
func WriteRobot(w io.Writer, out RobotOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
