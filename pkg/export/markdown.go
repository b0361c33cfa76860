package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vanderheijden86/hierview/pkg/model"
	"github.com/vanderheijden86/hierview/pkg/treefilter"
)

// NodeMarkdown describes a single node as markdown for the detail pane.
// path lists the labels from the category root down to the node's parent.
func NodeMarkdown(node *model.HierarchyNode, path []string) string {
	var sb strings.Builder

	label := node.Label
	if label == "" {
		label = node.ID
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(label)))
	sb.WriteString(fmt.Sprintf("`%s`", node.ID))
	if node.IsCircular() {
		sb.WriteString(fmt.Sprintf(" %s *%s*", CircularMarker, node.Note))
	} else if node.Note != "" {
		sb.WriteString(fmt.Sprintf(" *%s*", escapeMarkdown(node.Note)))
	}
	sb.WriteString("\n\n")

	if len(path) > 0 {
		parts := make([]string, len(path))
		for i, p := range path {
			parts[i] = escapeMarkdown(p)
		}
		sb.WriteString(fmt.Sprintf("%s\n\n", strings.Join(parts, " › ")))
	}

	if node.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", escapeMarkdown(node.Description)))
	}

	if n := len(node.Subclasses) + len(node.Instances); n > 0 {
		sb.WriteString(fmt.Sprintf("**%d subclasses, %d instances**\n\n", len(node.Subclasses), len(node.Instances)))
	}

	if len(node.UsedIn) > 0 {
		sb.WriteString("## Used in\n\n")
		for _, ref := range node.UsedIn {
			sb.WriteString(fmt.Sprintf("- %s `%s`\n", escapeMarkdown(ref.Label), ref.ID))
		}
		sb.WriteString("\n")
	}

	if len(node.IEEETerm) > 0 {
		sb.WriteString("## IEEE terms\n\n")
		for _, term := range node.IEEETerm {
			sb.WriteString(fmt.Sprintf("- %s\n", escapeMarkdown(term)))
		}
		sb.WriteString("\n")
	}

	if len(node.ExactMatch) > 0 {
		sb.WriteString("## Exact matches\n\n")
		for _, uri := range node.ExactMatch {
			sb.WriteString(fmt.Sprintf("- <%s>\n", uri))
		}
		sb.WriteString("\n")
	}

	if len(node.Thumbnail) > 0 {
		sb.WriteString("## Images\n\n")
		for _, uri := range node.Thumbnail {
			sb.WriteString(fmt.Sprintf("- <%s>\n", uri))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// GenerateMarkdown renders a category's displayed nodes as a markdown
// report: a header with the query and dataset metadata, then one nested
// list item per node.
func GenerateMarkdown(root *model.HierarchyNode, nodes []model.HierarchyNode, query string, meta *model.DatasetMetadata) string {
	var sb strings.Builder

	title := root.Label
	if title == "" {
		title = root.ID
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(title)))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", time.Now().Format(time.RFC1123)))
	if root.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", escapeMarkdown(root.Description)))
	}

	sb.WriteString("| Field | Value |\n|---|---|\n")
	sb.WriteString(fmt.Sprintf("| Category | `%s` |\n", root.ID))
	if query != "" {
		sb.WriteString(fmt.Sprintf("| Query | `%s` |\n", query))
	}
	sb.WriteString(fmt.Sprintf("| Nodes | %d |\n", treefilter.CountNodes(nodes)))
	if meta != nil {
		if meta.Endpoint != "" {
			sb.WriteString(fmt.Sprintf("| Endpoint | %s |\n", meta.Endpoint))
		}
		if meta.TotalItemsDiscovered > 0 {
			sb.WriteString(fmt.Sprintf("| Items discovered | %d |\n", meta.TotalItemsDiscovered))
		}
	}
	sb.WriteString("\n")

	if len(nodes) == 0 {
		sb.WriteString("*No items matching.*\n")
		return sb.String()
	}

	inst := TopLevelInstances(root, nodes)
	for i := range nodes {
		writeMarkdownNode(&sb, &nodes[i], inst[i], 0)
	}
	return sb.String()
}

func writeMarkdownNode(sb *strings.Builder, node *model.HierarchyNode, instance bool, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("- ")
	if instance {
		sb.WriteString("*instance* ")
	}
	sb.WriteString(fmt.Sprintf("**%s** `%s`", escapeMarkdown(node.Label), node.ID))
	if node.IsCircular() {
		sb.WriteString(" " + CircularMarker)
	}
	if node.Description != "" {
		sb.WriteString(": " + escapeMarkdown(oneLine(node.Description)))
	}
	sb.WriteString("\n")
	for i := range node.Subclasses {
		writeMarkdownNode(sb, &node.Subclasses[i], false, depth+1)
	}
	for i := range node.Instances {
		writeMarkdownNode(sb, &node.Instances[i], true, depth+1)
	}
}

// SaveMarkdownToFile writes GenerateMarkdown output to filename.
func SaveMarkdownToFile(filename string, root *model.HierarchyNode, nodes []model.HierarchyNode, query string, meta *model.DatasetMetadata) error {
	content := GenerateMarkdown(root, nodes, query, meta)
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}

var markdownEscaper = strings.NewReplacer(
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"[", "\\[",
	"]", "\\]",
	"|", "\\|",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
