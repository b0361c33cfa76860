package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/hierview/internal/datasource"
	"github.com/vanderheijden86/hierview/pkg/analysis"
	"github.com/vanderheijden86/hierview/pkg/config"
	"github.com/vanderheijden86/hierview/pkg/export"
	"github.com/vanderheijden86/hierview/pkg/metrics"
	"github.com/vanderheijden86/hierview/pkg/model"
	"github.com/vanderheijden86/hierview/pkg/session"
	"github.com/vanderheijden86/hierview/pkg/treefilter"
)

// resolveCategory returns the category to open: the flag when given, else
// the configured default if the dataset still has it, else none.
func resolveCategory(flagID string, cfg config.Config, ds *model.Dataset) (string, error) {
	if flagID != "" {
		if _, ok := ds.FindCategory(flagID); !ok {
			return "", fmt.Errorf("unknown category %q", flagID)
		}
		return flagID, nil
	}
	if id := cfg.UI.DefaultCategory; id != "" {
		if _, ok := ds.FindCategory(id); ok {
			return id, nil
		}
	}
	return "", nil
}

// newSession opens a headless session on a category with the query set.
func newSession(ds *model.Dataset, categoryID, query string) (*session.Session, error) {
	s := session.New(ds.Hierarchy)
	if categoryID != "" {
		if _, ok := ds.FindCategory(categoryID); !ok {
			return nil, fmt.Errorf("unknown category %q", categoryID)
		}
		s.SelectCategory(categoryID)
	}
	s.SetQuery(query)
	return s, nil
}

func buildRobotOutput(s *session.Session, data loadedData, timings bool) export.RobotOutput {
	out := export.NewRobotOutput(s.Query(), s.NormalizedQuery(), s.DisplayedNodes())
	out.DataPath = data.Path
	out.Metadata = data.Dataset.Metadata
	out.ResultCount = s.ResultCount()
	out.NodeCount = treefilter.CountNodes(out.Nodes)

	if root, ok := s.ActiveRoot(); ok {
		c := export.CategorySummary(root)
		out.Category = &c
		out.UsageHints = []string{
			"jq '.nodes[] | {id, label}' - top-level nodes of the category",
			"jq '.result_count' - nodes kept by the query, 0 without one",
			"hv --text --category " + root.ID + " - same tree as indented text",
		}
	} else {
		out.Categories = make([]export.RobotCategory, 0, len(s.Categories()))
		for i := range s.Categories() {
			out.Categories = append(out.Categories, export.CategorySummary(&s.Categories()[i]))
		}
		out.UsageHints = []string{
			"jq '.categories[].id' - available category ids",
			"hv --robot --category ID --query Q - filter one category",
		}
	}

	if timings {
		out.Timings = metrics.AllTimingStats()
	}
	return out
}

// writeTextOutput prints the displayed tree, or the category list when no
// category is selected.
func writeTextOutput(w io.Writer, s *session.Session, showDescriptions bool) error {
	root, ok := s.ActiveRoot()
	if !ok {
		return export.WriteText(w, nil, s.Categories(), export.TextOptions{ShowIDs: true, MaxDepth: 1})
	}

	opts := export.DefaultTextOptions()
	opts.ShowDescriptions = showDescriptions
	if err := export.WriteText(w, root, s.DisplayedNodes(), opts); err != nil {
		return err
	}
	if s.QueryActive() && s.ResultCount() == 0 {
		_, err := fmt.Fprintf(w, "No items matching %q\n", s.Query())
		return err
	}
	return nil
}

func writeMarkdownReport(path string, s *session.Session, ds *model.Dataset) error {
	root, ok := s.ActiveRoot()
	if !ok {
		return errors.New("a category is required (--category or ui.default_category)")
	}
	return export.SaveMarkdownToFile(path, root, s.DisplayedNodes(), s.Query(), ds.Metadata)
}

func writeTreeSnapshot(path string, s *session.Session) error {
	root, ok := s.ActiveRoot()
	if !ok {
		return errors.New("a category is required (--category or ui.default_category)")
	}
	return export.SaveTreeSnapshot(export.SnapshotOptions{
		Path:  path,
		Root:  root,
		Nodes: s.DisplayedNodes(),
		Query: s.NormalizedQuery(),
	})
}

// runCheck prints the structural report, and source mismatches when the
// data directory holds more than one source. It reports whether the
// dataset is clean.
func runCheck(w io.Writer, data loadedData) bool {
	report := analysis.Check(data.Dataset.Hierarchy)
	fmt.Fprint(w, report.Summary())
	ok := !report.HasProblems()

	if data.Dir == "" {
		return ok
	}
	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		DataDir:                data.Dir,
		ValidateAfterDiscovery: true,
	})
	if err != nil || len(sources) < 2 {
		return ok
	}
	for _, diff := range datasource.CheckAllSourcesConsistent(sources, datasource.DefaultDiffOptions()) {
		fmt.Fprint(w, diff.Summary())
		ok = false
	}
	return ok
}

func categoryOptionLabel(c *model.HierarchyNode) string {
	label := c.Label
	if label == "" {
		label = c.ID
	}
	return fmt.Sprintf("%s (%s) · %d", label, c.ID, treefilter.CountNodes(c.Children()))
}

// pickCategory asks for a category with a select form. current is
// preselected.
func pickCategory(ds *model.Dataset, current string) (string, error) {
	if len(ds.Hierarchy) == 0 {
		return "", errors.New("dataset has no categories")
	}
	options := make([]huh.Option[string], 0, len(ds.Hierarchy))
	for i := range ds.Hierarchy {
		c := &ds.Hierarchy[i]
		options = append(options, huh.NewOption(categoryOptionLabel(c), c.ID))
	}

	choice := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which category do you want to browse?").
				Options(options...).
				Value(&choice),
		),
	).WithTheme(huh.ThemeDracula())
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}
