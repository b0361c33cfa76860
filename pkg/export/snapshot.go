package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/hierview/pkg/model"
	"github.com/vanderheijden86/hierview/pkg/treefilter"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

// DefaultSnapshotRows caps the rows drawn when SnapshotOptions.MaxRows is 0.
const DefaultSnapshotRows = 400

// SnapshotOptions controls tree snapshot export.
type SnapshotOptions struct {
	Path    string                // Output path; format inferred from extension when Format empty
	Format  string                // "svg" or "png" (case-insensitive)
	Root    *model.HierarchyNode  // Category the nodes belong to
	Nodes   []model.HierarchyNode // Displayed nodes, possibly filtered
	Query   string                // Normalized query; matches are highlighted
	MaxRows int
}

// SaveTreeSnapshot renders the displayed tree of a category, fully
// expanded, as an SVG or PNG outline diagram.
func SaveTreeSnapshot(opts SnapshotOptions) error {
	if opts.Root == nil {
		return fmt.Errorf("a category is required for snapshot export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		case ".svg":
			format = "svg"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildSnapshotLayout(opts)
	if format == "png" {
		return renderTreePNG(opts.Path, layout)
	}

	f, err := os.Create(opts.Path)
	if err != nil {
		return fmt.Errorf("create svg: %w", err)
	}
	if err := renderTreeSVG(f, layout); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTreeSVG writes the SVG snapshot of opts to w. Path and Format are
// ignored.
func WriteTreeSVG(w io.Writer, opts SnapshotOptions) error {
	if opts.Root == nil {
		return fmt.Errorf("a category is required for snapshot export")
	}
	return renderTreeSVG(w, buildSnapshotLayout(opts))
}

// --- layout ------------------------------------------------------------------

const (
	snapMargin  = 32
	snapHeader  = 96
	snapRowH    = 22
	snapIndent  = 24
	snapCharW   = 7
	snapLabelW  = 72
	snapMinW    = 640
	circularTag = "[circular]"
)

type snapshotRow struct {
	Text     string
	Depth    int
	Parent   int // row index of the parent, -1 at the top level
	Instance bool
	Match    bool
	Circular bool
}

type snapshotLayout struct {
	Title    string
	Summary  string
	Rows     []snapshotRow
	Hidden   int
	Width    int
	Height   int
	Empty    bool
	rowLimit int
}

func buildSnapshotLayout(opts SnapshotOptions) snapshotLayout {
	limit := opts.MaxRows
	if limit <= 0 {
		limit = DefaultSnapshotRows
	}
	l := snapshotLayout{
		Title:    NodeLine(opts.Root, true, false),
		Empty:    len(opts.Nodes) == 0,
		rowLimit: limit,
	}

	total := treefilter.CountNodes(opts.Nodes)
	if opts.Query != "" {
		l.Summary = fmt.Sprintf("query: %q  results: %d  nodes: %d", opts.Query, len(opts.Nodes), total)
	} else {
		l.Summary = fmt.Sprintf("top level: %d  nodes: %d", len(opts.Nodes), total)
	}

	inst := TopLevelInstances(opts.Root, opts.Nodes)
	l.addRows(opts.Nodes, func(i int) bool { return inst[i] }, opts.Query, -1, 0)
	l.Hidden = total - len(l.Rows)

	widest := len(l.Summary)
	for _, r := range l.Rows {
		if w := r.Depth*snapIndent/snapCharW + runewidth.StringWidth(r.Text) + 2; w > widest {
			widest = w
		}
	}
	l.Width = max(snapMinW, 2*snapMargin+widest*snapCharW+snapIndent)
	l.Height = snapHeader + max(1, len(l.Rows))*snapRowH + snapMargin
	if l.Hidden > 0 {
		l.Height += snapRowH
	}
	return l
}

func (l *snapshotLayout) addRows(nodes []model.HierarchyNode, instance func(int) bool, query string, parent, depth int) {
	for i := range nodes {
		if len(l.Rows) >= l.rowLimit {
			return
		}
		node := &nodes[i]
		text := runewidth.Truncate(NodeLine(node, true, false), snapLabelW, "...")
		if node.IsCircular() {
			text = strings.TrimSuffix(text, " "+CircularMarker) + " " + circularTag
		}
		l.Rows = append(l.Rows, snapshotRow{
			Text:     text,
			Depth:    depth,
			Parent:   parent,
			Instance: instance(i),
			Match:    query != "" && treefilter.SelfMatch(node, query),
			Circular: node.IsCircular(),
		})
		nSub := len(node.Subclasses)
		l.addRows(node.Children(), func(j int) bool { return j >= nSub }, query, len(l.Rows)-1, depth+1)
	}
}

func (l *snapshotLayout) rowY(i int) int { return snapHeader + i*snapRowH + snapRowH/2 }

func rowX(depth int) int { return snapMargin + depth*snapIndent }

// --- palette -----------------------------------------------------------------

var (
	colorBackdrop  = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG  = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle    = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorGuide     = color.RGBA{0xb0, 0xb7, 0xc3, 0xff}
	colorSubclass  = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorInstance  = color.RGBA{0xd9, 0x8c, 0x1f, 0xff}
	colorCircular  = color.RGBA{0xc6, 0x28, 0x28, 0xff}
	colorHighlight = color.RGBA{0xff, 0xf3, 0xb0, 0xff}
)

func (r snapshotRow) markerColor() color.RGBA {
	switch {
	case r.Circular:
		return colorCircular
	case r.Instance:
		return colorInstance
	default:
		return colorSubclass
	}
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// --- PNG ---------------------------------------------------------------------

func renderTreePNG(path string, l snapshotLayout) error {
	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(l.Width)-32, snapHeader-32, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(l.Title, snapMargin, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(l.Summary, snapMargin, 62, 0, 0.5)

	if l.Empty {
		dc.DrawStringAnchored("No items matching.", snapMargin, float64(l.rowY(0)), 0, 0.5)
		return dc.SavePNG(path)
	}

	dc.SetColor(colorGuide)
	dc.SetLineWidth(1)
	for i, r := range l.Rows {
		if r.Parent < 0 {
			continue
		}
		x := float64(rowX(r.Depth-1) + 4)
		y := float64(l.rowY(i))
		dc.DrawLine(x, float64(l.rowY(r.Parent)+6), x, y)
		dc.DrawLine(x, y, float64(rowX(r.Depth)-2), y)
		dc.Stroke()
	}

	for i, r := range l.Rows {
		x, y := float64(rowX(r.Depth)), float64(l.rowY(i))
		if r.Match {
			dc.SetColor(colorHighlight)
			dc.DrawRectangle(x+12, y-snapRowH/2+2, float64(runewidth.StringWidth(r.Text)*snapCharW+8), snapRowH-4)
			dc.Fill()
		}
		dc.SetColor(r.markerColor())
		dc.DrawRoundedRectangle(x, y-4, 8, 8, 2)
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(r.Text, x+16, y, 0, 0.5)
	}

	if l.Hidden > 0 {
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(fmt.Sprintf("... %d more", l.Hidden), snapMargin, float64(l.rowY(len(l.Rows))), 0, 0.5)
	}
	return dc.SavePNG(path)
}

// --- SVG ---------------------------------------------------------------------

func renderTreeSVG(w io.Writer, l snapshotLayout) error {
	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, l.Width-32, snapHeader-32, 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(snapMargin, 44, l.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(snapMargin, 66, l.Summary, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))

	if l.Empty {
		canvas.Text(snapMargin, l.rowY(0)+4, "No items matching.", fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
		canvas.End()
		return nil
	}

	guide := fmt.Sprintf("stroke:%s;stroke-width:1;fill:none", css(colorGuide))
	for i, r := range l.Rows {
		if r.Parent < 0 {
			continue
		}
		x, y := rowX(r.Depth-1)+4, l.rowY(i)
		canvas.Line(x, l.rowY(r.Parent)+6, x, y, guide)
		canvas.Line(x, y, rowX(r.Depth)-2, y, guide)
	}

	for i, r := range l.Rows {
		x, y := rowX(r.Depth), l.rowY(i)
		if r.Match {
			canvas.Rect(x+12, y-snapRowH/2+2, runewidth.StringWidth(r.Text)*snapCharW+8, snapRowH-4, fmt.Sprintf("fill:%s", css(colorHighlight)))
		}
		canvas.Roundrect(x, y-4, 8, 8, 2, 2, fmt.Sprintf("fill:%s", css(r.markerColor())))
		style := fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorText))
		if r.Match {
			style += ";font-weight:bold"
		}
		canvas.Text(x+16, y+4, r.Text, style)
	}

	if l.Hidden > 0 {
		canvas.Text(snapMargin, l.rowY(len(l.Rows))+4, fmt.Sprintf("... %d more", l.Hidden), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}
	canvas.End()
	return nil
}
