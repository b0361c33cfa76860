package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/vanderheijden86/hierview/internal/datasource"
	"github.com/vanderheijden86/hierview/pkg/config"
	"github.com/vanderheijden86/hierview/pkg/debug"
	"github.com/vanderheijden86/hierview/pkg/export"
	"github.com/vanderheijden86/hierview/pkg/loader"
	"github.com/vanderheijden86/hierview/pkg/metrics"
	"github.com/vanderheijden86/hierview/pkg/model"
	"github.com/vanderheijden86/hierview/pkg/ui"
	"github.com/vanderheijden86/hierview/pkg/version"
	"github.com/vanderheijden86/hierview/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	dataFlag := flag.String("data", "", "Dataset file or data directory (comma-separated to merge several files)")
	datasetFlag := flag.String("dataset", "", "Name of a dataset registered in the config file")
	categoryFlag := flag.String("category", "", "Category id to open")
	queryFlag := flag.String("query", "", "Filter the category by label, id or description")
	robotFlag := flag.Bool("robot", false, "Print the displayed nodes as JSON")
	textFlag := flag.Bool("text", false, "Print the displayed nodes as an indented tree")
	checkFlag := flag.Bool("check", false, "Report cycles, duplicate siblings and source mismatches")
	exportSQLite := flag.String("export-sqlite", "", "Write the dataset to a SQLite file")
	exportMD := flag.String("export-md", "", "Write the displayed tree as a markdown report")
	exportImage := flag.String("export-image", "", "Write the displayed tree as an SVG or PNG diagram (format from extension)")
	excludeFlag := flag.String("exclude", "", "Comma-separated ids to prune together with their subtrees")
	pickFlag := flag.Bool("pick", false, "Choose the category from a list first")
	watchFlag := flag.Bool("watch", false, "Reload when the dataset file changes")
	timingsFlag := flag.Bool("timings", false, "Include timing stats in robot output")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: hv [options]")
		fmt.Println("\nA terminal browser for taxonomy hierarchies.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("hv %s\n", version.Version)
		os.Exit(0)
	}

	// Robot output is the default when piping a query somewhere.
	robotMode := *robotFlag || (!*textFlag && *exportMD == "" && *exportImage == "" &&
		(*queryFlag != "" || *categoryFlag != "") &&
		!term.IsTerminal(int(os.Stdout.Fd())))
	if robotMode {
		_ = os.Setenv("HV_ROBOT", "1")
	}
	if *timingsFlag {
		metrics.SetEnabled(true)
	}

	appCfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue without config
		debug.Log("config: %v", cfgErr)
		appCfg = config.DefaultConfig()
	}

	paths, err := resolveDataPaths(*dataFlag, *datasetFlag, appCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	exclude := splitList(*excludeFlag)
	if len(exclude) == 0 {
		exclude = appCfg.Loader.Exclude
	}
	opts := loader.ParseOptions{Exclude: exclude}

	data, err := loadData(paths, appCfg.Loader.PreferredFiles, opts, !robotMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", err)
		fmt.Fprintf(os.Stderr, "Pass --data PATH or set %s to a directory holding hierarchy.json.\n", loader.DataDirEnvVar)
		os.Exit(1)
	}
	debug.Log("hv: %d categories from %s", len(data.Dataset.Hierarchy), data.describe())

	categoryID, err := resolveCategory(*categoryFlag, appCfg, data.Dataset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if *pickFlag {
		picked, err := pickCategory(data.Dataset, categoryID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error picking category: %v\n", err)
			os.Exit(1)
		}
		categoryID = picked
	}

	handled := false

	if *checkFlag {
		handled = true
		if !runCheck(os.Stdout, data) {
			os.Exit(1)
		}
	}

	if *exportSQLite != "" {
		handled = true
		if err := datasource.ExportSQLite(data.Dataset, *exportSQLite); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting SQLite: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d categories to %s\n", len(data.Dataset.Hierarchy), *exportSQLite)
	}

	if *exportMD != "" {
		handled = true
		s, err := newSession(data.Dataset, categoryID, *queryFlag)
		if err == nil {
			err = writeMarkdownReport(*exportMD, s, data.Dataset)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting markdown: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *exportMD)
	}

	if *exportImage != "" {
		handled = true
		s, err := newSession(data.Dataset, categoryID, *queryFlag)
		if err == nil {
			err = writeTreeSnapshot(*exportImage, s)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting image: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *exportImage)
	}

	if *textFlag || robotMode {
		handled = true
		s, err := newSession(data.Dataset, categoryID, *queryFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		if *textFlag {
			err = writeTextOutput(os.Stdout, s, appCfg.UI.DescriptionsShown())
		} else {
			err = export.WriteRobot(os.Stdout, buildRobotOutput(s, data, *timingsFlag))
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	}

	if handled {
		os.Exit(0)
	}

	uiOpts := []ui.Option{
		ui.WithConfig(appCfg, config.Save),
		ui.WithDataPath(data.Path),
		ui.WithInitialCategory(categoryID),
		ui.WithInitialQuery(*queryFlag),
	}

	if *watchFlag || appCfg.Loader.Watch {
		reloader, err := startReloader(data.Path, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer reloader.Stop()
			uiOpts = append(uiOpts, ui.WithReloader(reloader))
		}
	}

	if err := runTUIProgram(ui.NewModel(data.Dataset, uiOpts...)); err != nil {
		fmt.Printf("Error running hv: %v\n", err)
		os.Exit(1)
	}
}

// startReloader watches the dataset file and reloads it with the same
// options it was first loaded with.
func startReloader(path string, opts loader.ParseOptions) (*watcher.Reloader, error) {
	if path == "" {
		return nil, errors.New("live reload needs a single dataset file")
	}
	// Reload warnings would draw over the TUI.
	opts.WarningHandler = func(msg string) { debug.Log("reload: %s", msg) }
	load := func(p string) (*model.Dataset, error) {
		return datasource.LoadPath(p, opts)
	}
	r, err := watcher.NewReloader(path, load)
	if err != nil {
		return nil, err
	}
	if err := r.Start(); err != nil {
		return nil, err
	}
	return r, nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set HV_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("HV_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
