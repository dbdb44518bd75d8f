// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"wallmap/internal/app"
	"wallmap/internal/config"
	wallimage "wallmap/internal/image"
	"wallmap/internal/routes"
	"wallmap/internal/version"
	"wallmap/internal/viewport"
	"wallmap/pkg/geometry"
	"wallmap/ui/dialogs"
	"wallmap/ui/panels"
	"wallmap/ui/prefs"
	"wallmap/ui/wallview"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	appTitle = "Wallmap"

	// Photos are downsampled to this many pixels on the long side.
	maxPhotoDim = 4096
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	prefs  *prefs.Prefs
	engine *viewport.Engine
	cfg    *config.Config

	view       *wallview.WallView
	sidePanel  *panels.SidePanel
	statusBar  *widget.Label
	scaleLabel *widget.Label
	watcher    *app.FileWatcher

	photoAspect    float64 // Height over width of the loaded photo, 0 when none
	showLabels     bool
	showLabelsItem *fyne.MenuItem
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, engine *viewport.Engine, cfg *config.Config) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window:     win,
		app:        fyneApp,
		state:      state,
		prefs:      p,
		engine:     engine,
		cfg:        cfg,
		showLabels: p.Bool(prefs.KeyShowNames, true),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.restorePreferences()
	mw.ApplyConfig(cfg)

	win.Resize(fyne.NewSize(
		float32(p.FloatWithFallback(prefs.KeyWinWidth, 1100)),
		float32(p.FloatWithFallback(prefs.KeyWinHeight, 760)),
	))
	win.SetCloseIntercept(func() {
		mw.SavePreferences()
		if mw.watcher != nil {
			mw.watcher.Stop()
		}
		win.Close()
	})
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.view = wallview.New(mw.engine)
	mw.view.OnResize(mw.state.SetLayout)

	mw.engine.OnTap(mw.onWallTap)
	mw.engine.OnLongPress(mw.onWallLongPress)

	mw.sidePanel = panels.NewSidePanel(mw.state)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")
	mw.scaleLabel = widget.NewLabel("")
	mw.updateScale(mw.engine.Transform())

	wallArea := container.NewBorder(mw.createToolbar(), nil, nil, nil, mw.view)

	split := container.NewHSplit(mw.sidePanel.Container(), wallArea)
	split.SetOffset(0.28)

	content := container.NewBorder(
		nil,
		container.NewPadded(container.NewBorder(nil, nil, nil, mw.scaleLabel, mw.statusBar)),
		nil,
		nil,
		split,
	)
	mw.SetContent(content)

	mw.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case '+', '=':
			mw.engine.ZoomIn()
		case '-':
			mw.engine.ZoomOut()
		case '0':
			mw.engine.ResetView()
		default:
			return
		}
		mw.view.Refresh()
	})
}

// createToolbar creates the toolbar with zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	zoomOutBtn := widget.NewButton("-", mw.onZoomOut)
	zoomInBtn := widget.NewButton("+", mw.onZoomIn)
	resetBtn := widget.NewButton("Reset", mw.onResetView)

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		resetBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Routes...", mw.onOpenRoutes),
		fyne.NewMenuItem("Set Wall Photo...", mw.onOpenPhoto),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Routes", mw.onSaveRoutes),
		fyne.NewMenuItem("Save Routes As...", mw.onSaveRoutesAs),
	)

	mw.showLabelsItem = fyne.NewMenuItem("Show Grades", mw.onToggleLabels)
	mw.showLabelsItem.Checked = mw.showLabels

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		fyne.NewMenuItem("Reset View", mw.onResetView),
		fyne.NewMenuItemSeparator(),
		mw.showLabelsItem,
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventRoutesLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus(fmt.Sprintf("Loaded %d routes from %s", len(mw.state.Routes()), path))
		}
	})

	mw.state.On(app.EventRoutesSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Saved " + path)
		}
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})

	mw.state.On(app.EventRoutesChanged, func(interface{}) { mw.refreshMarkers() })
	mw.state.On(app.EventFilterChanged, func(interface{}) { mw.refreshMarkers() })

	mw.state.On(app.EventSelectionChanged, func(data interface{}) {
		if id, ok := data.(string); ok {
			mw.view.SetSelected(id)
		}
	})

	mw.state.On(app.EventTransformChanged, func(data interface{}) {
		if t, ok := data.(viewport.Transform); ok {
			mw.updateScale(t)
		}
	})

	mw.state.On(app.EventRoutePlaced, func(data interface{}) {
		r, ok := data.(routes.Route)
		if !ok {
			return
		}
		if !mw.state.Filter().Matches(r) {
			mw.updateStatus(fmt.Sprintf("Placed %s as a project; it is hidden by the current filter", r.Name))
			return
		}
		mw.updateStatus("Placed " + r.Name)
	})
}

// ApplyConfig applies engine, list and marker settings. It is safe to call
// again when the configuration file changes.
func (mw *MainWindow) ApplyConfig(cfg *config.Config) {
	mw.cfg = cfg

	opts := cfg.Viewport.Options()
	if mw.photoAspect > 0 {
		opts.ContentAspect = mw.photoAspect
	}
	mw.engine.SetOptions(opts)
	mw.view.SetAnimation(cfg.Viewport.Animation())
	mw.view.SetMarkerStyle(cfg.Markers.Style(), mw.showLabels)
	mw.state.SetThrottle(cfg.Viewport.Throttle())
	mw.state.SetPadding(cfg.Viewport.Padding)
}

// OpenRoutes loads a route file and its wall photo, and watches the file
// for outside edits.
func (mw *MainWindow) OpenRoutes(path string) error {
	if err := mw.state.LoadRoutes(path); err != nil {
		return err
	}
	mw.prefs.SetString(prefs.KeyLastFile, path)

	photo := mw.cfg.Wall.Image
	if photo == "" {
		photo = mw.state.Wall.ImagePath(path)
	}
	if photo != "" {
		if err := mw.loadPhoto(photo); err != nil {
			slog.Warn("wall photo not loaded", "path", photo, "error", err)
			mw.updateStatus("Wall photo not loaded: " + err.Error())
		}
	}

	mw.watchRoutes(path)
	return nil
}

func (mw *MainWindow) loadPhoto(path string) error {
	p, err := wallimage.Load(path, maxPhotoDim)
	if err != nil {
		return err
	}
	if a := p.Aspect(); a > 0 {
		mw.photoAspect = 1 / a
	}
	mw.view.SetPhoto(p.Image)
	slog.Info("wall photo loaded", "path", path, "width", p.Full.Width, "height", p.Full.Height)
	return nil
}

func (mw *MainWindow) watchRoutes(path string) {
	if mw.watcher != nil {
		mw.watcher.Stop()
		mw.watcher = nil
	}
	w, err := app.NewFileWatcher(path, 0, func() {
		if mw.state.Modified {
			mw.updateStatus("Route file changed on disk; unsaved edits kept")
			return
		}
		if err := mw.state.LoadRoutes(path); err != nil {
			slog.Warn("reload routes", "path", path, "error", err)
			mw.updateStatus("Reload failed: " + err.Error())
		}
	})
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		slog.Warn("route file not watched", "path", path, "error", err)
		return
	}
	mw.watcher = w
}

// refreshMarkers redraws every route passing the filter.
func (mw *MainWindow) refreshMarkers() {
	rs := mw.state.FilteredRoutes()
	views := make([]wallview.MarkerView, len(rs))
	for i, r := range rs {
		views[i] = wallview.MarkerView{
			ID:    r.ID,
			Label: r.Label(),
			Pos:   r.Pos,
			Color: r.HoldColor(),
		}
	}
	mw.view.SetMarkers(views)
}

func (mw *MainWindow) onWallTap(screen geometry.Point2D) {
	t := mw.engine.Transform()
	radius := viewport.Compensate(t.Scale, mw.cfg.Markers.Style()).Radius()
	if r, ok := mw.state.RouteAt(screen, t, radius); ok {
		mw.state.Select(r.ID)
		mw.updateStatus(fmt.Sprintf("%s (%s)", r.Name, r.Grade))
		return
	}
	mw.state.Select("")
}

func (mw *MainWindow) onWallLongPress(screen geometry.Point2D) {
	t := mw.engine.Transform()
	dialogs.ShowNewRoute(mw.Window, func(name, grade string) {
		r, err := mw.state.PlaceRoute(screen, t, name, grade)
		if errors.Is(err, app.ErrOutsideWall) {
			mw.updateStatus("Routes must be placed on the wall photo")
			return
		}
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.state.Select(r.ID)
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateScale(t viewport.Transform) {
	mw.scaleLabel.SetText(fmt.Sprintf("Zoom %.2fx", t.Scale))
	mw.view.Refresh()
}

// restorePreferences applies the saved sort and filter.
func (mw *MainWindow) restorePreferences() {
	if s := mw.prefs.String(prefs.KeySort); s != "" {
		if k, err := viewport.ParseSortKey(s); err == nil {
			mw.state.SetSort(k)
		}
	}
	var f routes.Filter
	if ok, err := mw.prefs.Decode(prefs.KeyFilter, &f); err != nil {
		slog.Warn("saved filter ignored", "error", err)
	} else if ok {
		mw.sidePanel.Routes().SetFilter(f)
	}
}

// SavePreferences writes the list settings and window size.
func (mw *MainWindow) SavePreferences() {
	mw.prefs.SetString(prefs.KeySort, mw.state.Sort().String())
	if err := mw.prefs.Encode(prefs.KeyFilter, mw.state.Filter()); err != nil {
		slog.Warn("filter not saved", "error", err)
	}
	mw.prefs.SetBool(prefs.KeyShowNames, mw.showLabels)
	size := mw.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		mw.prefs.SetFloat(prefs.KeyWinWidth, float64(size.Width))
		mw.prefs.SetFloat(prefs.KeyWinHeight, float64(size.Height))
	}
	if err := mw.prefs.Save(); err != nil {
		slog.Warn("preferences not saved", "path", mw.prefs.Path(), "error", err)
	}
}

// getLastDir returns the directory of the last route file, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastFile)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(path)))
	if err != nil {
		return nil
	}
	return listable
}

// Menu action handlers

func (mw *MainWindow) onOpenRoutes() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		if err := mw.OpenRoutes(reader.URI().Path()); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".yaml", ".yml"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenPhoto() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		if err := mw.loadPhoto(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		w := mw.state.Wall
		if mw.state.RoutesPath != "" {
			w.SetImage(mw.state.RoutesPath, path)
		} else {
			w.Image = path
		}
		mw.state.SetWall(w)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(wallimage.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveRoutes() {
	if mw.state.RoutesPath == "" {
		mw.onSaveRoutesAs()
		return
	}
	mw.saveRoutes(mw.state.RoutesPath)
}

func (mw *MainWindow) onSaveRoutesAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			path += ".yaml"
		}
		mw.saveRoutes(path)
		mw.watchRoutes(path)
	}, mw.Window)
	fd.SetFileName("routes.yaml")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) saveRoutes(path string) {
	if err := mw.state.SaveRoutes(path); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.prefs.SetString(prefs.KeyLastFile, path)
	if mw.watcher != nil {
		mw.watcher.ResetBaseline()
	}
}

func (mw *MainWindow) onZoomIn() {
	mw.engine.ZoomIn()
	mw.view.Refresh()
}

func (mw *MainWindow) onZoomOut() {
	mw.engine.ZoomOut()
	mw.view.Refresh()
}

func (mw *MainWindow) onResetView() {
	mw.engine.ResetView()
	mw.view.Refresh()
}

func (mw *MainWindow) onToggleLabels() {
	mw.showLabels = !mw.showLabels
	mw.showLabelsItem.Checked = mw.showLabels
	mw.MainMenu().Refresh()
	mw.view.SetMarkerStyle(mw.cfg.Markers.Style(), mw.showLabels)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Route map for climbing walls.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
