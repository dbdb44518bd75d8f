// Package panels provides UI panels for the application.
package panels

import (
	"wallmap/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	routesPanel  *RoutesPanel
	detailsPanel *DetailsPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State) *SidePanel {
	sp := &SidePanel{state: state}

	sp.routesPanel = NewRoutesPanel(state)
	sp.detailsPanel = NewDetailsPanel(state)

	sp.container = container.NewAppTabs(
		container.NewTabItem("In View", sp.routesPanel.Container()),
		container.NewTabItem("Route", sp.detailsPanel.Container()),
	)

	state.On(app.EventSelectionChanged, func(data interface{}) {
		if id, ok := data.(string); ok && id != "" {
			sp.container.SelectIndex(1)
		}
	})
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.detailsPanel.SetWindow(w)
}

// Routes returns the visible routes panel.
func (sp *SidePanel) Routes() *RoutesPanel {
	return sp.routesPanel
}
