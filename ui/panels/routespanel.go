package panels

import (
	"fmt"
	"strings"
	"sync"

	"wallmap/internal/app"
	"wallmap/internal/routes"
	"wallmap/internal/viewport"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

var sortLabels = map[viewport.SortKey]string{
	viewport.SortDistance:  "Nearest to center",
	viewport.SortGradeAsc:  "Grade, easiest first",
	viewport.SortGradeDesc: "Grade, hardest first",
	viewport.SortRating:    "Best rated",
	viewport.SortRecency:   "Newest",
}

// RoutesPanel lists the routes currently in view and edits the list
// settings.
type RoutesPanel struct {
	state     *app.State
	container fyne.CanvasObject

	mu      sync.Mutex
	visible []routes.Route

	list        *widget.List
	sortSelect  *widget.Select
	search      *widget.Entry
	statusCheck *widget.CheckGroup
	minGrade    *widget.Entry
	maxGrade    *widget.Entry
	countLabel  *widget.Label
	errLabel    *widget.Label
}

// NewRoutesPanel creates the visible routes panel.
func NewRoutesPanel(state *app.State) *RoutesPanel {
	rp := &RoutesPanel{state: state}

	rp.list = widget.NewList(rp.length, rp.createItem, rp.updateItem)
	rp.list.OnSelected = func(id widget.ListItemID) {
		if r, ok := rp.at(id); ok {
			state.Select(r.ID)
		}
	}

	var options []string
	for _, k := range viewport.SortKeys() {
		options = append(options, sortLabels[k])
	}
	rp.sortSelect = widget.NewSelect(options, func(selected string) {
		for k, label := range sortLabels {
			if label == selected {
				state.SetSort(k)
				return
			}
		}
	})
	rp.sortSelect.SetSelected(sortLabels[state.Sort()])

	rp.search = widget.NewEntry()
	rp.search.SetPlaceHolder("Search names")
	rp.search.OnChanged = func(string) { rp.applyFilter() }

	rp.statusCheck = widget.NewCheckGroup([]string{
		routes.StatusActive.String(),
		routes.StatusProject.String(),
		routes.StatusArchived.String(),
	}, func([]string) { rp.applyFilter() })
	rp.statusCheck.Horizontal = true

	rp.minGrade = widget.NewEntry()
	rp.minGrade.SetPlaceHolder("VB")
	rp.minGrade.OnChanged = func(string) { rp.applyFilter() }
	rp.maxGrade = widget.NewEntry()
	rp.maxGrade.SetPlaceHolder("V17")
	rp.maxGrade.OnChanged = func(string) { rp.applyFilter() }

	rp.countLabel = widget.NewLabel("No routes in view")
	rp.errLabel = widget.NewLabel("")
	rp.errLabel.Importance = widget.DangerImportance

	rp.showFilter(state.Filter())

	state.On(app.EventVisibleChanged, func(data interface{}) {
		if rs, ok := data.([]routes.Route); ok {
			rp.setVisible(rs)
		}
	})
	state.On(app.EventSortChanged, func(data interface{}) {
		if k, ok := data.(viewport.SortKey); ok && rp.sortSelect.Selected != sortLabels[k] {
			rp.sortSelect.SetSelected(sortLabels[k])
		}
	})

	filters := container.NewVBox(
		widget.NewLabel("Sort"),
		rp.sortSelect,
		rp.search,
		rp.statusCheck,
		container.NewGridWithColumns(4,
			widget.NewLabel("From"), rp.minGrade,
			widget.NewLabel("to"), rp.maxGrade,
		),
		rp.errLabel,
	)
	rp.container = container.NewBorder(filters, rp.countLabel, nil, nil, rp.list)
	return rp
}

// Container returns the panel container.
func (rp *RoutesPanel) Container() fyne.CanvasObject {
	return rp.container
}

// showFilter loads f into the filter widgets without re-applying it.
func (rp *RoutesPanel) showFilter(f routes.Filter) {
	var selected []string
	for _, s := range f.Statuses {
		selected = append(selected, s.String())
	}
	if len(selected) == 0 {
		selected = []string{routes.StatusActive.String()}
	}
	rp.statusCheck.Selected = selected
	rp.statusCheck.Refresh()
	rp.search.Text = f.Search
	rp.search.Refresh()
	rp.minGrade.Text = f.MinGrade
	rp.minGrade.Refresh()
	rp.maxGrade.Text = f.MaxGrade
	rp.maxGrade.Refresh()
}

// SetFilter shows and applies f.
func (rp *RoutesPanel) SetFilter(f routes.Filter) {
	rp.showFilter(f)
	rp.applyFilter()
}

func (rp *RoutesPanel) applyFilter() {
	f := routes.Filter{
		Search:   strings.TrimSpace(rp.search.Text),
		MinGrade: strings.TrimSpace(rp.minGrade.Text),
		MaxGrade: strings.TrimSpace(rp.maxGrade.Text),
	}
	for _, name := range rp.statusCheck.Selected {
		if s, err := routes.ParseStatus(name); err == nil {
			f.Statuses = append(f.Statuses, s)
		}
	}
	if err := rp.state.SetFilter(f); err != nil {
		rp.errLabel.SetText(err.Error())
		return
	}
	rp.errLabel.SetText("")
}

func (rp *RoutesPanel) setVisible(rs []routes.Route) {
	rp.mu.Lock()
	rp.visible = rs
	rp.mu.Unlock()

	switch len(rs) {
	case 0:
		rp.countLabel.SetText("No routes in view")
	case 1:
		rp.countLabel.SetText("1 route in view")
	default:
		rp.countLabel.SetText(fmt.Sprintf("%d routes in view", len(rs)))
	}
	rp.list.UnselectAll()
	rp.list.Refresh()
}

func (rp *RoutesPanel) at(id widget.ListItemID) (routes.Route, bool) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if id < 0 || id >= len(rp.visible) {
		return routes.Route{}, false
	}
	return rp.visible[id], true
}

func (rp *RoutesPanel) length() int {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return len(rp.visible)
}

func (rp *RoutesPanel) createItem() fyne.CanvasObject {
	return container.NewBorder(nil, nil, nil, widget.NewLabel("V00"), widget.NewLabel("route name"))
}

func (rp *RoutesPanel) updateItem(id widget.ListItemID, item fyne.CanvasObject) {
	r, ok := rp.at(id)
	if !ok {
		return
	}
	row := item.(*fyne.Container)
	row.Objects[0].(*widget.Label).SetText(r.Name)
	row.Objects[1].(*widget.Label).SetText(r.Label())
}
