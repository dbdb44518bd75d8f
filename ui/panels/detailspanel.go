package panels

import (
	"fmt"
	"strconv"
	"strings"

	"wallmap/internal/app"
	"wallmap/internal/routes"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// DetailsPanel edits the selected route.
type DetailsPanel struct {
	state     *app.State
	window    fyne.Window
	container fyne.CanvasObject

	id      string
	title   *widget.Label
	name    *widget.Entry
	grade   *widget.Entry
	setter  *widget.Entry
	color   *widget.Entry
	rating  *widget.Entry
	status  *widget.Select
	created *widget.Label
	form    *widget.Form
	remove  *widget.Button
}

// NewDetailsPanel creates the route details panel.
func NewDetailsPanel(state *app.State) *DetailsPanel {
	dp := &DetailsPanel{state: state}

	dp.title = widget.NewLabelWithStyle("No route selected", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	dp.name = widget.NewEntry()
	dp.grade = widget.NewEntry()
	dp.grade.Validator = func(s string) error {
		_, err := routes.ParseGrade(s)
		return err
	}
	dp.setter = widget.NewEntry()
	dp.color = widget.NewEntry()
	dp.color.SetPlaceHolder("#rrggbb")
	dp.color.Validator = func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		_, err := routes.ParseColor(s)
		return err
	}
	dp.rating = widget.NewEntry()
	dp.rating.SetPlaceHolder("1-5")
	dp.status = widget.NewSelect([]string{
		routes.StatusActive.String(),
		routes.StatusProject.String(),
		routes.StatusArchived.String(),
	}, nil)
	dp.created = widget.NewLabel("")

	dp.form = widget.NewForm(
		widget.NewFormItem("Name", dp.name),
		widget.NewFormItem("Grade", dp.grade),
		widget.NewFormItem("Setter", dp.setter),
		widget.NewFormItem("Color", dp.color),
		widget.NewFormItem("Rating", dp.rating),
		widget.NewFormItem("Status", dp.status),
		widget.NewFormItem("Set", dp.created),
	)
	dp.form.SubmitText = "Apply"
	dp.form.OnSubmit = dp.apply

	dp.remove = widget.NewButton("Delete Route", dp.onDelete)
	dp.remove.Importance = widget.DangerImportance

	dp.container = container.NewVBox(dp.title, dp.form, dp.remove)
	dp.show("")

	state.On(app.EventSelectionChanged, func(data interface{}) {
		if id, ok := data.(string); ok {
			dp.show(id)
		}
	})
	state.On(app.EventRoutesChanged, func(interface{}) {
		if _, ok := state.Route(dp.id); !ok && dp.id != "" {
			dp.show("")
		}
	})
	return dp
}

// Container returns the panel container.
func (dp *DetailsPanel) Container() fyne.CanvasObject {
	return dp.container
}

// SetWindow sets the parent window for dialogs.
func (dp *DetailsPanel) SetWindow(w fyne.Window) {
	dp.window = w
}

func (dp *DetailsPanel) show(id string) {
	r, ok := dp.state.Route(id)
	if !ok {
		dp.id = ""
		dp.title.SetText("No route selected")
		dp.form.Hide()
		dp.remove.Hide()
		return
	}
	dp.id = r.ID
	dp.title.SetText(r.Name)
	dp.name.SetText(r.Name)
	dp.grade.SetText(r.Grade)
	dp.setter.SetText(r.Setter)
	dp.color.SetText(r.Color)
	dp.rating.SetText("")
	if r.Rating > 0 {
		dp.rating.SetText(strconv.FormatFloat(r.Rating, 'f', 1, 64))
	}
	dp.status.SetSelected(r.Status.String())
	dp.created.SetText("unknown")
	if !r.Created.IsZero() {
		dp.created.SetText(r.Created.Format("2006-01-02"))
	}
	dp.form.Show()
	dp.remove.Show()
}

func (dp *DetailsPanel) apply() {
	r, ok := dp.state.Route(dp.id)
	if !ok {
		return
	}
	r.Name = strings.TrimSpace(dp.name.Text)
	r.Grade = strings.TrimSpace(dp.grade.Text)
	r.Setter = strings.TrimSpace(dp.setter.Text)
	r.Color = strings.TrimSpace(dp.color.Text)
	r.Rating = 0
	if s := strings.TrimSpace(dp.rating.Text); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 1 || v > 5 {
			dp.showError(fmt.Errorf("rating must be between 1 and 5"))
			return
		}
		r.Rating = v
	}
	if s, err := routes.ParseStatus(dp.status.Selected); err == nil {
		r.Status = s
	}
	if err := dp.state.UpdateRoute(r); err != nil {
		dp.showError(err)
		return
	}
	dp.title.SetText(r.Name)
}

func (dp *DetailsPanel) onDelete() {
	id := dp.id
	if id == "" || dp.window == nil {
		return
	}
	dialog.ShowConfirm("Delete Route", "Remove this route from the wall?", func(ok bool) {
		if ok {
			dp.state.RemoveRoute(id)
		}
	}, dp.window)
}

func (dp *DetailsPanel) showError(err error) {
	if dp.window != nil {
		dialog.ShowError(err, dp.window)
	}
}
