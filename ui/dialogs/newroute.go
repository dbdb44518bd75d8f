// Package dialogs provides modal dialogs for editing routes.
package dialogs

import (
	"errors"
	"strings"

	"wallmap/internal/routes"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// ShowNewRoute asks for the name and grade of a route being placed. onCreate
// is called only when the user confirms valid input.
func ShowNewRoute(win fyne.Window, onCreate func(name, grade string)) {
	name := widget.NewEntry()
	name.SetPlaceHolder("Route name")
	name.Validator = func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New("name is required")
		}
		return nil
	}

	grade := widget.NewEntry()
	grade.SetPlaceHolder("V3 or 6A+")
	grade.Validator = func(s string) error {
		_, err := routes.ParseGrade(s)
		return err
	}

	items := []*widget.FormItem{
		widget.NewFormItem("Name", name),
		widget.NewFormItem("Grade", grade),
	}
	d := dialog.NewForm("New Route", "Place", "Cancel", items, func(ok bool) {
		if ok {
			onCreate(strings.TrimSpace(name.Text), strings.TrimSpace(grade.Text))
		}
	}, win)
	d.Resize(fyne.NewSize(320, 200))
	d.Show()
}
