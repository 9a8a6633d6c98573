package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"
)

// DashboardTab shows the live detector state and the match controls
type DashboardTab struct {
	window *StatusWindow
	data   *StatusData

	// Widgets
	startBtn *widget.Button
	endBtn   *widget.Button
}

// NewDashboardTab creates the dashboard over data
func NewDashboardTab(w *StatusWindow, data *StatusData) *DashboardTab {
	return &DashboardTab{
		window: w,
		data:   data,
	}
}

// Build constructs the dashboard UI
func (d *DashboardTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Live State", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	elixirBar := widget.NewProgressBarWithData(d.data.ElixirFill)
	elixirBar.Max = 1

	state := widget.NewForm(
		widget.NewFormItem("Elixir", container.NewBorder(nil, nil, widget.NewLabelWithData(d.data.Elixir), nil, elixirBar)),
		widget.NewFormItem("Phase", widget.NewLabelWithData(d.data.Phase)),
		widget.NewFormItem("Hand", wrapped(d.data.Hand)),
		widget.NewFormItem("Suggestion", wrapped(d.data.Suggestion)),
		widget.NewFormItem("Spawns", widget.NewLabelWithData(d.data.Spawns)),
		widget.NewFormItem("Detector", widget.NewLabelWithData(d.data.Stage)),
		widget.NewFormItem("Last play", wrapped(d.data.LastAction)),
	)

	matchHeader := widget.NewLabelWithStyle("Match", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	d.startBtn = widget.NewButton("Start Match", d.window.StartMatch)
	d.startBtn.Importance = widget.HighImportance
	d.endBtn = widget.NewButton("End Match", d.window.EndMatch)
	d.endBtn.Disable()
	resetBtn := widget.NewButton("Reset Detectors", d.window.ResetDetectors)

	// data listeners run on the main goroutine
	d.data.MatchActive.AddListener(binding.NewDataListener(d.syncButtons))

	buttons := container.NewGridWithColumns(3, d.startBtn, d.endBtn, resetBtn)

	healthHeader := widget.NewLabelWithStyle("Runner", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	content := container.NewVScroll(
		container.NewVBox(
			state,
			widget.NewSeparator(),
			matchHeader,
			widget.NewLabelWithData(d.data.Match),
			buttons,
			widget.NewSeparator(),
			healthHeader,
			wrapped(d.data.Health),
		),
	)

	return container.NewBorder(header, nil, nil, nil, content)
}

func (d *DashboardTab) syncButtons() {
	if d.startBtn == nil || d.endBtn == nil {
		return
	}

	active, _ := d.data.MatchActive.Get()
	if active {
		d.startBtn.SetText("Restart Match")
		d.endBtn.Enable()
	} else {
		d.startBtn.SetText("Start Match")
		d.endBtn.Disable()
	}
}

func wrapped(data binding.String) *widget.Label {
	label := widget.NewLabelWithData(data)
	label.Wrapping = fyne.TextWrapWord
	return label
}
