package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/skyops/divert/pkg/divert"
	"github.com/skyops/divert/pkg/geodesy"
	"github.com/skyops/divert/pkg/registry"
	"github.com/skyops/divert/pkg/weather"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Registry *registry.Registry
	Weather  *weather.Client
	Engine   *divert.Engine
}

// App represents the console application
type App struct {
	// Data sources
	airports *registry.Registry
	wx       *weather.Client
	engine   *divert.Engine

	// UI components
	tviewApp *tview.Application
	table    *tview.Table
	detail   *tview.TextView
	controls *tview.TextView
	logs     *tview.TextView
	form     *tview.Form
	pages    *tview.Pages

	// State
	scenario scenario
	result   *divert.DiversionResult
	mu       sync.RWMutex
}

// scenario is the editable ranking request.
type scenario struct {
	Latitude     float64
	Longitude    float64
	AircraftType string
	FuelKg       float64
	FuelFlowKgHr float64
	Passengers   int
	Category     string
	Severity     string
	Condition    string
}

func defaultScenario() scenario {
	return scenario{
		Latitude:     34.0522,
		Longitude:    -118.2437,
		AircraftType: "B789",
		FuelKg:       25000,
		FuelFlowKgHr: 2400,
		Passengers:   280,
		Category:     "medical",
		Severity:     "critical",
		Condition:    "cardiac",
	}
}

// NewApp creates a new console application
func NewApp(cfg *AppConfig) *App {
	app := &App{
		airports: cfg.Registry,
		wx:       cfg.Weather,
		engine:   cfg.Engine,
		scenario: defaultScenario(),
	}

	app.setupUI()
	return app
}

// setupUI initializes the user interface
func (a *App) setupUI() {
	a.tviewApp = tview.NewApplication()

	a.createTable()
	a.createDetailPanel()
	a.createControlsPanel()
	a.createLogsPanel()
	a.createScenarioForm()
	a.createLayout()

	a.tviewApp.SetInputCapture(a.handleKeyboard)
}

// createTable creates the ranked candidates table
func (a *App) createTable() {
	a.table = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	a.table.SetBorder(true).SetTitle(" Ranked Diversions ")

	a.table.SetSelectionChangedFunc(func(row, col int) {
		a.updateDetail()
	})

	a.renderTable()
}

// createDetailPanel creates the per-candidate detail panel
func (a *App) createDetailPanel() {
	a.detail = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	a.detail.SetBorder(true).SetTitle(" Detail ")

	a.updateDetail()
}

// createControlsPanel creates the controls/shortcuts panel
func (a *App) createControlsPanel() {
	a.controls = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.controls.SetBorder(true).SetTitle(" Controls ")

	controlsText := `[yellow]NAVIGATION[-]
  [white]↑/↓, j/k[-]  Select candidate

[yellow]ACTIONS[-]
  [white]e[-]         Edit scenario
  [white]ENTER/r[-]   Run ranking

[yellow]CONTROL[-]
  [white]q[-]         Quit`

	a.controls.SetText(controlsText)
}

// createLogsPanel creates the log viewer panel
func (a *App) createLogsPanel() {
	a.logs = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(100)
	a.logs.SetBorder(true).SetTitle(" Logs ")

	a.addLog("INFO", fmt.Sprintf("Registry loaded: %d airports", a.airports.Len()))
	if a.wx == nil {
		a.addLog("WARN", "Weather feed disabled; candidates graded marginal")
	}
}

// createScenarioForm creates the scenario editor form
func (a *App) createScenarioForm() {
	s := a.scenario

	a.form = tview.NewForm().
		AddInputField("Latitude", fmt.Sprintf("%.4f", s.Latitude), 12, nil, nil).
		AddInputField("Longitude", fmt.Sprintf("%.4f", s.Longitude), 12, nil, nil).
		AddInputField("Aircraft type", s.AircraftType, 8, nil, nil).
		AddInputField("Fuel remaining (kg)", fmt.Sprintf("%.0f", s.FuelKg), 10, nil, nil).
		AddInputField("Fuel flow (kg/hr)", fmt.Sprintf("%.0f", s.FuelFlowKgHr), 10, nil, nil).
		AddInputField("Passengers", strconv.Itoa(s.Passengers), 6, nil, nil).
		AddDropDown("Category", []string{"medical", "technical", "fuel", "security", "weather"}, 0, nil).
		AddDropDown("Severity", []string{"critical", "serious", "routine"}, 0, nil).
		AddInputField("Condition", s.Condition, 12, nil, nil)

	a.form.AddButton("Run", func() {
		a.readForm()
		a.pages.SwitchToPage("main")
		a.runRanking()
	})
	a.form.AddButton("Cancel", func() {
		a.pages.SwitchToPage("main")
	})

	a.form.SetBorder(true).SetTitle(" Scenario ")
}

// readForm copies form values into the scenario, ignoring unparsable fields.
func (a *App) readForm() {
	getFloat := func(label string, dst *float64) {
		item := a.form.GetFormItemByLabel(label)
		if input, ok := item.(*tview.InputField); ok {
			if v, err := strconv.ParseFloat(input.GetText(), 64); err == nil {
				*dst = v
			}
		}
	}
	getText := func(label string, dst *string) {
		item := a.form.GetFormItemByLabel(label)
		if input, ok := item.(*tview.InputField); ok {
			*dst = input.GetText()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	getFloat("Latitude", &a.scenario.Latitude)
	getFloat("Longitude", &a.scenario.Longitude)
	getText("Aircraft type", &a.scenario.AircraftType)
	getFloat("Fuel remaining (kg)", &a.scenario.FuelKg)
	getFloat("Fuel flow (kg/hr)", &a.scenario.FuelFlowKgHr)
	getText("Condition", &a.scenario.Condition)

	if item, ok := a.form.GetFormItemByLabel("Passengers").(*tview.InputField); ok {
		if v, err := strconv.Atoi(item.GetText()); err == nil {
			a.scenario.Passengers = v
		}
	}
	if item, ok := a.form.GetFormItemByLabel("Category").(*tview.DropDown); ok {
		_, a.scenario.Category = item.GetCurrentOption()
	}
	if item, ok := a.form.GetFormItemByLabel("Severity").(*tview.DropDown); ok {
		_, a.scenario.Severity = item.GetCurrentOption()
	}
}

// createLayout creates the main layout
func (a *App) createLayout() {
	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.detail, 0, 4, false).
		AddItem(a.controls, 0, 3, false).
		AddItem(a.logs, 0, 3, false)

	main := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.table, 0, 7, true).
		AddItem(sidebar, 0, 3, false)

	a.pages = tview.NewPages().
		AddPage("main", main, true, true).
		AddPage("scenario", center(a.form, 50, 23), true, false)

	a.tviewApp.SetRoot(a.pages, true)
}

// center wraps a primitive in a centered flex of fixed size.
func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// handleKeyboard handles keyboard input on the main page
func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	name, _ := a.pages.GetFrontPage()
	if name != "main" {
		return event
	}

	switch {
	case event.Key() == tcell.KeyEscape || event.Rune() == 'q':
		a.tviewApp.Stop()
		return nil
	case event.Rune() == 'e':
		a.pages.SwitchToPage("scenario")
		return nil
	case event.Key() == tcell.KeyEnter || event.Rune() == 'r':
		a.runRanking()
		return nil
	}

	return event
}

// runRanking executes the engine for the current scenario in the background.
func (a *App) runRanking() {
	a.mu.RLock()
	s := a.scenario
	a.mu.RUnlock()

	a.addLog("INFO", fmt.Sprintf("Ranking for %s at %.4f, %.4f (%s/%s)",
		s.AircraftType, s.Latitude, s.Longitude, s.Category, s.Severity))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		aircraft := divert.AircraftState{
			Position:        geodesy.Position{Latitude: s.Latitude, Longitude: s.Longitude},
			AircraftType:    s.AircraftType,
			FuelRemainingKg: s.FuelKg,
			FuelFlowKgHr:    s.FuelFlowKgHr,
			Passengers:      s.Passengers,
		}
		emergency := divert.EmergencyContext{
			Category:  divert.EmergencyCategory(s.Category),
			Severity:  divert.Severity(s.Severity),
			Condition: s.Condition,
		}

		wxByICAO := a.fetchWeather(ctx, aircraft.Position)

		result, err := a.engine.RankDiversions(ctx, aircraft, emergency, a.airports.Airports(), wxByICAO)
		if err != nil {
			a.tviewApp.QueueUpdateDraw(func() {
				a.addLog("ERROR", fmt.Sprintf("Ranking failed: %v", err))
			})
			return
		}

		a.mu.Lock()
		a.result = result
		a.mu.Unlock()

		a.tviewApp.QueueUpdateDraw(func() {
			for _, warning := range result.Warnings {
				a.addLog("WARN", warning)
			}
			if result.Primary != nil {
				a.addLog("INFO", fmt.Sprintf("Primary: %s (score %.1f, confidence %.2f)",
					result.Primary.Airport.ICAO, result.Primary.Score, result.DecisionConfidence))
			} else {
				a.addLog("WARN", "No feasible diversion")
			}
			a.renderTable()
			a.updateDetail()
		})
	}()
}

// fetchWeather sweeps METARs for airports inside the search radius.
func (a *App) fetchWeather(ctx context.Context, position geodesy.Position) map[string]weather.Snapshot {
	if a.wx == nil {
		return nil
	}

	var icaos []string
	for _, apt := range a.airports.Airports() {
		if geodesy.DistanceNM(position, apt.Position) <= a.engine.SearchRadiusNM() {
			icaos = append(icaos, apt.ICAO)
		}
	}

	snapshots, err := a.wx.SnapshotsByICAO(ctx, icaos)
	if err != nil {
		return nil
	}
	return snapshots
}

// renderTable redraws the ranked candidates table
func (a *App) renderTable() {
	a.mu.RLock()
	defer a.mu.RUnlock()

	a.table.Clear()

	headers := []string{"Rank", "ICAO", "Name", "Dist (nm)", "Fuel margin", "Weather", "Medical", "Score", "Feasible"}
	for col, h := range headers {
		a.table.SetCell(0, col, tview.NewTableCell("[yellow]"+h+"[-]").
			SetSelectable(false))
	}

	if a.result == nil {
		a.table.SetCell(1, 0, tview.NewTableCell("[gray]Press ENTER to run ranking[-]").
			SetSelectable(false))
		return
	}

	for i, entry := range a.result.Ranked {
		color := "white"
		if !entry.Feasible {
			color = "red"
		} else if a.result.Primary != nil && entry.Airport.ICAO == a.result.Primary.Airport.ICAO {
			color = "green"
		}

		row := i + 1
		cells := []string{
			strconv.Itoa(entry.Rank),
			entry.Airport.ICAO,
			entry.Airport.Name,
			fmt.Sprintf("%.0f", entry.Feasibility.DistanceNM),
			fmt.Sprintf("%.0f kg", entry.Feasibility.FuelMarginKg),
			string(entry.Feasibility.Weather),
			string(entry.Feasibility.Medical),
			fmt.Sprintf("%.1f", entry.Score),
			fmt.Sprintf("%v", entry.Feasible),
		}
		for col, text := range cells {
			a.table.SetCell(row, col, tview.NewTableCell(fmt.Sprintf("[%s]%s[-]", color, text)))
		}
	}

	a.table.Select(1, 0)
}

// updateDetail redraws the detail panel for the selected row
func (a *App) updateDetail() {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.result == nil {
		a.detail.SetText("[gray]No ranking yet[-]")
		return
	}

	row, _ := a.table.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(a.result.Ranked) {
		a.detail.SetText("[gray]No candidate selected[-]")
		return
	}

	entry := a.result.Ranked[idx]
	f := entry.Feasibility

	text := fmt.Sprintf("[yellow]%s[-] [white]%s[-]\n", entry.Airport.ICAO, entry.Airport.Name)
	text += fmt.Sprintf("[gray]Rank:[-] [white]%d[-]  [gray]Score:[-] [white]%.1f[-]\n\n", entry.Rank, entry.Score)
	text += fmt.Sprintf("[gray]Distance:[-]   [white]%.1f nm @ %.0f°[-]\n", f.DistanceNM, f.BearingDeg)
	text += fmt.Sprintf("[gray]Flight time:[-] [white]%.2f hr[-]\n", f.FlightTimeHr)
	text += fmt.Sprintf("[gray]Fuel req:[-]   [white]%.0f kg[-]  [gray]Margin:[-] [white]%.0f kg[-]\n", f.FuelRequiredKg, f.FuelMarginKg)
	text += fmt.Sprintf("[gray]Runway:[-]     [white]%s[-] (%.0f ft)\n", f.Runway, entry.Airport.RunwayLengthFt)
	text += fmt.Sprintf("[gray]Medical:[-]    [white]%s[-]\n", f.Medical)
	text += fmt.Sprintf("[gray]Weather:[-]    [white]%s[-]\n", f.Weather)
	text += fmt.Sprintf("[gray]Est. cost:[-]  [white]$%.0f[-]\n", f.EstimatedCost)

	if len(f.RiskFactors) > 0 {
		text += "\n[red]Risks:[-]\n"
		for _, risk := range f.RiskFactors {
			text += fmt.Sprintf("  [red]• %s[-]\n", risk)
		}
	}
	if len(f.Advantages) > 0 {
		text += "\n[green]Advantages:[-]\n"
		for _, adv := range f.Advantages {
			text += fmt.Sprintf("  [green]• %s[-]\n", adv)
		}
	}

	a.detail.SetText(text)
}

// addLog adds a log message to the log panel
func (a *App) addLog(level, message string) {
	timestamp := time.Now().Format("15:04:05")
	var color string
	switch level {
	case "ERROR":
		color = "red"
	case "WARN":
		color = "yellow"
	case "INFO":
		color = "white"
	default:
		color = "gray"
	}

	fmt.Fprintf(a.logs, "[gray]%s[-] [%s]%-5s[-] %s\n", timestamp, color, level, message)
}

// Run starts the application
func (a *App) Run() error {
	return a.tviewApp.Run()
}
