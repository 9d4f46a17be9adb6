package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skyops/divert/pkg/config"
	"github.com/skyops/divert/pkg/divert"
	"github.com/skyops/divert/pkg/geodesy"
	"github.com/skyops/divert/pkg/registry"
)

// sampleScenario is the fixed ranking request used for the live preview.
type sampleScenario struct {
	Latitude     float64
	Longitude    float64
	AircraftType string
	FuelKg       float64
}

// tunerField identifies one editable value.
type tunerField struct {
	name    string
	section string
	step    float64
	get     func(cfg *config.Config) float64
	set     func(cfg *config.Config, v float64)
}

// tunerModel is the bubbletea model for the weights tuner.
type tunerModel struct {
	cfg         *config.Config // Working copy of configuration
	originalCfg *config.Config // Original config for revert
	configPath  string

	airports *registry.Registry
	scenario sampleScenario
	preview  *divert.DiversionResult

	fields       []tunerField
	currentField int
	editing      bool
	editBuffer   string

	dirty          bool
	message        string
	messageIsError bool

	width  int
	height int
}

// tunerFields builds the editable field table. Field order drives display
// order; sections group them visually.
func tunerFields() []tunerField {
	w := func(f func(c *config.Config) *float64) (func(*config.Config) float64, func(*config.Config, float64)) {
		return func(c *config.Config) float64 { return *f(c) },
			func(c *config.Config, v float64) { *f(c) = v }
	}

	fields := []tunerField{}
	add := func(section, name string, step float64, ptr func(c *config.Config) *float64) {
		get, set := w(ptr)
		fields = append(fields, tunerField{name: name, section: section, step: step, get: get, set: set})
	}

	add("SCORING WEIGHTS", "Medical excellent", 5, func(c *config.Config) *float64 { return &c.Engine.Weights.MedicalExcellent })
	add("SCORING WEIGHTS", "Medical good", 5, func(c *config.Config) *float64 { return &c.Engine.Weights.MedicalGood })
	add("SCORING WEIGHTS", "Medical basic", 5, func(c *config.Config) *float64 { return &c.Engine.Weights.MedicalBasic })
	add("SCORING WEIGHTS", "Distance divisor", 1, func(c *config.Config) *float64 { return &c.Engine.Weights.DistanceDivisor })
	add("SCORING WEIGHTS", "Fuel margin threshold (kg)", 1000, func(c *config.Config) *float64 { return &c.Engine.Weights.FuelMarginThresholdKg })
	add("SCORING WEIGHTS", "Fuel bonus", 5, func(c *config.Config) *float64 { return &c.Engine.Weights.FuelBonus })
	add("SCORING WEIGHTS", "Ops bonus", 5, func(c *config.Config) *float64 { return &c.Engine.Weights.OpsBonus })
	add("SCORING WEIGHTS", "Runway bonus", 5, func(c *config.Config) *float64 { return &c.Engine.Weights.RunwayBonus })

	add("COST MODEL", "Fuel price per nm", 5, func(c *config.Config) *float64 { return &c.Engine.Costs.FuelPricePerNM })
	add("COST MODEL", "Delay per pax minute", 0.1, func(c *config.Config) *float64 { return &c.Engine.Costs.DelayPerPassengerMinute })
	add("COST MODEL", "Compensation default", 5000, func(c *config.Config) *float64 { return &c.Engine.Costs.CompensationDefault })
	add("COST MODEL", "Crew cost", 1000, func(c *config.Config) *float64 { return &c.Engine.Costs.CrewCost })
	add("COST MODEL", "Landing fee", 500, func(c *config.Config) *float64 { return &c.Engine.Costs.LandingFee })

	add("ENGINE", "Search radius (nm)", 50, func(c *config.Config) *float64 { return &c.Engine.SearchRadiusNM })

	return fields
}

// newTunerModel creates a tuner over a working copy of the config.
func newTunerModel(cfg *config.Config, configPath string, airports *registry.Registry, scenario sampleScenario) tunerModel {
	workingCfg := *cfg
	originalCfg := *cfg

	m := tunerModel{
		cfg:         &workingCfg,
		originalCfg: &originalCfg,
		configPath:  configPath,
		airports:    airports,
		scenario:    scenario,
		fields:      tunerFields(),
	}
	m.refreshPreview()
	return m
}

func (m tunerModel) Init() tea.Cmd {
	return nil
}

func (m tunerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditMode(msg)
		}

		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.currentField > 0 {
				m.currentField--
			} else {
				m.currentField = len(m.fields) - 1
			}
			m.message = ""

		case "down", "j":
			m.currentField = (m.currentField + 1) % len(m.fields)
			m.message = ""

		case "enter":
			field := m.fields[m.currentField]
			m.editBuffer = trimFloat(field.get(m.cfg))
			m.editing = true
			m.message = "Editing... (ENTER to apply, ESC to cancel)"
			m.messageIsError = false

		case "+", "=":
			m.adjust(+1)

		case "-":
			m.adjust(-1)

		case "d":
			m.cfg.Engine = config.DefaultConfig().Engine
			m.dirty = true
			m.message = "Engine defaults restored (not saved)"
			m.messageIsError = false
			m.refreshPreview()

		case "u":
			m.cfg.Engine = m.originalCfg.Engine
			m.dirty = false
			m.message = "Reverted to loaded config"
			m.messageIsError = false
			m.refreshPreview()

		case "s":
			if err := m.cfg.Save(m.configPath); err != nil {
				m.message = fmt.Sprintf("Save failed: %v", err)
				m.messageIsError = true
			} else {
				m.dirty = false
				m.message = fmt.Sprintf("Saved to %s", m.configPath)
				m.messageIsError = false
			}
		}
	}

	return m, nil
}

// handleEditMode handles keypresses while editing a field.
func (m tunerModel) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.editBuffer = ""
		m.message = "Edit cancelled"
		m.messageIsError = false

	case "enter":
		v, err := strconv.ParseFloat(m.editBuffer, 64)
		if err != nil {
			m.message = fmt.Sprintf("Invalid number: %v", err)
			m.messageIsError = true
			return m, nil
		}
		if v < 0 {
			m.message = "Value must not be negative"
			m.messageIsError = true
			return m, nil
		}
		m.fields[m.currentField].set(m.cfg, v)
		m.editing = false
		m.editBuffer = ""
		m.dirty = true
		m.message = "Field updated (not saved)"
		m.messageIsError = false
		m.refreshPreview()

	case "backspace":
		if len(m.editBuffer) > 0 {
			m.editBuffer = m.editBuffer[:len(m.editBuffer)-1]
		}

	default:
		if len(msg.String()) == 1 {
			m.editBuffer += msg.String()
		}
	}

	return m, nil
}

// adjust steps the selected field by direction*step.
func (m *tunerModel) adjust(direction float64) {
	field := m.fields[m.currentField]
	v := field.get(m.cfg) + direction*field.step
	if v < 0 {
		v = 0
	}
	field.set(m.cfg, v)
	m.dirty = true
	m.message = ""
	m.refreshPreview()
}

// refreshPreview re-ranks the sample scenario under the working config.
// The engine is a pure function of its inputs, so rebuilding it per edit
// is cheap.
func (m *tunerModel) refreshPreview() {
	engine := divert.NewEngine(divert.EngineConfig{
		Weights:        m.cfg.Engine.Weights,
		Costs:          m.cfg.Engine.Costs,
		SearchRadiusNM: m.cfg.Engine.SearchRadiusNM,
		TopN:           m.cfg.Engine.TopN,
	})

	aircraft := divert.AircraftState{
		Position:        geodesy.Position{Latitude: m.scenario.Latitude, Longitude: m.scenario.Longitude},
		AircraftType:    m.scenario.AircraftType,
		FuelRemainingKg: m.scenario.FuelKg,
		Passengers:      250,
	}
	emergency := divert.EmergencyContext{
		Category:  divert.CategoryMedical,
		Severity:  divert.SeverityCritical,
		Condition: "cardiac",
	}

	result, err := engine.RankDiversions(context.Background(), aircraft, emergency, m.airports.Airports(), nil)
	if err != nil {
		m.preview = nil
		m.message = fmt.Sprintf("Preview failed: %v", err)
		m.messageIsError = true
		return
	}
	m.preview = result
}

func (m tunerModel) View() string {
	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Padding(0, 1)

	s.WriteString(headerStyle.Render("Engine Weights Tuner"))
	s.WriteString("\n\n")

	controlsStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	s.WriteString(controlsStyle.Render("[↑/↓] Navigate  [ENTER] Edit  [+/-] Step  [S] Save  [D] Defaults  [U] Revert  [Q] Quit"))
	s.WriteString("\n")

	if m.dirty {
		dirtyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
		s.WriteString(dirtyStyle.Render("Modified: * (unsaved changes)"))
	}
	s.WriteString("\n\n")

	if m.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
		if m.messageIsError {
			msgStyle = msgStyle.Foreground(lipgloss.Color("196"))
		}
		s.WriteString(msgStyle.Render(m.message))
		s.WriteString("\n\n")
	}

	left := m.renderFields()
	right := m.renderPreview()
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right))

	return s.String()
}

// renderFields renders the editable field list grouped by section.
func (m tunerModel) renderFields() string {
	var s strings.Builder

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	editStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("226"))

	lastSection := ""
	for i, field := range m.fields {
		if field.section != lastSection {
			if lastSection != "" {
				s.WriteString("\n")
			}
			s.WriteString(sectionStyle.Render(fmt.Sprintf("━━━ %s ━━━", field.section)))
			s.WriteString("\n")
			lastSection = field.section
		}

		prefix := "  "
		style := nameStyle
		if i == m.currentField {
			prefix = "▸ "
			style = selectedStyle
		}

		value := trimFloat(field.get(m.cfg))
		if i == m.currentField && m.editing {
			value = editStyle.Render(m.editBuffer + "█")
		} else {
			value = valueStyle.Render(value)
		}

		s.WriteString(fmt.Sprintf("%s%s %s\n", prefix, style.Render(padRight(field.name, 28)), value))
	}

	return s.String()
}

// renderPreview renders the live ranking preview.
func (m tunerModel) renderPreview() string {
	var s strings.Builder

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	primaryStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	infeasibleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	s.WriteString(sectionStyle.Render("━━━ LIVE PREVIEW ━━━"))
	s.WriteString("\n")
	s.WriteString(dimStyle.Render(fmt.Sprintf("%s at %.4f, %.4f with %.0f kg fuel",
		m.scenario.AircraftType, m.scenario.Latitude, m.scenario.Longitude, m.scenario.FuelKg)))
	s.WriteString("\n\n")

	if m.preview == nil {
		s.WriteString(dimStyle.Render("No preview available"))
		return s.String()
	}

	if m.preview.Primary == nil {
		s.WriteString(infeasibleStyle.Render("No feasible diversion"))
		s.WriteString("\n\n")
	} else {
		s.WriteString(primaryStyle.Render(fmt.Sprintf("Primary: %s (confidence %.2f)",
			m.preview.Primary.Airport.ICAO, m.preview.DecisionConfidence)))
		s.WriteString("\n\n")
	}

	shown := m.preview.Ranked
	if len(shown) > 8 {
		shown = shown[:8]
	}
	for _, entry := range shown {
		line := fmt.Sprintf("%2d. %-4s %6.1f nm  score %6.1f  $%.0f",
			entry.Rank, entry.Airport.ICAO, entry.Feasibility.DistanceNM,
			entry.Score, entry.Feasibility.EstimatedCost)
		if !entry.Feasible {
			s.WriteString(infeasibleStyle.Render(line + "  (infeasible)"))
		} else {
			s.WriteString(line)
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(dimStyle.Render(fmt.Sprintf("%d candidates evaluated", m.preview.EvaluatedCount)))

	return s.String()
}

// trimFloat formats a float without trailing zeros.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
