// Package tui is the terminal dashboard: live readings with charts, the
// occupancy summary, the sign-in list and the command keys.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"smart-classroom/internal/models"
	"smart-classroom/internal/records"
	"smart-classroom/internal/services"
)

// visibleSignIns is how many of the most recent check-ins are listed
const visibleSignIns = 8

// Commands is the runtime surface the dashboard drives
type Commands interface {
	ToggleMonitoring()
	ToggleOccupancy()
	RecognizeNow()
	ScanSignIn()
	ClearSignIns()
	Shutdown()
}

type eventMsg struct {
	event services.Event
}

// Model is the bubbletea model for the dashboard
type Model struct {
	commands Commands
	events   <-chan services.Event
	keys     KeyMap
	help     help.Model

	room    string
	profile models.RoomProfile
	width   int

	status    services.StatusEvent
	record    *models.EnvironmentRecord
	history   []models.Sample
	occupancy services.OccupancyEvent
	signIns   []models.SignRecord
	notice    *services.NoticeEvent

	confirmingClear bool
}

// NewModel creates a dashboard reading from events
func NewModel(commands Commands, events <-chan services.Event, room string, profile models.RoomProfile) Model {
	return Model{
		commands: commands,
		events:   events,
		keys:     DefaultKeyMap,
		help:     help.New(),
		room:     room,
		profile:  profile,
		width:    80,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return listenForEvent(m.events)
}

// listenForEvent returns a command that blocks until the runtime emits
func listenForEvent(channel <-chan services.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-channel
		if !ok {
			return nil
		}
		return eventMsg{event: event}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.apply(msg.event)
		return m, listenForEvent(m.events)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) apply(event services.Event) {
	switch ev := event.(type) {
	case services.EnvironmentEvent:
		record := ev.Record
		m.record = &record
		m.history = ev.History
	case services.OccupancyEvent:
		m.occupancy = ev
	case services.SignInEvent:
		m.signIns = ev.Records
	case services.NoticeEvent:
		m.notice = &ev
	case services.StatusEvent:
		m.status = ev
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmingClear {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirmingClear = false
			m.commands.ClearSignIns()
		case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
			m.confirmingClear = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.commands.Shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Monitor):
		m.commands.ToggleMonitoring()
	case key.Matches(msg, m.keys.Occupancy):
		m.commands.ToggleOccupancy()
	case key.Matches(msg, m.keys.Recognize):
		m.commands.RecognizeNow()
	case key.Matches(msg, m.keys.Scan):
		m.commands.ScanSignIn()
	case key.Matches(msg, m.keys.Clear):
		m.confirmingClear = true
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	sections := []string{
		m.headerView(),
		panelStyle.Render(m.environmentView()),
		panelStyle.Render(m.occupancyView()),
		panelStyle.Render(m.signInView()),
	}
	if line := m.noticeView(); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("Smart Classroom "+m.room), " ",
		badge("monitoring", m.status.Monitoring), " ",
		badge("occupancy", m.status.Polling), " ",
		busy("recognizing", m.status.Recognizing),
		busy("scanning", m.status.Scanning),
	)
}

func badge(label string, on bool) string {
	if on {
		return onBadge.Render(label + " on")
	}
	return offBadge.Render(label + " off")
}

func busy(label string, active bool) string {
	if !active {
		return ""
	}
	return " " + busyBadge.Render(label)
}

func (m Model) environmentView() string {
	if m.record == nil {
		return labelStyle.Render("Monitoring stopped, press m to start")
	}

	t := m.profile.TemperatureRange
	l := m.profile.LightRange
	chartWidth := max(m.width-20, 10)

	temps := make([]float64, len(m.history))
	lights := make([]float64, len(m.history))
	for i, s := range m.history {
		temps[i] = s.Temperature
		lights[i] = s.Light
	}

	lines := []string{
		fmt.Sprintf("%s %s  %s %s  %s %s",
			labelStyle.Render("time"), m.record.Timestamp.Format(records.EnvironmentTimeLayout),
			labelStyle.Render("climate"), m.record.Controls.Climate,
			labelStyle.Render("light"), m.record.Controls.Light),
		fmt.Sprintf("%s %5.1f °C [%.0f-%.0f]",
			labelStyle.Render("temperature"), m.record.Temperature, t.Min, t.Max),
		temperatureStyle.Render(trendChart(temps, chartWidth, chartHeight)),
		fmt.Sprintf("%s %5.0f lx [%.0f-%.0f]",
			labelStyle.Render("light      "), m.record.Light, l.Min, l.Max),
		lightStyle.Render(trendChart(lights, chartWidth, chartHeight)),
	}
	return strings.Join(lines, "\n")
}

func (m Model) occupancyView() string {
	line := fmt.Sprintf("%s %d", labelStyle.Render("occupancy"), m.occupancy.Count)
	if len(m.occupancy.Names) > 0 {
		line += "  " + strings.Join(m.occupancy.Names, ", ")
	}
	if m.occupancy.Summary != "" {
		line += "\n" + labelStyle.Render(m.occupancy.Summary)
	}
	return line
}

func (m Model) signInView() string {
	title := fmt.Sprintf("%s (%d)", labelStyle.Render("signed in"), len(m.signIns))
	if m.confirmingClear {
		title += "  " + promptStyle.Render("Clear all sign-in records? (y/n)")
	}
	if len(m.signIns) == 0 {
		return title + "\n" + labelStyle.Render("nobody yet")
	}

	shown := m.signIns
	if len(shown) > visibleSignIns {
		shown = shown[len(shown)-visibleSignIns:]
	}
	lines := []string{title}
	for _, rec := range shown {
		lines = append(lines, fmt.Sprintf("%s  %s", rec.Timestamp.Format(records.SignInTimeLayout), rec.Name))
	}
	return strings.Join(lines, "\n")
}

func (m Model) noticeView() string {
	if m.notice == nil {
		return ""
	}
	switch m.notice.Level {
	case services.NoticeError:
		return errorStyle.Render(m.notice.Message)
	case services.NoticeWarning:
		return warningStyle.Render(m.notice.Message)
	default:
		return infoStyle.Render(m.notice.Message)
	}
}
