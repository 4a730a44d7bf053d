// Package browse is an interactive terminal browser over the stored
// postings. It walks the same page-marker pagination the HTTP API serves,
// loading the next page as the cursor reaches the bottom of the list.
package browse

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/workway/workway/internal/model"
	"github.com/workway/workway/internal/query"
)

// Lines per posting in the list view (title + subtitle + blank separator).
const itemHeight = 3

const pageSize = 25

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Width(16)

	valueStyle = lipgloss.NewStyle()

	expiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// pageLoadedMsg is sent when an async page fetch completes.
type pageLoadedMsg struct {
	page query.Page
	err  error
}

type browseModel struct {
	svc     *query.Service
	filters model.Filters

	postings   []model.Posting
	nextMarker *string
	exhausted  bool
	loading    bool
	loadError  string

	listViewport   viewport.Model
	detailViewport viewport.Model
	cursor         int
	width          int
	height         int
	ready          bool

	view   viewState
	detail model.Posting
}

func (m browseModel) Init() tea.Cmd {
	return m.loadPageCmd("")
}

func (m browseModel) loadPageCmd(marker string) tea.Cmd {
	svc := m.svc
	filters := m.filters
	return func() tea.Msg {
		page, err := svc.Jobs(context.Background(), query.Request{
			LastPageMarker: marker,
			PageSize:       pageSize,
			Filters:        filters,
		})
		return pageLoadedMsg{page: page, err: err}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case pageLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadError = fmt.Sprintf("failed to load postings: %v", msg.err)
			return m, nil
		}
		m.loadError = ""
		if len(msg.page.Jobs) == 0 {
			m.exhausted = true
			m.nextMarker = nil
		} else {
			m.postings = append(m.postings, msg.page.Jobs...)
			m.nextMarker = msg.page.NextPageMarker
		}
		m.recalcContent()
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.postings)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.postings)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		// Near the bottom with more pages available: fetch the next one.
		if !m.loading && !m.exhausted && m.nextMarker != nil && m.cursor >= len(m.postings)-3 {
			m.loading = true
			return m, m.loadPageCmd(*m.nextMarker)
		}
		return m, nil
	case "enter":
		if len(m.postings) == 0 {
			return m, nil
		}
		m.view = viewDetail
		m.detail = m.postings[m.cursor]
		m.detailViewport = viewport.New(m.width-4, m.height-4)
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil
	case "o":
		if len(m.postings) > 0 {
			openURL(m.postings[m.cursor].AbsoluteURL)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detail.AbsoluteURL)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *browseModel) ensureCursorVisible() {
	cursorTop := m.cursor * itemHeight
	cursorBottom := cursorTop + itemHeight - 1

	if cursorTop < m.listViewport.YOffset {
		m.listViewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(cursorBottom - m.listViewport.Height + 1)
	}
}

func (m *browseModel) recalcLayout() {
	paneWidth := max(m.width-2, 20)
	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.listViewport.Width = paneWidth
		m.listViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.listViewport.SetContent(renderPostings(m.postings, m.cursor))
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m browseModel) viewList() string {
	header := headerStyle.Render(fmt.Sprintf(" Jobs (%d loaded)", len(m.postings)))
	if m.loading {
		header += subtitleStyle.Render("  loading...")
	}
	if m.loadError != "" {
		header += "  " + errStyle.Render(m.loadError)
	}

	pane := borderStyle.Width(m.listViewport.Width).Render(m.listViewport.View())

	statusText := " ↑/↓ cursor  Enter detail  o open URL  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return header + "\n" + pane + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := headerStyle.Render(" Job Details")
	content := borderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	statusBar := statusBarStyle.Width(m.width).Render(" o open URL  esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	p := m.detail
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", p.Title)
	addField("Company", p.Company)
	addField("Location", p.Location)
	addField("Source", string(p.Source))
	addField("Job ID", p.JobID)

	b.WriteByte('\n')
	addField("Experience", p.ExperienceLevel)
	addField("Employment", p.EmploymentType)
	addField("Domain", p.Domain)
	addField("Workplace", p.WorkplaceType)

	b.WriteByte('\n')
	addField("Updated At", p.UpdatedAt.Format("2006-01-02 15:04 MST"))
	addField("Job URL", p.AbsoluteURL)

	if p.IsExpired {
		b.WriteByte('\n')
		b.WriteString(expiredStyle.Render("⚠ This posting looks stale and may no longer be open.") + "\n")
	}

	if p.Description != "" {
		wrapWidth := max(m.width-8, 20)
		fill := strings.Repeat("─", max(wrapWidth-len("── Description "), 3))
		b.WriteByte('\n')
		b.WriteString(dividerStyle.Render("── Description "+fill) + "\n\n")
		b.WriteString(bodyStyle.Render(wordWrap(p.Description, wrapWidth)) + "\n")
	}

	return b.String()
}

func renderPostings(postings []model.Posting, cursor int) string {
	if len(postings) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, p := range postings {
		titleSt := titleStyle
		subtitleSt := subtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(p.Title))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s",
			p.Company, p.Location, p.UpdatedAt.Format("2006-01-02"))))
		b.WriteByte('\n')

		if i < len(postings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the interactive posting browser over the query service,
// optionally pre-filtered.
func Run(svc *query.Service, filters model.Filters) error {
	m := browseModel{svc: svc, filters: filters}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
