package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/trussim/internal/storage"
)

type tab int

const (
	tabSticks tab = iota
	tabNodes
)

// Browser is a Bubble Tea model for inspecting a solved construction.
type Browser struct {
	title    string
	result   *storage.Result
	tab      tab
	cursor   int
	offset   int
	showRest bool
	width    int
	height   int
}

func NewBrowser(title string, res *storage.Result) Browser {
	return Browser{title: title, result: res, showRest: true, width: 100, height: 30}
}

func (b Browser) Init() tea.Cmd { return nil }

func (b Browser) rows() int {
	if b.tab == tabNodes {
		return len(b.result.Nodes)
	}
	return len(b.result.Sticks)
}

// tableHeight is the number of table rows that fit below the canvas.
func (b Browser) tableHeight() int {
	return max(b.height-b.canvasHeight()-8, 3)
}

func (b Browser) canvasHeight() int {
	return max(b.height/2, 6)
}

func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return b, tea.Quit
		case "up", "k":
			if b.cursor > 0 {
				b.cursor--
			}
		case "down", "j":
			if b.cursor < b.rows()-1 {
				b.cursor++
			}
		case "tab":
			if b.tab == tabSticks {
				b.tab = tabNodes
			} else {
				b.tab = tabSticks
			}
			b.cursor, b.offset = 0, 0
		case "d":
			b.showRest = !b.showRest
		case "t":
			SetTheme(NextTheme())
		}
	}

	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if h := b.tableHeight(); b.cursor >= b.offset+h {
		b.offset = b.cursor - h + 1
	}
	return b, nil
}

func (b Browser) View() string {
	var s strings.Builder
	th := CurrentTheme
	primary := lipgloss.NewStyle().Foreground(th.Primary).Bold(true)
	muted := lipgloss.NewStyle().Foreground(th.Muted)

	conv := b.result.Convergence
	s.WriteString(primary.Render(strings.ToUpper(b.title)) + "  " + Status(conv.Converged) + "\n")
	s.WriteString(Metric("iterations", conv.Iterations) + "  " + Metric("flow steps", conv.FlowSteps))
	if conv.Error != nil {
		s.WriteString("  " + Metric("error", fmt.Sprintf("%.3g", *conv.Error)))
	}
	s.WriteString("  " + SparklineChart(conv.History, 30) + "\n")

	layers := LayerSolved
	if b.showRest {
		layers |= LayerRest
	}
	canvas := Render(b.result, max(b.width-4, 10), b.canvasHeight(), layers)
	s.WriteString(Panel.BorderForeground(th.Muted).Render(strings.TrimRight(canvas.String(), "\n")) + "\n")

	if b.tab == tabSticks {
		s.WriteString(primary.Render("sticks") + muted.Render(" | nodes") + "\n")
		s.WriteString(muted.Render(fmt.Sprintf("  %4s %9s %-10s %10s %12s %12s", "#", "nodes", "material", "area", "strain", "force")) + "\n")
	} else {
		s.WriteString(muted.Render("sticks | ") + primary.Render("nodes") + "\n")
		s.WriteString(muted.Render(fmt.Sprintf("  %4s %-5s %12s %12s %12s %12s", "#", "free", "rest x", "rest y", "x", "y")) + "\n")
	}

	end := min(b.offset+b.tableHeight(), b.rows())
	for i := b.offset; i < end; i++ {
		var line string
		style := lipgloss.NewStyle().Foreground(th.Text)
		if b.tab == tabSticks {
			st := b.result.Sticks[i]
			line = fmt.Sprintf("%4d %4d-%-4d %-10s %10.4g %12.4e %12.4e",
				st.Index, st.Nodes[0], st.Nodes[1], truncate(st.Material, 10), st.Area, st.Strain, st.Force)
			style = StrainStyle(st.Strain)
		} else {
			n := b.result.Nodes[i]
			line = fmt.Sprintf("%4d %-5t %12.5g %12.5g %12.5g %12.5g",
				n.Index, n.Free, n.Rest.X, n.Rest.Y, n.Solved.X, n.Solved.Y)
		}
		if i == b.cursor {
			s.WriteString(primary.Render("▸ ") + style.Bold(true).Render(line) + "\n")
		} else {
			s.WriteString("  " + style.Render(line) + "\n")
		}
	}

	s.WriteString("\n" + KeyHint.Render("j/k move  tab sticks/nodes  d rest overlay  t theme  q quit"))
	return s.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// RunBrowser opens the browser in the alternate screen and blocks until quit.
func RunBrowser(title string, res *storage.Result) error {
	_, err := tea.NewProgram(NewBrowser(title, res), tea.WithAltScreen()).Run()
	return err
}
