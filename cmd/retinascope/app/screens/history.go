package screens

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/retinaai/retinascope/cmd/retinascope/app/components"
	"github.com/retinaai/retinascope/internal/api"
)

// HistoryService is the slice of the backend client the history screen needs.
type HistoryService interface {
	History(ctx context.Context, page, limit int, search string) (api.HistoryPage, error)
	DeleteDiagnosis(ctx context.Context, id string) (bool, error)
}

const (
	// PageLimit is the default page size for history queries.
	PageLimit = 50

	// SearchDebounce is how long typing must pause before a search query is
	// issued. Only the latest keystroke generation fires a request.
	SearchDebounce = 600 * time.Millisecond
)

type historyMode int

const (
	historyBrowse historyMode = iota
	historySearch
	historyConfirmDelete
)

// HistoryScreen lists past diagnoses with pagination, debounced search and
// single or bulk deletion.
type HistoryScreen struct {
	svc HistoryService

	page    api.HistoryPage
	curPage int
	limit   int
	search  string
	input   textinput.Model

	token       int
	debounceGen int

	cursor   int
	selected map[string]bool

	mode    historyMode
	loading bool
	errMsg  string
	status  string

	width  int
	height int
}

// NewHistoryScreen creates the history view and schedules the first page load
// through Init. limit <= 0 falls back to PageLimit.
func NewHistoryScreen(svc HistoryService, limit int) *HistoryScreen {
	if limit <= 0 {
		limit = PageLimit
	}

	ti := textinput.New()
	ti.Placeholder = "Search by name or mobile"
	ti.CharLimit = 64
	ti.Width = 32

	return &HistoryScreen{
		svc:      svc,
		curPage:  1,
		limit:    limit,
		input:    ti,
		selected: make(map[string]bool),
		loading:  true,
	}
}

// Init implements tea.Model.
func (s *HistoryScreen) Init() tea.Cmd {
	return s.loadCmd()
}

// loadCmd issues a fetch for the current page and search text. Each call
// advances the request token; responses carrying an older token are stale and
// are dropped in Update.
func (s *HistoryScreen) loadCmd() tea.Cmd {
	s.token++
	s.loading = true

	token := s.token
	page := s.curPage
	limit := s.limit
	search := s.search
	svc := s.svc

	return func() tea.Msg {
		res, err := svc.History(context.Background(), page, limit, search)
		return HistoryLoadedMsg{Token: token, Page: res, Err: err}
	}
}

func (s *HistoryScreen) debounceCmd() tea.Cmd {
	s.debounceGen++
	gen := s.debounceGen
	return tea.Tick(SearchDebounce, func(time.Time) tea.Msg {
		return SearchDebounceMsg{Gen: gen}
	})
}

// deleteCmd removes the given diagnoses concurrently and reports how many
// deletions the server acknowledged.
func (s *HistoryScreen) deleteCmd(ids []string) tea.Cmd {
	svc := s.svc
	return func() tea.Msg {
		var wg sync.WaitGroup
		var succeeded int64
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if ok, err := svc.DeleteDiagnosis(context.Background(), id); err == nil && ok {
					atomic.AddInt64(&succeeded, 1)
				}
			}(id)
		}
		wg.Wait()
		return DeleteDoneMsg{Succeeded: int(succeeded), Total: len(ids)}
	}
}

// Capturing reports whether the screen is consuming raw keystrokes (search
// input or a confirmation prompt), so callers must not treat keys as global
// shortcuts.
func (s *HistoryScreen) Capturing() bool {
	return s.mode != historyBrowse
}

// CanPrev reports whether an earlier page exists.
func (s *HistoryScreen) CanPrev() bool { return s.curPage > 1 }

// CanNext reports whether a later page exists.
func (s *HistoryScreen) CanNext() bool { return s.curPage < s.page.Pages }

// Records returns the records of the currently displayed page.
func (s *HistoryScreen) Records() []api.DiagnosisRecord { return s.page.Records }

func (s *HistoryScreen) pendingDeletion() []string {
	if len(s.selected) > 0 {
		ids := make([]string, 0, len(s.selected))
		for _, r := range s.page.Records {
			if s.selected[r.ID] {
				ids = append(ids, r.ID)
			}
		}
		return ids
	}
	if s.cursor < len(s.page.Records) {
		return []string{s.page.Records[s.cursor].ID}
	}
	return nil
}

// Update implements tea.Model.
func (s *HistoryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		return s, nil

	case HistoryLoadedMsg:
		if msg.Token != s.token {
			return s, nil
		}
		s.loading = false
		if msg.Err != nil {
			s.errMsg = fmt.Sprintf("Could not load history: %v", msg.Err)
			return s, nil
		}
		s.errMsg = ""
		s.page = msg.Page
		if s.cursor >= len(s.page.Records) {
			s.cursor = 0
		}
		for id := range s.selected {
			if !s.pageHas(id) {
				delete(s.selected, id)
			}
		}
		return s, nil

	case SearchDebounceMsg:
		if msg.Gen != s.debounceGen {
			return s, nil
		}
		s.search = strings.TrimSpace(s.input.Value())
		s.curPage = 1
		return s, s.loadCmd()

	case DeleteDoneMsg:
		if msg.Succeeded == msg.Total {
			s.status = fmt.Sprintf("Deleted %d record(s)", msg.Succeeded)
		} else {
			s.status = fmt.Sprintf("Deleted %d of %d record(s)", msg.Succeeded, msg.Total)
		}
		s.selected = make(map[string]bool)
		return s, s.loadCmd()

	case tea.KeyMsg:
		return s.updateKey(msg)
	}

	return s, nil
}

func (s *HistoryScreen) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch s.mode {
	case historySearch:
		switch msg.String() {
		case "enter", "esc":
			s.mode = historyBrowse
			s.input.Blur()
			return s, nil
		default:
			var cmd tea.Cmd
			s.input, cmd = s.input.Update(msg)
			return s, tea.Batch(cmd, s.debounceCmd())
		}

	case historyConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			ids := s.pendingDeletion()
			s.mode = historyBrowse
			if len(ids) == 0 {
				return s, nil
			}
			return s, s.deleteCmd(ids)
		case "n", "N", "esc":
			s.mode = historyBrowse
			return s, nil
		}
		return s, nil
	}

	switch msg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.page.Records)-1 {
			s.cursor++
		}
	case "left":
		if s.CanPrev() {
			s.curPage--
			return s, s.loadCmd()
		}
	case "right":
		if s.CanNext() {
			s.curPage++
			return s, s.loadCmd()
		}
	case " ":
		if s.cursor < len(s.page.Records) {
			id := s.page.Records[s.cursor].ID
			if s.selected[id] {
				delete(s.selected, id)
			} else {
				s.selected[id] = true
			}
		}
	case "a":
		if len(s.selected) == len(s.page.Records) {
			s.selected = make(map[string]bool)
		} else {
			for _, r := range s.page.Records {
				s.selected[r.ID] = true
			}
		}
	case "/":
		s.mode = historySearch
		s.status = ""
		return s, s.input.Focus()
	case "x", "delete":
		if len(s.pendingDeletion()) > 0 {
			s.mode = historyConfirmDelete
		}
	case "p":
		if s.cursor < len(s.page.Records) {
			id := s.page.Records[s.cursor].ID
			return s, func() tea.Msg { return PrintRequestMsg{ID: id} }
		}
	case "r":
		return s, s.loadCmd()
	}

	return s, nil
}

func (s *HistoryScreen) pageHas(id string) bool {
	for _, r := range s.page.Records {
		if r.ID == id {
			return true
		}
	}
	return false
}

// View implements tea.Model.
func (s *HistoryScreen) View() string {
	var sb strings.Builder

	sb.WriteString(components.TitleStyle.Render("DIAGNOSIS HISTORY"))
	sb.WriteString("\n")

	if s.mode == historySearch || s.input.Value() != "" {
		sb.WriteString("  Search: " + s.input.View())
		sb.WriteString("\n\n")
	}

	switch {
	case s.errMsg != "":
		sb.WriteString(components.ErrorStyle.Render("✗ " + s.errMsg))
		sb.WriteString("\n")
	case s.loading:
		sb.WriteString(components.SubtitleStyle.Render("Loading..."))
		sb.WriteString("\n")
	case len(s.page.Records) == 0 && s.search != "":
		sb.WriteString(components.SubtitleStyle.Render(fmt.Sprintf("No records match %q.", s.search)))
		sb.WriteString("\n")
	case len(s.page.Records) == 0:
		sb.WriteString(components.SubtitleStyle.Render("No diagnoses recorded yet."))
		sb.WriteString("\n")
	default:
		sb.WriteString(s.table())
	}

	if s.mode == historyConfirmDelete {
		n := len(s.pendingDeletion())
		sb.WriteString("\n")
		sb.WriteString(components.WarnStyle.Render(fmt.Sprintf("Delete %d record(s)? (y/n)", n)))
		sb.WriteString("\n")
	}

	if s.status != "" {
		sb.WriteString("\n")
		sb.WriteString(components.SubtitleStyle.Render(s.status))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(components.HintStyle.Render(
		"↑/↓: Move | ←/→: Page | Space: Select | a: Select all | /: Search | x: Delete | p: Print | d: New diagnosis | q: Quit"))
	return sb.String()
}

func (s *HistoryScreen) table() string {
	var sb strings.Builder

	sb.WriteString(components.LabelStyle.Render(
		fmt.Sprintf("  %-3s %-12s %-20s %-14s %-13s %s", "", "DATE", "PATIENT", "CLASS", "RISK", "MOBILE")))
	sb.WriteString("\n")

	for i, r := range s.page.Records {
		marker := "[ ]"
		if s.selected[r.ID] {
			marker = "[x]"
		}

		risk := "N/A"
		if r.SeverityIndex >= 0 {
			risk = fmt.Sprintf("%.1f%%", r.Risk)
		}

		label := r.Diagnosis
		if label == "" {
			label = "Rejected"
		}

		row := fmt.Sprintf("  %-3s %-12s %-20s %s %-13s %s",
			marker, r.Date, truncate(r.Patient.Name, 20),
			components.Badge(fmt.Sprintf("%-14s", label), r.SeverityIndex), risk, r.Patient.Mobile)

		if i == s.cursor {
			row = components.SelectedRowStyle.Render(row)
		}
		sb.WriteString(row)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(components.SubtitleStyle.Render(
		fmt.Sprintf("  Page %d of %d (%d records)", s.page.Page, max(1, s.page.Pages), s.page.Total)))
	sb.WriteString("\n")
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
