package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/people-tui/internal/bulk"
	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/filter"
	"github.com/pdxmph/people-tui/internal/people"
)

// View renders the model
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	listWidth := m.width / 2
	detailWidth := m.width - listWidth - 3

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		borderStyle.Width(listWidth).Height(m.height-4).Render(m.renderList(listWidth, m.height-4)),
		borderStyle.Width(detailWidth).Height(m.height-4).Render(m.renderDetail(detailWidth)),
	)

	view := lipgloss.JoinVertical(lipgloss.Left, content, m.renderStatus(), m.renderHelp())

	switch {
	case m.chipMode:
		return m.overlay(m.renderChips(), 0)
	case m.editMode:
		return m.overlay(m.renderEdit(), 60)
	case m.prompt != promptNone:
		return m.overlay(m.renderPrompt(), 0)
	}
	return view
}

// overlay centers a bordered box on the screen
func (m Model) overlay(content string, width int) string {
	style := borderStyle.
		Padding(1).
		Background(lipgloss.Color("235"))
	if width > 0 {
		style = style.Width(width)
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(style.Render(content))
}

func checkbox(a people.Aggregate) string {
	switch a {
	case people.SelectAll:
		return "[x]"
	case people.SelectSome:
		return "[-]"
	}
	return "[ ]"
}

// renderList renders the current page
func (m Model) renderList(width, height int) string {
	var lines []string
	st := m.store.Snapshot()

	if m.searchMode {
		lines = append(lines, m.search.View(), "")
		height -= 2
	}

	total := max(st.TotalCount, len(st.Loaded))
	header := fmt.Sprintf("%s People (%d/%d)", checkbox(m.store.AggregateForPage()), len(st.Filtered), total)
	header += fmt.Sprintf(" page %d/%d", st.Page, max(st.PageCount(), 1))
	if n := len(st.Selection); n > 0 {
		header += fmt.Sprintf(" • %d selected", n)
	}
	if m.busy {
		header += " …"
	}
	lines = append(lines, header)

	if chips := m.renderChipRow(st.Criteria); chips != "" {
		lines = append(lines, chips)
		height--
	}
	lines = append(lines, strings.Repeat("─", max(width-2, 0)))

	items := st.PageItems()
	if len(items) == 0 {
		if st.Criteria.Active() {
			lines = append(lines, labelStyle.Render("No people match the current filters"))
		} else {
			lines = append(lines, labelStyle.Render("No people"))
		}
		return strings.Join(lines, "\n")
	}

	visible := max(height-2, 1)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(items) && i < start+visible; i++ {
		c := items[i]
		box := "[ ] "
		if _, on := st.Selection[c.ID]; on {
			box = checkedStyle.Render("[x]") + " "
		}
		line := c.DisplayName()
		if c.Title != "" {
			line += ", " + c.Title
		}
		if c.CompanyName != "" {
			line += labelStyle.Render(" @ " + c.CompanyName)
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, box+line)
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderChipRow(cr filter.Criteria) string {
	var chips []string
	for _, f := range filter.Fields {
		for _, tok := range cr.Tokens.List(f).Tokens() {
			chips = append(chips, chipStyle.Render(f.String()+": "+tok))
		}
	}
	if cr.RequireEmail {
		chips = append(chips, chipStyle.Render("has email"))
	}
	if cr.RequirePhone {
		chips = append(chips, chipStyle.Render("has phone"))
	}
	if cr.Query != "" && !m.searchMode {
		chips = append(chips, chipStyle.Render("“"+cr.Query+"”"))
	}
	return strings.Join(chips, " ")
}

// renderDetail renders the contact under the cursor
func (m Model) renderDetail(width int) string {
	c, ok := m.current()
	if !ok {
		return "No contact selected"
	}

	var lines []string
	header := c.DisplayName()
	if c.Title != "" {
		header += " (" + c.Title + ")"
	}
	lines = append(lines, header, strings.Repeat("─", max(width-2, 0)), "")

	add := func(label, value string) {
		if value != "" {
			lines = append(lines, labelStyle.Render(label+": ")+value)
		}
	}
	add("Company", c.CompanyName)
	add("Employees", c.AccountEmployees)
	add("Website", c.CompanyWebsite)
	add("Email", c.Email)
	add("Email status", c.EmailStatus)
	add("Phone", c.Phone())
	add("Mobile", c.Mobile)
	add("Direct", c.WorkDirectPhone)
	add("Other", c.OtherPhone)

	location := strings.Trim(strings.TrimSpace(c.City+", "+c.State), ",")
	add("Location", strings.TrimSpace(location))
	add("Industry", c.Industry)
	add("Seniority", c.Seniority)
	add("Department", c.Department)
	add("LinkedIn", c.LinkedinURL)

	lines = append(lines, "")
	lines = append(lines, labelStyle.Render("Created: ")+contact.FormatTimestamp(c.CreatedAt))
	lines = append(lines, labelStyle.Render("Updated: ")+contact.FormatTimestamp(c.UpdatedAt))

	var wrapped []string
	for _, l := range lines {
		if lipgloss.Width(l) > width-2 {
			wrapped = append(wrapped, wrapText(l, width-2)...)
			continue
		}
		wrapped = append(wrapped, l)
	}
	return strings.Join(wrapped, "\n")
}

func (m Model) renderStatus() string {
	if m.notice == "" {
		return ""
	}
	return " " + noticeStyle.Render(m.notice)
}

// renderHelp renders the help line
func (m Model) renderHelp() string {
	switch {
	case m.prompt == promptConfirmDelete:
		return " y: confirm delete • any other key: cancel"
	case m.prompt != promptNone:
		return " Enter: confirm • Esc: cancel"
	case m.editMode:
		return " Tab/↓: next field • Shift+Tab/↑: prev • Enter: save • Esc: cancel"
	case m.chipMode:
		return " Tab: field • ↑/↓: suggestion • Enter: add • Backspace: remove last • Esc: done"
	case m.searchMode:
		return " Type to search • Enter: keep • Esc: clear"
	}

	help := " j/k: move • h/l: page • space: select • a: page • N: first n • u: none"
	help += " • /: search • f: filters • E: email • P: phone"
	if cr := m.store.Criteria(); cr.Active() {
		help += " • C: clear all"
	}
	help += " • e: edit • d: delete • L: list • s: sequence • X: export • r: reload • q: quit"
	return help
}

// renderChips renders the token filter overlay
func (m Model) renderChips() string {
	field := chipFields[m.chipField]
	cr := m.store.Criteria()

	var lines []string
	var tabs []string
	for i, f := range chipFields {
		label := f.String()
		if n := cr.Tokens.List(f).Len(); n > 0 {
			label += fmt.Sprintf("(%d)", n)
		}
		if i == m.chipField {
			label = selectedStyle.Render(label)
		}
		tabs = append(tabs, label)
	}
	lines = append(lines, strings.Join(tabs, " "), "")

	var current []string
	for _, tok := range cr.Tokens.List(field).Tokens() {
		current = append(current, chipStyle.Render(tok))
	}
	if len(current) == 0 {
		current = append(current, labelStyle.Render("no "+field.String()+" filters"))
	}
	lines = append(lines, strings.Join(current, " "), "", m.chipInput.View(), "")

	for i, s := range m.suggestions() {
		line := "  " + s
		if i == m.suggestion {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// renderEdit renders the inline edit overlay
func (m Model) renderEdit() string {
	c, ok := m.current()
	if !ok {
		return "No contact selected"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Edit: %s", c.DisplayName()))
	lines = append(lines, strings.Repeat("─", 40), "")

	for i, field := range bulk.EditableFields {
		label := fmt.Sprintf("%-17s", field+":")
		if i == m.editField {
			lines = append(lines, label+m.editInput.View())
		} else {
			lines = append(lines, label+editValue(c, field))
		}
	}

	lines = append(lines, "", "Tab/↓: next field • Shift+Tab/↑: previous • Enter: save • Esc: cancel")
	return strings.Join(lines, "\n")
}

func (m Model) renderPrompt() string {
	var title string
	switch m.prompt {
	case promptConfirmDelete:
		n := len(m.store.Selection())
		return fmt.Sprintf("Delete %d selected contacts?\n\nPress y to confirm, any other key to cancel", n)
	case promptList:
		title = "Add selection to list"
	case promptSequence:
		title = "Add selection to sequence"
	case promptSelectN:
		title = "Select the first N people"
	case promptExport:
		title = "Export selection"
	}
	return title + "\n\n" + m.promptInput.View()
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	currentLine := words[0]
	for _, word := range words[1:] {
		if len(currentLine)+1+len(word) <= width {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}
