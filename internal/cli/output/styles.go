package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header    lipgloss.Style
	Subheader lipgloss.Style
	Muted     lipgloss.Style
	Key       lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
}

// NewStyles builds styles bound to a lipgloss renderer.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#EDE6D3")),
		Subheader: r.NewStyle().Bold(true),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("241")),
		Key:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("244")),
		Success:   r.NewStyle().Foreground(lipgloss.Color("42")),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("214")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// Status returns the style for a status word.
func (s *Styles) Status(status string) lipgloss.Style {
	switch status {
	case "downloaded", "saved", "success", "shown":
		return s.Success
	case "skipped":
		return s.Muted
	case "failed", "error", "invalid":
		return s.Error
	default:
		return s.Subheader
	}
}
