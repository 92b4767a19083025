package web

import (
	"bytes"

	"github.com/yuin/goldmark"

	"taskdash/internal/dashboard"
)

// stateView is the JSON shape of a snapshot. It replaces the modal with a
// copy that carries the rendered agent summary.
type stateView struct {
	dashboard.State
	Modal *modalView `json:"modal,omitempty"`
}

type modalView struct {
	*dashboard.Modal
	AgentSummaryHTML string `json:"agent_summary_html,omitempty"`
}

func (s *Server) stateView(state dashboard.State) stateView {
	view := stateView{State: state}
	if state.Modal == nil {
		return view
	}
	modal := &modalView{Modal: state.Modal}
	if state.Modal.Mode == dashboard.ModeView && state.Modal.Viewing != nil {
		html, err := renderMarkdown(state.Modal.Viewing.AgentSummary)
		if err != nil {
			s.logger.Warn("render agent summary", "key", state.Modal.Viewing.Key(), "error", err)
		}
		modal.AgentSummaryHTML = html
	}
	view.Modal = modal
	return view
}

// renderMarkdown converts markdown to HTML. Raw HTML in the source is
// omitted by the default renderer.
func renderMarkdown(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
