package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"storyglow/internal/config"
	"storyglow/internal/pipeline"
)

// Reporter adapts bubbletea message sending to the pipeline.ProgressReporter
// interface. Frame updates are throttled so the renderer is not flooded with
// one message per frame.
type Reporter struct {
	send       func(tea.Msg)
	frameEvery int
}

// NewReporter constructs a reporter that forwards progress to send.
func NewReporter(send func(tea.Msg)) *Reporter {
	return &Reporter{send: send, frameEvery: 10}
}

// Start implements pipeline.ProgressReporter.
func (r *Reporter) Start(spec config.VideoSpec) {
	r.send(StageMsg{VideoID: spec.ID, Stage: "pending"})
}

// Stage implements pipeline.ProgressReporter.
func (r *Reporter) Stage(videoID, stage string) {
	r.send(StageMsg{VideoID: videoID, Stage: stage})
}

// Frame implements pipeline.ProgressReporter.
func (r *Reporter) Frame(videoID string, done, total int) {
	if done%r.frameEvery != 0 && done != total {
		return
	}
	r.send(FrameMsg{VideoID: videoID, Done: done, Total: total})
}

// Complete implements pipeline.ProgressReporter.
func (r *Reporter) Complete(result pipeline.Result) {
	r.send(CompleteMsg{Result: result})
}

var _ pipeline.ProgressReporter = (*Reporter)(nil)
