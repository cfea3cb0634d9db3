package tui

import "storyglow/internal/pipeline"

// StageMsg moves a video's row to a new pipeline stage.
type StageMsg struct {
	VideoID string
	Stage   string
}

// FrameMsg updates a video's frame counter while rendering.
type FrameMsg struct {
	VideoID string
	Done    int
	Total   int
}

// CompleteMsg finalizes a video's row with its pipeline result.
type CompleteMsg struct {
	Result pipeline.Result
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
