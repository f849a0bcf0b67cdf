package tui

// Messages pushed into the program from controller callbacks and commands.

type timelineChangedMsg struct{}

type attachmentsChangedMsg struct{}

type titleChangedMsg struct {
	title string
}

type sendFailedMsg struct {
	err error
}
