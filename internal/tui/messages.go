package tui

// timerMsg is delivered when a scheduler timer elapses.
type timerMsg struct {
	id uint64
}

// reloadMsg asks the model to re-read the document from disk. The file
// watcher sends it through the program.
type reloadMsg struct{}
