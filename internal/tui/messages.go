package tui

// RowUpdateMsg sets fields of the row identified by Key. Fields are keyed by
// column header; headers not present are left alone.
type RowUpdateMsg struct {
	Key    string
	Fields map[string]string
}

// WorkDoneMsg ends the program once every row has settled.
type WorkDoneMsg struct{}

// ErrorMsg aborts the program with Err.
type ErrorMsg struct {
	Err error
}
