package tui

import (
	"encoding/json"
	"os"
	"time"
)

type tuiErrorLogEntry struct {
	Time    string `json:"time"`
	Where   string `json:"where"`
	Message string `json:"message"`
}

// appendTUIErrorLog records render and update errors to the file named by
// CARE_TUI_ERROR_LOG. The TUI owns the terminal, so errors cannot go to
// stderr without corrupting the view.
func appendTUIErrorLog(where string, err error) {
	if err == nil {
		return
	}
	path := os.Getenv("CARE_TUI_ERROR_LOG")
	if path == "" {
		return
	}
	f, ferr := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if ferr != nil {
		return
	}
	defer f.Close()

	entry := tuiErrorLogEntry{
		Time:    time.Now().Format(time.RFC3339),
		Where:   where,
		Message: err.Error(),
	}
	data, merr := json.Marshal(entry)
	if merr != nil {
		return
	}
	f.Write(append(data, '\n'))
}
