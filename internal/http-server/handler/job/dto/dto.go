package dto

import "time"

type JobResponse struct {
	ID         string     `json:"id"`
	State      string     `json:"state"`
	Processed  int        `json:"processed"`
	Total      int        `json:"total"`
	OutputDir  string     `json:"output_dir"`
	Error      string     `json:"error,omitempty"`
	Logs       []string   `json:"logs,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ETASeconds int        `json:"eta_seconds,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
