package domain

import (
	"time"

	"github.com/google/uuid"
)

// MediaAttachment describes one media file belonging to an entry, either
// pending upload (Path set) or already stored remotely (FileID/URL set).
type MediaAttachment struct {
	ID       string `json:"id,omitempty"`
	FileID   string `json:"file_id,omitempty"`
	Path     string `json:"path,omitempty"`
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`

	// ProcessLog is an append-only record of transformations applied to
	// this attachment. Agents consult it to skip work they already did.
	ProcessLog []ProcessRecord `json:"processing_meta,omitempty"`
}

// ProcessRecord is one log entry of an attachment transformation.
type ProcessRecord struct {
	ID           string         `json:"process_id"`
	Agent        string         `json:"agent_name"`
	AgentVersion string         `json:"agent_version,omitempty"`
	Action       string         `json:"action_taken"`
	Timestamp    time.Time      `json:"timestamp_utc"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Outcome      ProcessOutcome `json:"outcome"`
}

// ProcessOutcome records how a transformation ended.
type ProcessOutcome struct {
	Status            string `json:"status"`
	Message           string `json:"message,omitempty"`
	OriginalSizeBytes int64  `json:"original_size_bytes,omitempty"`
	FinalSizeBytes    int64  `json:"final_size_bytes,omitempty"`
}

const (
	ProcessStatusSuccess = "success"
	ProcessStatusFailure = "failure"
)

// NewProcessRecord stamps id and UTC timestamp for an agent's log entry.
func NewProcessRecord(agent, version, action string) ProcessRecord {
	return ProcessRecord{
		ID:           uuid.NewString(),
		Agent:        agent,
		AgentVersion: version,
		Action:       action,
		Timestamp:    time.Now().UTC(),
	}
}

// ProcessedBy reports whether the named agent already handled this
// attachment, regardless of outcome.
func (a MediaAttachment) ProcessedBy(agent string) bool {
	for _, rec := range a.ProcessLog {
		if rec.Agent == agent {
			return true
		}
	}
	return false
}

// LogProcess appends a record to the attachment's processing log.
func (a *MediaAttachment) LogProcess(rec ProcessRecord) {
	a.ProcessLog = append(a.ProcessLog, rec)
}
