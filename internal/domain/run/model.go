// Package run holds the run-session lifecycle: the pending-request registry,
// the submission coordinator and the push-event router.
package run

import (
	"fmt"
	"strings"
	"time"
)

// Status is a run state as reported by the remote agent service.
type Status string

const (
	StatusQueued              Status = "queued"
	StatusInitializing        Status = "initializing"
	StatusDownloadingAssets   Status = "downloading_assets"
	StatusStarting            Status = "starting"
	StatusRendering           Status = "rendering"
	StatusMixingAudio         Status = "mixing_audio"
	StatusCombiningStreams    Status = "combining_streams"
	StatusUploadingArtifact   Status = "uploading_artifact"
	StatusDownloadingArtifact Status = "downloading_artifact"
	StatusUploadingToOSS      Status = "uploading_to_oss"
	StatusCompleted           Status = "completed"
	StatusFailed              Status = "failed"
	StatusCancelled           Status = "cancelled"

	// StatusInProgress is the coarse state the REST listing reports for any
	// run between queued and terminal.
	StatusInProgress Status = "in_progress"
)

// IsTerminal reports whether no further events are expected for this status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

var statusLabels = map[Status]string{
	StatusQueued:              "Queued",
	StatusInitializing:        "Initializing",
	StatusDownloadingAssets:   "Downloading Assets",
	StatusStarting:            "Starting",
	StatusRendering:           "Rendering",
	StatusMixingAudio:         "Mixing Audio",
	StatusCombiningStreams:    "Combining Streams",
	StatusUploadingArtifact:   "Uploading Artifact",
	StatusDownloadingArtifact: "Downloading Artifact",
	StatusUploadingToOSS:      "Uploading to OSS",
	StatusCompleted:           "Completed",
	StatusFailed:              "Failed",
	StatusCancelled:           "Cancelled",
	StatusInProgress:          "In Progress",
}

// Label returns the display name for a status.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// JobAddress identifies a run on the remote service. Namespace selects the
// service shard and credential scope, JobID is assigned at submission time.
type JobAddress struct {
	Namespace string `json:"namespace"`
	User      string `json:"user"`
	JobID     string `json:"jobId"`
}

// Equal reports structural equality; all three fields must match.
func (a JobAddress) Equal(other JobAddress) bool {
	return a.Namespace == other.Namespace && a.User == other.User && a.JobID == other.JobID
}

// String renders the address as the wire routing key "namespace/user/jobId".
func (a JobAddress) String() string {
	return a.Namespace + "/" + a.User + "/" + a.JobID
}

// ParseTarget parses a "namespace/user/jobId" routing key. Targets arrive
// untrusted on the shared channel, so malformed ones are an error, not a panic.
func ParseTarget(target string) (JobAddress, error) {
	parts := strings.Split(target, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return JobAddress{}, fmt.Errorf("malformed event target %q", target)
	}
	return JobAddress{Namespace: parts[0], User: parts[1], JobID: parts[2]}, nil
}

// StatusEvent is one push notification from the shared stream.
type StatusEvent struct {
	Address  JobAddress
	Status   Status
	Progress float64
	ETA      int64
}

// FileRef is an opaque handle to a file the chat transport can resolve to a
// downloadable URL later. Immutable once recorded.
type FileRef struct {
	Name    string
	FileID  string
	ChatID  string
	Private bool
}

// PendingSession is the mutable, not-yet-submitted draft of a run request.
// One per user at most while the request is being assembled.
type PendingSession struct {
	User               string
	ExpectResourcePack bool
	ChartFiles         []FileRef
	ResourcePack       *FileRef
}

// OutputFile is one artifact produced by a finished run.
type OutputFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DisplayName strips the job-id derived prefix ("<jobID> - ") the remote
// service prepends to artifact names.
func (f OutputFile) DisplayName(jobID string) string {
	runes := []rune(f.Name)
	prefix := len([]rune(jobID)) + 3
	if len(runes) > prefix {
		return string(runes[prefix:])
	}
	return f.Name
}

// Details is the full remote view of a run, as returned by the listing and
// detail endpoints.
type Details struct {
	ID            string       `json:"id"`
	Status        Status       `json:"status"`
	OutputFiles   []OutputFile `json:"outputFiles"`
	DateCreated   time.Time    `json:"dateCreated"`
	DateCompleted *time.Time   `json:"dateCompleted,omitempty"`
}

// Completed reports whether the remote service considers the run finished.
func (d Details) Completed() bool {
	return d.DateCompleted != nil
}

// ProgressInfo is the on-demand progress view of a single run.
type ProgressInfo struct {
	Status   Status  `json:"status"`
	Progress float64 `json:"progress"`
	ETA      int64   `json:"eta"`
}

// Input carries the resolved, durable URLs of the run inputs.
type Input struct {
	ChartFiles   []string `json:"chartFiles"`
	ResourcePack string   `json:"respack,omitempty"`
}

// Submission is the payload sent to the remote service when creating a run:
// resolved input URLs plus the user's render configuration sections.
type Submission struct {
	Input        Input          `json:"input"`
	User         string         `json:"user"`
	MediaOptions map[string]any `json:"mediaOptions"`
	Preferences  map[string]any `json:"preferences"`
	Toggles      map[string]any `json:"toggles"`
}

// Receipt is the remote service's answer to a successful submission.
type Receipt struct {
	Address   JobAddress
	QueueSize int
	QueueTime int64
}
