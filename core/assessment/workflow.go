package assessment

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
)

// MaxAudioBytes is the largest recording accepted for transcription.
const MaxAudioBytes = 25 << 20

const (
	uploaderFallback = "Unknown"

	msgNoFile         = "Please select an audio file"
	msgFileTooLarge   = "File size must be less than 25MB"
	msgNoDate         = "Please select a recording date"
	msgInvalidDate    = "Please enter a valid recording date (YYYY-MM-DD)"
	msgFutureDate     = "Recording date cannot be in the future"
	msgUploadFailed   = "Failed to process audio"
	msgAcceptFailed   = "Error saving assessment"
	msgRefreshFailed  = "Assessment saved, but the latest data could not be loaded"
	msgNoTranscript   = "No transcript received from server"
	msgUploadInFlight = "An upload is already being processed"
	msgReviewInFlight = "The assessment is already being saved"
)

var (
	ErrUploadInFlight   = errors.New(msgUploadInFlight)
	ErrReviewInFlight   = errors.New(msgReviewInFlight)
	ErrIncompleteResult = errors.New(msgNoTranscript)
	ErrWorkflowReset    = errors.New("upload workflow was reset")
)

// State of an upload-review workflow.
type State int

const (
	Idle State = iota
	FileSelected
	Uploading
	PendingReview
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FileSelected:
		return "fileSelected"
	case Uploading:
		return "uploading"
	case PendingReview:
		return "pendingReview"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StateError is returned when an operation is not available in the current state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.State)
}

// serverMessenger is implemented by backend errors carrying a message meant for the user.
type serverMessenger interface {
	ServerMessage() string
}

func userMessage(err error, fallback string) string {
	if sm, ok := errors.Cause(err).(serverMessenger); ok && sm.ServerMessage() != "" {
		return sm.ServerMessage()
	}
	return fallback
}

// UploadError is a failed transcription call. The file is kept so the upload can be retried.
type UploadError struct {
	Message string
	Err     error
}

func (e *UploadError) Error() string { return e.Message }
func (e *UploadError) Unwrap() error { return e.Err }

// AcceptError is a failed persist call. The pending review is kept so Accept can be retried.
type AcceptError struct {
	Message string
	Err     error
}

func (e *AcceptError) Error() string { return e.Message }
func (e *AcceptError) Unwrap() error { return e.Err }

// RefreshError is returned by Accept when the assessment was saved but reloading failed.
// The workflow is back to Idle regardless.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string { return msgRefreshFailed }
func (e *RefreshError) Unwrap() error { return e.Err }

// IsRefreshError reports whether err only signals a failed reload after a successful Accept.
func IsRefreshError(err error) bool {
	_, ok := err.(*RefreshError)
	return ok
}

type (
	AudioFile struct {
		Name        string
		ContentType string
		Size        int64
		Content     []byte
	}

	TranscribeRequest struct {
		Audio         AudioFile
		ChildID       string
		UploadedBy    string
		RecordingDate string // YYYY-MM-DD
	}

	// Transcription is the backend answer to an upload. Both fields are required to start a review.
	Transcription struct {
		Transcript string      `json:"transcript"`
		Assessment *Assessment `json:"assessment"`
	}

	// Backend is what the workflow needs from the REST API.
	Backend interface {
		Transcribe(ctx context.Context, req TranscribeRequest) (Transcription, error)
		AcceptAssessment(ctx context.Context, a Assessment) (*Assessment, error)
		LatestAssessment(ctx context.Context, childID string) (*Assessment, error)
		ChildAssessments(ctx context.Context, childID string) ([]Assessment, error)
	}

	// AcceptResult holds the saved assessment and the data reloaded after it.
	AcceptResult struct {
		Saved  *Assessment
		Latest *Assessment
		All    []Assessment
	}

	// Snapshot is a read-only copy of a workflow, as shown by the child page.
	Snapshot struct {
		ChildID           string      `json:"childId"`
		State             State       `json:"state"`
		FileName          string      `json:"fileName,omitempty"`
		FileSize          int64       `json:"fileSize,omitempty"`
		RecordingDate     string      `json:"recordingDate"`
		PendingTranscript string      `json:"pendingTranscript,omitempty"`
		PendingAssessment *Assessment `json:"pendingAssessment,omitempty"`
		UploadOpen        bool        `json:"uploadOpen"`
		ReviewOpen        bool        `json:"reviewOpen"`
		Saving            bool        `json:"saving"`
		LastError         string      `json:"lastError,omitempty"`
	}
)

// Workflow is the upload-review state machine of one child page:
// Idle -> FileSelected -> Uploading -> PendingReview -> Idle.
// It is safe for concurrent use; at most one upload and one accept are ever in flight.
type Workflow struct {
	mu      sync.Mutex
	backend Backend
	childID string

	state             State
	file              *AudioFile
	recordingDate     string
	pendingTranscript string
	pendingAssessment *Assessment
	saving            bool
	lastError         string
}

func NewWorkflow(childID string, backend Backend) *Workflow {
	return &Workflow{
		backend:       backend,
		childID:       childID,
		recordingDate: today(),
	}
}

func today() string {
	return core.Today().Format(core.DateLayout)
}

func (w *Workflow) ChildID() string { return w.childID }

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		ChildID:           w.childID,
		State:             w.state,
		RecordingDate:     w.recordingDate,
		PendingTranscript: w.pendingTranscript,
		PendingAssessment: w.pendingAssessment,
		UploadOpen:        w.state == FileSelected || w.state == Uploading,
		ReviewOpen:        w.state == PendingReview,
		Saving:            w.saving,
		LastError:         w.lastError,
	}
	if w.file != nil {
		snap.FileName = w.file.Name
		snap.FileSize = w.file.Size
	}
	return snap
}

// SelectFile picks (or replaces) the recording to upload.
func (w *Workflow) SelectFile(file AudioFile) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case Idle, FileSelected:
	case Uploading:
		return ErrUploadInFlight
	default:
		return &StateError{Op: "select a file", State: w.state}
	}

	if file.Size == 0 && len(file.Content) > 0 {
		file.Size = int64(len(file.Content))
	}
	if file.Size <= 0 {
		return core.NewFieldError("audio", msgNoFile)
	}
	if file.Size > MaxAudioBytes {
		return core.NewFieldError("audio", msgFileTooLarge)
	}

	w.file = &file
	w.state = FileSelected
	w.lastError = ""
	return nil
}

func validateRecordingDate(date string) (string, error) {
	date = core.CleanString(date)
	if date == "" {
		return "", core.NewFieldError("recordingDate", msgNoDate)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return "", core.NewFieldError("recordingDate", msgInvalidDate)
	}
	if d.After(core.Today()) {
		return "", core.NewFieldError("recordingDate", msgFutureDate)
	}
	return d.Format(core.DateLayout), nil
}

// Submit uploads the selected file for transcription and waits for the result.
// The call is detached from ctx cancellation: once sent, the upload runs to completion or failure
// (the backend client bounds it with its upload timeout).
func (w *Workflow) Submit(ctx context.Context, uploadedBy, recordingDate string) error {
	w.mu.Lock()
	switch w.state {
	case FileSelected:
	case Uploading:
		w.mu.Unlock()
		return ErrUploadInFlight
	case Idle:
		w.mu.Unlock()
		return core.NewFieldError("audio", msgNoFile)
	default:
		st := w.state
		w.mu.Unlock()
		return &StateError{Op: "upload", State: st}
	}

	date, err := validateRecordingDate(recordingDate)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if uploadedBy = core.CleanString(uploadedBy); uploadedBy == "" {
		uploadedBy = uploaderFallback
	}

	w.recordingDate = date
	w.state = Uploading
	w.lastError = ""
	req := TranscribeRequest{
		Audio:         *w.file,
		ChildID:       w.childID,
		UploadedBy:    uploadedBy,
		RecordingDate: date,
	}
	w.mu.Unlock()

	res, err := w.backend.Transcribe(context.WithoutCancel(ctx), req)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != Uploading {
		return ErrWorkflowReset
	}
	if err != nil {
		w.state = FileSelected
		w.lastError = userMessage(err, msgUploadFailed)
		return &UploadError{Message: w.lastError, Err: err}
	}
	if res.Transcript == "" || res.Assessment == nil {
		w.state = Idle
		w.file = nil
		w.lastError = msgNoTranscript
		return ErrIncompleteResult
	}

	// upload closed & review opened in one transition
	w.file = nil
	w.pendingTranscript = res.Transcript
	w.pendingAssessment = res.Assessment
	w.state = PendingReview
	return nil
}

// Accept persists the reviewed assessment then reloads the latest and all assessments, in that order.
// On persist failure the review stays pending. Once persisted, the workflow returns to Idle even if
// reloading fails, in which case a *RefreshError is returned along with the partial result.
func (w *Workflow) Accept(ctx context.Context) (AcceptResult, error) {
	w.mu.Lock()
	if w.state != PendingReview {
		st := w.state
		w.mu.Unlock()
		if st == Uploading {
			return AcceptResult{}, ErrUploadInFlight
		}
		return AcceptResult{}, &StateError{Op: "accept", State: st}
	}
	if w.saving {
		w.mu.Unlock()
		return AcceptResult{}, ErrReviewInFlight
	}
	w.saving = true
	w.lastError = ""
	pending := *w.pendingAssessment
	w.mu.Unlock()

	var res AcceptResult
	saved, err := w.backend.AcceptAssessment(ctx, pending)
	if err != nil {
		w.mu.Lock()
		w.saving = false
		w.lastError = userMessage(err, msgAcceptFailed)
		msg := w.lastError
		w.mu.Unlock()
		return res, &AcceptError{Message: msg, Err: err}
	}
	res.Saved = saved

	refreshErr := func() error {
		latest, err := w.backend.LatestAssessment(ctx, w.childID)
		if err != nil {
			return errors.Wrap(err, "fetching latest assessment")
		}
		res.Latest = latest

		all, err := w.backend.ChildAssessments(ctx, w.childID)
		if err != nil {
			return errors.Wrap(err, "fetching assessments")
		}
		res.All = all
		return nil
	}()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.saving = false
	w.clear()
	if refreshErr != nil {
		w.lastError = msgRefreshFailed
		return res, &RefreshError{Err: refreshErr}
	}
	return res, nil
}

// Reject discards the pending review. Nothing was persisted yet, so nothing is sent to the backend.
func (w *Workflow) Reject() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != PendingReview {
		if w.state == Uploading {
			return ErrUploadInFlight
		}
		return &StateError{Op: "reject", State: w.state}
	}
	if w.saving {
		return ErrReviewInFlight
	}
	w.clear()
	return nil
}

// Cancel discards the selected file and resets the recording date to today.
// An upload in flight cannot be cancelled.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case Idle, FileSelected:
		w.clear()
		return nil
	case Uploading:
		return ErrUploadInFlight
	default:
		return &StateError{Op: "cancel", State: w.state}
	}
}

// Reset forces the workflow back to Idle, dropping everything. Used when its session ends.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saving = false
	w.clear()
}

// clear must be called with mu held.
func (w *Workflow) clear() {
	w.state = Idle
	w.file = nil
	w.pendingTranscript = ""
	w.pendingAssessment = nil
	w.recordingDate = today()
	w.lastError = ""
}
