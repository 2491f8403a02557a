package capture

import (
	"context"

	"civireport/internal/model"
)

// Microphone grants access to the recording device for one session.
// Implementations must return a typed *Error (CodePermissionDenied,
// CodeDeviceUnsupported) when the device cannot be acquired.
type Microphone interface {
	Acquire(ctx context.Context) (RecordingHandle, error)
}

// RecordingHandle is a live recording. Bytes are written while the recorder
// is in the recording state; Seal closes the handle and returns the captured
// blob with the media type the device declared.
type RecordingHandle interface {
	Write(p []byte) (int, error)
	Seal() (data []byte, mediaType string, err error)
	Release() error
}

// PositionProvider answers a single position request. Implementations must
// honor ctx cancellation and return typed *Error values for permission
// denial and sensor unavailability.
type PositionProvider interface {
	Current(ctx context.Context) (model.Position, error)
}

// Compressor shrinks an accepted image before it enters the draft.
type Compressor interface {
	Compress(ctx context.Context, data []byte, mediaType string) ([]byte, string, error)
}

// Uploader sends one blob to one named destination and returns a durable
// retrieval URL. kind selects the destination policy ("audio" or "image").
// Discard removes a previously uploaded blob by its URL so a failed
// submission does not leave orphans behind.
type Uploader interface {
	Upload(ctx context.Context, data []byte, mediaType, kind, ownerID string) (string, error)
	Discard(ctx context.Context, url string) error
}

// ReportCreator persists the final record.
type ReportCreator interface {
	Create(ctx context.Context, in model.ReportInput) (*model.Report, error)
}

// IdentityResolver decides which identity attaches to the submission.
// The boolean is false when neither a session profile nor a device-local
// enrollment is present; submission still proceeds with null identity fields.
type IdentityResolver interface {
	Resolve(ctx context.Context) (model.SubmitterIdentity, bool)
}
