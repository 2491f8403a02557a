package model

// PositionSource tells whether a fix came from the device sensor or from
// explicit user placement.
type PositionSource string

const (
	PositionAuto   PositionSource = "auto"
	PositionManual PositionSource = "manual"
)

// Position is one geographic fix attached to a draft.
type Position struct {
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	AccuracyMeters float64        `json:"accuracy_meters"`
	Source         PositionSource `json:"source"`
}

// AudioAsset is a sealed voice recording. DeclaredMediaType is whatever the
// recording device reported and may still carry transport parameters
// (e.g. "audio/webm;codecs=opus"); stripping them is the upload gateway's job.
type AudioAsset struct {
	Bytes             []byte
	DeclaredMediaType string
	DurationSeconds   int
}

// ImageAsset is a validated, compressed photograph ready for upload.
type ImageAsset struct {
	Bytes     []byte
	MediaType string
	SizeBytes int64
}

// IdentitySource tags which channel supplied the submitter fields.
type IdentitySource string

const (
	IdentitySession     IdentitySource = "session"
	IdentityDeviceLocal IdentitySource = "deviceLocal"
)

// SubmitterIdentity is the resolved identity attached to a submission.
// Fields from the two sources are never mixed: a device-local enrollment
// supplies name/phone and nothing else; a server session profile supplies
// all four.
type SubmitterIdentity struct {
	Source    IdentitySource
	Name      *string
	Phone     *string
	CommuneID *string
	UserID    *string
}

// ReportDraft is the in-progress report owned by one capture session's
// orchestrator. Controllers never mutate it directly; they hand results to
// the orchestrator, which is the only writer.
type ReportDraft struct {
	Type     string
	Audio    *AudioAsset
	Position *Position
	Image    *ImageAsset
	Identity *SubmitterIdentity
}
