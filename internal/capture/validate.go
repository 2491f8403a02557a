package capture

import "civireport/internal/model"

// Validate decides submission readiness. It fails fast on the first missing
// required field in the fixed order type, audio, position. Image and commune
// are optional: commune assignment can happen later downstream.
func Validate(d *model.ReportDraft) *Error {
	if d == nil || d.Type == "" {
		return NewError(CodeMissingRequiredFields, "report type is required")
	}
	if d.Audio == nil || len(d.Audio.Bytes) == 0 {
		return NewError(CodeMissingRequiredFields, "voice recording is required")
	}
	if d.Position == nil {
		return NewError(CodeMissingRequiredFields, "position is required")
	}
	return nil
}
