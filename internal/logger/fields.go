package logger

// Standard field names for structured logging. Use these instead of raw
// strings so log queries stay stable.
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldDurationMS = "duration_ms"
	FieldCount      = "count"
	FieldStatus     = "status"

	// Annotation
	FieldWord        = "word"
	FieldSubstituted = "substituted"
	FieldLevel       = "level"
	FieldOverlayID   = "overlay_id"
	FieldKey         = "key"

	// Sources
	FieldSource  = "source"
	FieldBackend = "backend"
	FieldModel   = "model"
	FieldChapter = "chapter"
	FieldWords   = "words"
)
