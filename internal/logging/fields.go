package logging

// Field names shared by every layer so log lines can be filtered uniformly.
const (
	FieldLayer     = "layer"
	FieldAdapter   = "adapter"
	FieldUseCase   = "usecase"
	FieldHandler   = "handler"
	FieldAction    = "action"
	FieldEntityID  = "entity_id"
	FieldEvent     = "event"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration"
	FieldClientIP  = "client_ip"
	FieldCount     = "count"
	FieldSize      = "size"
	FieldComponent = "component"
)
