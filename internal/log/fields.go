package log

const serviceName = "dormbot"

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	FieldService = "service"

	// Chat
	FieldSessionID = "session_id"
	FieldSender    = "sender"
	FieldMode      = "mode"
	FieldRule      = "rule"
	FieldScore     = "score"
	FieldPromptID  = "prompt_id"
	FieldEntities  = "entities"
)
