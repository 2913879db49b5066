package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldSuccess     = "success"
	FieldOwner       = "owner"
	FieldTransaction = "transaction_id"
	FieldCategory    = "category"
	FieldAmount      = "amount"
	FieldPeriod      = "period"
	FieldSource      = "source"
	FieldAccepted    = "accepted"
	FieldRejected    = "rejected"
	FieldSkipped     = "skipped"
	FieldSheetRef    = "sheet_ref"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentIngest  = "ingest"
	ComponentReport  = "report"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpImport    = "import"
	OpScan      = "scan"
	OpParse     = "parse"
	OpValidate  = "validate"
	OpAggregate = "aggregate"
	OpSync      = "sync"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(id, category, amount string) LogFields {
	f[FieldTransaction] = id
	f[FieldCategory] = category
	f[FieldAmount] = amount
	return f
}

// WithBatch adds ingestion batch outcome fields
func (f LogFields) WithBatch(accepted, rejected, skipped int) LogFields {
	f[FieldAccepted] = accepted
	f[FieldRejected] = rejected
	f[FieldSkipped] = skipped
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
