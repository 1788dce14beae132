package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID      = "user_id"
	FieldAccountID   = "account_id"
	FieldCategoryID  = "category_id"
	FieldExpenseID   = "expense_id"
	FieldAmountCents = "amount_cents"
	FieldPlace       = "place"
	FieldMonth       = "month"
	FieldYear        = "year"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentIdentity = "identity"
	ComponentCategory = "category"
	ComponentExpense  = "expense"
	ComponentReport   = "report"
	ComponentImport   = "import"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
)
