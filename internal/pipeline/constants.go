package pipeline

const (
	// InboxBox is the message box scanned for transactional messages.
	InboxBox = "inbox"

	// DefaultCurrency is used for stored transactions unless WithCurrency says otherwise.
	DefaultCurrency = "INR"

	// DefaultWindowDays is the look-back of a scan when none is configured.
	DefaultWindowDays = 30

	// maxErrorMessageLen bounds the error text kept on a failed scan run.
	maxErrorMessageLen = 2000
)
