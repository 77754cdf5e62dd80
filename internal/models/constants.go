package models

const (
	StatusCreated   = "created"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	PaymentCash   = "cash"
	PaymentCredit = "credit"
	PaymentDebit  = "debit"
	PaymentPix    = "pix"
)

// PaymentMethods lists the accepted values in display order.
var PaymentMethods = []string{PaymentCash, PaymentCredit, PaymentDebit, PaymentPix}

func ValidPaymentMethod(m string) bool {
	for _, p := range PaymentMethods {
		if p == m {
			return true
		}
	}
	return false
}

const (
	TokenPurposeVerifyEmail   = "verify_email"
	TokenPurposeResetPassword = "reset_password"
)

const (
	DateLayout     = "2006-01-02"
	SlotTimeLayout = "15:04"
)

const (
	// NotesMaxLen bounds the free-text notes on an appointment.
	NotesMaxLen = 300

	// DefaultSessionTTL is how long a login session lives in the state store.
	DefaultSessionTTL = 24 * 60 * 60 // seconds

	// DefaultVerificationTTL is how long e-mail verification and password
	// reset tokens stay valid.
	DefaultVerificationTTL = 48 * 60 * 60 // seconds

	// RateLimitRequests is the per-client request budget within RateLimitWindow.
	RateLimitRequests = 30

	// RateLimitWindow is the sliding rate-limit window in seconds.
	RateLimitWindow = 60

	// MailQueueSize is the in-memory fallback queue capacity of the mail worker.
	MailQueueSize = 256
)
