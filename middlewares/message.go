package middlewares

type NewRM map[string]string

var Language = struct {
	English string
}{
	English: "en",
}

var Responses = struct {
	FailedValidations   *NewRM
	InternalServerError *NewRM
	AccountNotFound     *NewRM
	InvalidRoles        *NewRM
	PendingApproval     *NewRM
	SessionExpired      *NewRM
	AmountOutOfBounds   *NewRM
	CheckoutInFlight    *NewRM
	NoCheckoutAttempt   *NewRM
	PaymentNotCompleted *NewRM
	ReferenceMismatch   *NewRM
}{
	FailedValidations: &NewRM{
		Language.English: "Failed field validations",
	},
	InternalServerError: &NewRM{
		Language.English: "Internal server error",
	},
	AccountNotFound: &NewRM{
		Language.English: "Account not found",
	},
	InvalidRoles: &NewRM{
		Language.English: "You don't have permission to perform this action",
	},
	PendingApproval: &NewRM{
		Language.English: "Your account is pending approval",
	},
	SessionExpired: &NewRM{
		Language.English: "Your session has expired. Please sign in again.",
	},
	AmountOutOfBounds: &NewRM{
		Language.English: "Enter an amount between the allowed bounds",
	},
	CheckoutInFlight: &NewRM{
		Language.English: "A payment is already being processed",
	},
	NoCheckoutAttempt: &NewRM{
		Language.English: "No payment attempt in progress",
	},
	PaymentNotCompleted: &NewRM{
		Language.English: "Your payment was not completed. Please try again.",
	},
	ReferenceMismatch: &NewRM{
		Language.English: "This payment does not match your current checkout",
	},
}

// Identity-provider error codes. The closed set the auth handlers can
// produce; anything else falls through to the generic message.
const (
	AuthCodeInvalidCredential = "auth/invalid-credential"
	AuthCodeUserNotFound      = "auth/user-not-found"
	AuthCodeWrongPassword     = "auth/wrong-password"
	AuthCodeInvalidEmail      = "auth/invalid-email"
	AuthCodeUserDisabled      = "auth/user-disabled"
	AuthCodeEmailInUse        = "auth/email-already-in-use"
	AuthCodeWeakPassword      = "auth/weak-password"
	AuthCodeTooManyRequests   = "auth/too-many-requests"
	AuthCodeNetworkFailed     = "auth/network-request-failed"
	AuthCodeInternalError     = "auth/internal-error"
)

var authErrorMessages = map[string]string{
	AuthCodeInvalidCredential: "Invalid email or password. Please try again.",
	AuthCodeUserNotFound:      "No account found with this email. Please sign up first.",
	AuthCodeWrongPassword:     "Incorrect password. Please try again.",
	AuthCodeInvalidEmail:      "Please enter a valid email address.",
	AuthCodeUserDisabled:      "This account has been disabled. Please contact support.",
	AuthCodeEmailInUse:        "This email is already registered. Please sign in instead.",
	AuthCodeWeakPassword:      "Password should be at least 6 characters long. Please use a stronger password.",
	AuthCodeTooManyRequests:   "Too many login attempts. Please try again later.",
	AuthCodeNetworkFailed:     "Network error. Please check your internet connection and try again.",
	AuthCodeInternalError:     "Server error. Please try again in a few moments.",
}

// AuthErrorMessage maps a provider error code to its user-facing string.
// Unmapped codes get the catch-all.
func AuthErrorMessage(code string) string {
	if message, ok := authErrorMessages[code]; ok {
		return message
	}
	return "Something went wrong. Please try again."
}
