package billing

// ErrorCode identifies a policy rejection returned by the consume path.
// These are expected, user-facing outcomes, not faults.
type ErrorCode string

// Consume rejection codes.
const (
	// CodeInsufficientPoints means the wallet cannot cover the charge.
	CodeInsufficientPoints ErrorCode = "INSUFFICIENT_POINTS"
	// CodeModelDisabled means the channel's pricing row is disabled.
	CodeModelDisabled ErrorCode = "MODEL_DISABLED"
	// CodeVipRequired means an ADVANCED channel was used without an active VIP.
	CodeVipRequired ErrorCode = "VIP_REQUIRED"

	// CodeInsufficientStamina is reserved for future pricing tiers.
	CodeInsufficientStamina ErrorCode = "INSUFFICIENT_STAMINA"
	// CodeInsufficientPremiumCredits is reserved for future pricing tiers.
	CodeInsufficientPremiumCredits ErrorCode = "INSUFFICIENT_PREMIUM_CREDITS"
)

// IsErrorCode reports whether value is a known consume rejection code.
func IsErrorCode(value string) bool {
	switch ErrorCode(value) {
	case CodeInsufficientPoints, CodeInsufficientStamina, CodeInsufficientPremiumCredits, CodeModelDisabled, CodeVipRequired:
		return true
	default:
		return false
	}
}
