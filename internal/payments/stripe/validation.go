package stripe

import "strings"

const (
	SecretKeyPrefixStandard   = "sk_"
	SecretKeyPrefixRestricted = "rk_"
	WebhookSecretPrefix       = "whsec_"
)

func hasAllowedPrefix(value string, prefixes ...string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// IsSecretKey reports whether the value looks like a Stripe secret key.
func IsSecretKey(value string) bool {
	return hasAllowedPrefix(value, SecretKeyPrefixStandard, SecretKeyPrefixRestricted)
}

// IsWebhookSecret reports whether the value looks like a Stripe webhook signing secret.
func IsWebhookSecret(value string) bool {
	return hasAllowedPrefix(value, WebhookSecretPrefix)
}
