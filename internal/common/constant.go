package common

// Header names read or written by the HTTP layer.
const (
	// EdgeClientIPHeader is set by the CDN in front of the service.
	EdgeClientIPHeader = "CF-Connecting-IP"
	// ForwardedForHeader is the de-facto proxy chain header.
	ForwardedForHeader = "X-Forwarded-For"
	// WebhookSecretHeader carries the secret token registered with setWebhook.
	WebhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
	// AuthorizationHeader carries the admin bearer token.
	AuthorizationHeader = "Authorization"
)

// UnknownClient is the shared rate-limit bucket for requests that carry no
// client address header.
const UnknownClient = "unknown"
