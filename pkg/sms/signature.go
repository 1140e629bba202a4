package sms

import (
	"net/url"

	"github.com/twilio/twilio-go/client"
)

// SignatureValidator checks the X-Twilio-Signature header of inbound webhooks.
type SignatureValidator struct {
	validator  client.RequestValidator
	webhookURL string
}

// NewSignatureValidator creates a validator for the public webhook URL that
// Twilio is configured to call.
func NewSignatureValidator(authToken, webhookURL string) *SignatureValidator {
	return &SignatureValidator{
		validator:  client.NewRequestValidator(authToken),
		webhookURL: webhookURL,
	}
}

// Valid reports whether signature matches the posted form values.
func (v *SignatureValidator) Valid(form url.Values, signature string) bool {
	if signature == "" {
		return false
	}

	params := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return v.validator.Validate(v.webhookURL, params, signature)
}
