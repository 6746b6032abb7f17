// Package newsletter subscribes addresses to the Beehiiv publication and
// interprets the provider's responses.
package newsletter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Outcome is the user-facing result of a subscription attempt.
type Outcome string

const (
	OutcomeSubscribed        Outcome = "subscribed"
	OutcomeAlreadySubscribed Outcome = "already_subscribed"
	OutcomeInvalidEmail      Outcome = "invalid_email"
	OutcomeUnreachableEmail  Outcome = "unreachable_email"
	OutcomeAuthFailed        Outcome = "auth_failed"
	OutcomeProviderError     Outcome = "provider_error"
)

// DuplicateAge is how old an existing subscription must be before a
// successful reactivation is reported as already subscribed.
const DuplicateAge = 60 * time.Second

const statusInvalid = "invalid"

var duplicatePhrases = []string{
	"already subscribed",
	"duplicate",
	"already exists",
	"email already",
	"subscription exists",
}

// Response is the raw provider reply.
type Response struct {
	StatusCode int
	Body       []byte
}

type subscriptionData struct {
	Created *int64 `json:"created"`
	Status  string `json:"status"`
}

type successBody struct {
	Data         *subscriptionData `json:"data"`
	Subscription *struct {
		Data *subscriptionData `json:"data"`
	} `json:"subscription"`
	Message            string `json:"message"`
	Status             string `json:"status"`
	SubscriptionStatus string `json:"subscription_status"`
	Reactivated        bool   `json:"reactivated"`
}

// Classify maps a provider response to an outcome.
func Classify(resp *Response, now time.Time) Outcome {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyFailure(resp)
	}

	var body successBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return OutcomeSubscribed
	}

	if data := body.subscription(); data != nil {
		if data.Created != nil && now.Unix()-*data.Created > int64(DuplicateAge/time.Second) && data.Status != statusInvalid {
			return OutcomeAlreadySubscribed
		}

		if data.Status == statusInvalid {
			return OutcomeUnreachableEmail
		}
	}

	message := strings.ToLower(body.Message)
	if strings.Contains(message, "already") ||
		strings.Contains(message, "reactivated") ||
		strings.Contains(strings.ToLower(body.Status), "existing") ||
		body.SubscriptionStatus == "existing" ||
		body.SubscriptionStatus == "reactivated" ||
		body.Reactivated {
		return OutcomeAlreadySubscribed
	}

	return OutcomeSubscribed
}

func (b *successBody) subscription() *subscriptionData {
	if b.Subscription != nil && b.Subscription.Data != nil {
		return b.Subscription.Data
	}

	return b.Data
}

func classifyFailure(resp *Response) Outcome {
	switch resp.StatusCode {
	case http.StatusBadRequest:
		text := strings.ToLower(string(resp.Body))
		for _, phrase := range duplicatePhrases {
			if strings.Contains(text, phrase) {
				return OutcomeAlreadySubscribed
			}
		}

		return OutcomeInvalidEmail
	case http.StatusConflict:
		return OutcomeAlreadySubscribed
	case http.StatusUnauthorized:
		return OutcomeAuthFailed
	default:
		return OutcomeProviderError
	}
}
