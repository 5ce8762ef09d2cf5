package instance

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tillkruss/ruddarr/internal/domain"
)

const validateTimeout = 10 * time.Second

// ErrEmptyFields is returned when label, URL or API key is blank
var ErrEmptyFields = errors.New("label, url and api key are required")

// ValidationKind classifies why an instance was rejected
type ValidationKind int

const (
	URLNotValid ValidationKind = iota
	URLNotReachable
	BadStatusCode
	BadResponse
	BadAppName
)

// ValidationError explains why an instance cannot be saved
type ValidationError struct {
	Kind    ValidationKind
	Code    int    // BadStatusCode
	AppName string // BadAppName
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Title() + ": " + e.RecoverySuggestion()
}

func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case URLNotValid:
		return domain.ErrInvalidURL
	case BadAppName:
		return domain.ErrWrongAppName
	default:
		return e.Err
	}
}

// Title is the short alert title
func (e *ValidationError) Title() string {
	switch e.Kind {
	case URLNotValid:
		return "Invalid URL"
	case URLNotReachable:
		return "URL Not Reachable"
	case BadStatusCode:
		return "Invalid Status Code"
	case BadResponse:
		return "Invalid Server Response"
	case BadAppName:
		return "Wrong Instance Type"
	default:
		return "Something Went Wrong"
	}
}

// RecoverySuggestion tells the user what to change
func (e *ValidationError) RecoverySuggestion() string {
	switch e.Kind {
	case URLNotValid:
		return "Enter a valid URL."
	case BadStatusCode:
		return fmt.Sprintf("URL returned status %d.", e.Code)
	case BadAppName:
		return fmt.Sprintf("URL returned a %s instance.", e.AppName)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "Try again later."
}

// SanitizeURL drops any path from raw and lowercases it, so that
// "HTTP://10.0.1.5:8310/api" becomes "http://10.0.1.5:8310"
func SanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		u.Path = ""
		u.RawPath = ""
		raw = u.String()
	}
	return strings.ToLower(raw)
}

// Validate sanitizes inst's URL and checks that it points at a reachable
// instance of inst's type. The sanitized instance is returned.
func Validate(ctx context.Context, client domain.StatusClient, inst domain.Instance) (domain.Instance, error) {
	if inst.HasEmptyFields() {
		return inst, ErrEmptyFields
	}

	inst.URL = SanitizeURL(inst.URL)

	u, err := url.Parse(inst.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return inst, &ValidationError{Kind: URLNotValid, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	status, err := client.SystemStatus(ctx, inst)
	if err != nil {
		classified := domain.Classify(err)
		switch classified.Kind {
		case domain.KindCancelled:
			return inst, err
		case domain.KindBadStatus:
			return inst, &ValidationError{Kind: BadStatusCode, Code: classified.Code, Err: err}
		case domain.KindDecodingFailed:
			return inst, &ValidationError{Kind: BadResponse, Err: classified}
		default:
			return inst, &ValidationError{Kind: URLNotReachable, Err: classified}
		}
	}

	if status.AppName != "" && !strings.EqualFold(status.AppName, string(inst.Type)) {
		return inst, &ValidationError{Kind: BadAppName, AppName: status.AppName}
	}

	return inst, nil
}
