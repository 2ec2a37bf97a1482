package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// LLMError is the concrete CategorizedError every provider adapter and
// internal component returns across a package boundary (SPEC_FULL.md
// section A). It carries enough structure for both machine dispatch
// (ErrorCategory) and a human-facing remediation message.
type LLMError struct {
	Provider      string
	Code          string
	StatusCode    int
	Message       string
	RequestID     string
	Original      error
	ErrorCategory ErrorCategory
	Suggestion    string
	Details       string
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	if e.Original == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Original.Error())
}

// Unwrap exposes the original error to errors.Is/As.
func (e *LLMError) Unwrap() error {
	return e.Original
}

// Category implements CategorizedError.
func (e *LLMError) Category() ErrorCategory {
	return e.ErrorCategory
}

// UserFacingError renders the error plus, if present, a remediation
// suggestion — this is what cmd/discernus prints to the terminal.
func (e *LLMError) UserFacingError() string {
	base := e.Error()
	if e.Suggestion == "" {
		return base
	}
	return fmt.Sprintf("%s\n\nSuggestion: %s", base, e.Suggestion)
}

// DebugInfo renders every field for troubleshooting logs.
func (e *LLMError) DebugInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Provider: %s\n", e.Provider)
	fmt.Fprintf(&b, "Error Category: %s\n", e.ErrorCategory)
	fmt.Fprintf(&b, "Message: %s\n", e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, "Error Code: %s\n", e.Code)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, "Status Code: %d\n", e.StatusCode)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, "Request ID: %s\n", e.RequestID)
	}
	if e.Original != nil {
		fmt.Fprintf(&b, "Original Error: %s\n", e.Original.Error())
	}
	if e.Details != "" {
		fmt.Fprintf(&b, "Details: %s\n", e.Details)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "Suggestion: %s\n", e.Suggestion)
	}
	return b.String()
}

// New builds an LLMError from explicit fields.
func New(provider, code string, statusCode int, message, requestID string, original error, category ErrorCategory) *LLMError {
	return &LLMError{
		Provider:      provider,
		Code:          code,
		StatusCode:    statusCode,
		Message:       message,
		RequestID:     requestID,
		Original:      original,
		ErrorCategory: category,
	}
}

// Wrap attaches provider/message/category context to err. If err is
// already an *LLMError it is updated in place (non-empty fields only);
// otherwise a new LLMError is constructed around it. Wrap(nil, ...)
// returns nil so call sites can write `return llm.Wrap(err, ...)`
// unconditionally.
func Wrap(err error, provider, message string, category ErrorCategory) *LLMError {
	if err == nil {
		return nil
	}

	if existing, ok := err.(*LLMError); ok {
		if provider != "" {
			existing.Provider = provider
		}
		if message != "" {
			existing.Message = message
		}
		if category != CategoryUnknown {
			existing.ErrorCategory = category
		}
		return existing
	}

	return &LLMError{
		Provider:      provider,
		Message:       message,
		Original:      err,
		ErrorCategory: category,
	}
}

// MockError is a minimal CategorizedError for tests that need a stand-in
// without constructing a full LLMError.
type MockError struct {
	Message       string
	ErrorCategory ErrorCategory
}

func (e *MockError) Error() string           { return e.Message }
func (e *MockError) Category() ErrorCategory { return e.ErrorCategory }

func categoryCheck(err error, category ErrorCategory) bool {
	catErr, ok := IsCategorizedError(err)
	return ok && catErr.Category() == category
}

func IsAuth(err error) bool              { return categoryCheck(err, CategoryAuth) }
func IsRateLimit(err error) bool         { return categoryCheck(err, CategoryRateLimit) }
func IsInvalidRequest(err error) bool    { return categoryCheck(err, CategoryInvalidRequest) }
func IsNotFound(err error) bool          { return categoryCheck(err, CategoryNotFound) }
func IsServer(err error) bool            { return categoryCheck(err, CategoryServer) }
func IsNetwork(err error) bool           { return categoryCheck(err, CategoryNetwork) }
func IsCancelled(err error) bool         { return categoryCheck(err, CategoryCancelled) }
func IsInputLimit(err error) bool        { return categoryCheck(err, CategoryInputLimit) }
func IsContentFiltered(err error) bool   { return categoryCheck(err, CategoryContentFiltered) }
func IsInsufficientCredits(err error) bool {
	return categoryCheck(err, CategoryInsufficientCredits)
}

// GetErrorCategoryFromStatusCode maps an HTTP status code to an
// ErrorCategory, used when a provider response carries no structured
// error body.
func GetErrorCategoryFromStatusCode(statusCode int) ErrorCategory {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return CategoryAuth
	case statusCode == http.StatusPaymentRequired:
		return CategoryInsufficientCredits
	case statusCode == http.StatusTooManyRequests:
		return CategoryRateLimit
	case statusCode == http.StatusBadRequest:
		return CategoryInvalidRequest
	case statusCode == http.StatusNotFound:
		return CategoryNotFound
	case statusCode >= 500 && statusCode < 600:
		return CategoryServer
	default:
		return CategoryUnknown
	}
}

type messagePattern struct {
	substr   string
	category ErrorCategory
}

var messagePatterns = []messagePattern{
	{"insufficient credits", CategoryInsufficientCredits},
	{"payment required", CategoryInsufficientCredits},
	{"billing", CategoryInsufficientCredits},
	{"authentication", CategoryAuth},
	{"invalid api key", CategoryAuth},
	{"unauthorized", CategoryAuth},
	{"rate limit", CategoryRateLimit},
	{"too many requests", CategoryRateLimit},
	{"quota exceeded", CategoryRateLimit},
	{"safety filter", CategoryContentFiltered},
	{"content moderation", CategoryContentFiltered},
	{"token limit", CategoryInputLimit},
	{"maximum context length", CategoryInputLimit},
	{"cancelled", CategoryCancelled},
	{"deadline exceeded", CategoryCancelled},
	{"network", CategoryNetwork},
	{"connection timeout", CategoryNetwork},
	{"timeout", CategoryNetwork},
}

// GetErrorCategoryFromMessage pattern-matches a raw provider error message
// against known substrings when no status code is available.
func GetErrorCategoryFromMessage(message string) ErrorCategory {
	lower := strings.ToLower(message)
	for _, p := range messagePatterns {
		if strings.Contains(lower, p.substr) {
			return p.category
		}
	}
	return CategoryUnknown
}

// DetectErrorCategory resolves the most specific category it can: an
// already-categorized error wins, then an HTTP status code, then a
// message-pattern match.
func DetectErrorCategory(err error, statusCode int) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	if catErr, ok := IsCategorizedError(err); ok {
		return catErr.Category()
	}
	if statusCode != 0 {
		if cat := GetErrorCategoryFromStatusCode(statusCode); cat != CategoryUnknown {
			return cat
		}
	}
	return GetErrorCategoryFromMessage(err.Error())
}

var standardMessages = map[ErrorCategory]func(provider string) string{
	CategoryAuth:             func(p string) string { return fmt.Sprintf("Authentication failed with the %s API", p) },
	CategoryRateLimit:        func(p string) string { return fmt.Sprintf("Request rate limit exceeded on the %s API", p) },
	CategoryInvalidRequest:   func(p string) string { return fmt.Sprintf("Invalid request sent to the %s API", p) },
	CategoryNotFound:         func(p string) string { return fmt.Sprintf("Requested resource not found on the %s API", p) },
	CategoryServer:           func(p string) string { return fmt.Sprintf("The %s API returned a server error", p) },
	CategoryNetwork:          func(p string) string { return fmt.Sprintf("Network error communicating with the %s API", p) },
	CategoryCancelled:        func(p string) string { return fmt.Sprintf("Request to the %s API was cancelled", p) },
	CategoryInputLimit:       func(p string) string { return fmt.Sprintf("Input exceeded the token limit for the %s API", p) },
	CategoryContentFiltered:  func(p string) string { return fmt.Sprintf("Content was filtered by the %s API's safety filters", p) },
	CategoryInsufficientCredits: func(p string) string {
		return fmt.Sprintf("Insufficient credits for the %s API", p)
	},
}

var standardSuggestions = map[ErrorCategory]string{
	CategoryAuth:                "Check that your API key is valid and has not expired",
	CategoryRateLimit:           "Wait and try again later",
	CategoryInvalidRequest:      "Check the prompt format and parameters sent to the API",
	CategoryNotFound:            "Verify that the model name is correct and available for your account",
	CategoryServer:              "This is likely a temporary issue with the provider; try again shortly",
	CategoryNetwork:             "Check your internet connection and try again",
	CategoryCancelled:           "Consider using a longer timeout if this recurs",
	CategoryInputLimit:          "Reduce the input size or split it across multiple calls",
	CategoryContentFiltered:     "Review the input for content that may trip the provider's safety filters",
	CategoryInsufficientCredits: "Check your account balance and billing status",
	CategoryUnknown:             "Check the logs for more details or try again",
}

// CreateStandardErrorWithMessage builds an LLMError with a category-
// appropriate message and remediation suggestion, appending details when
// present.
func CreateStandardErrorWithMessage(provider string, category ErrorCategory, original error, details string) *LLMError {
	var message string
	if gen, ok := standardMessages[category]; ok {
		message = gen(provider)
		if details != "" {
			message = fmt.Sprintf("%s (%s)", message, details)
		}
	} else {
		message = fmt.Sprintf("Error calling %s API", provider)
		if original != nil {
			message = fmt.Sprintf("%s: %s", message, original.Error())
		}
	}

	suggestion := standardSuggestions[category]
	if suggestion == "" {
		suggestion = standardSuggestions[CategoryUnknown]
	}

	return &LLMError{
		Provider:      provider,
		Message:       message,
		Original:      original,
		ErrorCategory: category,
		Suggestion:    suggestion,
		Details:       details,
	}
}

// FormatAPIError normalizes a raw provider error (possibly already an
// LLMError) into a fully categorized, user-facing LLMError.
func FormatAPIError(provider string, err error, statusCode int, responseDetails string) *LLMError {
	if err == nil {
		return nil
	}
	if existing, ok := err.(*LLMError); ok {
		return existing
	}

	category := DetectErrorCategory(err, statusCode)
	return CreateStandardErrorWithMessage(provider, category, err, responseDetails)
}
