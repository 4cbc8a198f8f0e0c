package vpic

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Adda-Baaj/vpic-harvester/pkg/httpclient"
)

// InvalidArgumentError reports a request that cannot be built, such as an empty
// required path segment or an unknown operation.
type InvalidArgumentError struct {
	Operation Operation
	Param     string
	Reason    string
}

func (e *InvalidArgumentError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("vpic %s: %s", e.Operation, e.Reason)
	}
	return fmt.Sprintf("vpic %s: %s %s", e.Operation, e.Param, e.Reason)
}

// MalformedResponseError is returned when a response body lacks the Results envelope
// or the fields a parser depends on.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed vpic response: " + e.Reason
}

// RemoteServiceError describes a non-2xx answer from the remote service.
type RemoteServiceError struct {
	StatusCode int
	Body       []byte
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("vpic returned status %d: %s", e.StatusCode, bodySnippet(e.Body))
}

// CheckStatus converts a non-2xx response into a *RemoteServiceError. The client never
// calls it; callers opt in when they want status classification.
func CheckStatus(resp httpclient.Response) error {
	if resp == nil {
		return &RemoteServiceError{}
	}
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}
	return &RemoteServiceError{StatusCode: code, Body: resp.Body()}
}

func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
