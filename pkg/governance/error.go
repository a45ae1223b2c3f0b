package governance

import (
	"fmt"
	"net/http"
)

// Error represents the structure of the IGA and IDM API error.
type Error struct {
	ErrCode  int            `json:"code"`
	Reason   string         `json:"reason"`
	Message  string         `json:"message"`
	Detail   map[string]any `json:"detail,omitempty"`
	request  *http.Request
	response *http.Response
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("governance api error[%d]: %s", e.ErrCode, e.Message)
	if e.request != nil {
		msg += fmt.Sprintf(`, method: "%s", url: "%s"`, e.request.Method, e.request.URL)
	}
	if e.response != nil {
		msg += fmt.Sprintf(`, httpCode: "%d"`, e.StatusCode())
	}
	return msg
}

// ErrorName returns a human-readable name of the error.
func (e *Error) ErrorName() string {
	if e.Reason != "" {
		return e.Reason
	}
	return http.StatusText(e.ErrCode)
}

// ErrorUserMessage returns error message for end user.
func (e *Error) ErrorUserMessage() string {
	return e.Message
}

// StatusCode returns HTTP status code.
func (e *Error) StatusCode() int {
	if e.response == nil {
		return 0
	}
	return e.response.StatusCode
}

// SetRequest method allows injection of HTTP request to the error, it implements client.errorWithRequest.
func (e *Error) SetRequest(request *http.Request) {
	e.request = request
}

// SetResponse method allows injection of HTTP response to the error, it implements client.errorWithResponse.
func (e *Error) SetResponse(response *http.Response) {
	e.response = response
}
