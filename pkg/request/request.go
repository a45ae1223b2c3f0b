// Package request defines immutable HTTP requests, see NewHTTPRequest function.
//
// Requests are sent using the Sender interface.
// The client.Client is the default implementation of the request.Sender
// interface, it is based on the standard net/http package.
//
// APIRequest[R Result] is a generic type that wraps one or more HTTPRequest
// and holds the target value to which the API response is mapped.
// Use NewAPIRequest function to create an APIRequest from HTTPRequests.
//
// RunGroup, WaitGroup and ParallelAPIRequests are helpers for concurrent requests.
package request
