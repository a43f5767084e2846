// Package api is the HTTP client for the FAQ assistant backend.
//
// Every call is JSON over HTTP, carries the cookie session through a shared
// cookie jar and is bounded by the client timeout. Failures come back as
// *Error values classified by Kind:
//
//   - KindUnauthorized: 401, the user is simply not logged in
//   - KindNetwork, KindTimeout: the request never got a response
//   - KindServer: 5xx
//   - KindClient: other 4xx
//   - KindValidation: rejected locally, no request was issued
//   - KindRejected: the backend answered {"success": false}
//   - KindDecode: the response body was not the expected JSON
//
// UserMessage turns any of these into the text shown to the user.
package api
