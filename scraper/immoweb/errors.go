package immoweb

import "github.com/rotisserie/eris"

// Fetch and parse outcomes. Callers classify with errors.Is.
var (
	// ErrBlocked is a rate-limited or forbidden response that survived every retry.
	ErrBlocked = eris.New("blocked by target site")
	// ErrNetworkFailure is a timeout, connection error or truncated body that survived every retry.
	ErrNetworkFailure = eris.New("network failure")
	// ErrHTTPStatus is any other non-2xx response. It is never retried.
	ErrHTTPStatus = eris.New("unexpected HTTP status")
	// ErrParse means a listing page or URL could not be turned into a record.
	ErrParse = eris.New("listing parse failure")
)
