package fetch

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrUnexpectedBody means a page response was not JSON.
var ErrUnexpectedBody = errors.New("response is not JSON")

// FetchError is a failed page request. Either StatusCode is set (the server
// answered with a non-2xx status) or Err holds the transport or decode cause.
type FetchError struct {
	Page       int
	URL        string
	StatusCode int
	Status     string // status text, e.g. "Bad Gateway"
	Body       string // at most maxErrorBody characters
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		msg := fmt.Sprintf("HTTP %d – %s", e.StatusCode, e.Status)
		if e.Body != "" {
			msg += "\n" + e.Body
		}
		return msg
	}
	if e.Body != "" {
		return fmt.Sprintf("page %d: %v\n%s", e.Page, e.Err, e.Body)
	}
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Hint suggests a configuration fix when err looks like the base URL or
// proxy is wrong rather than the upstream being down. It returns "" when
// there is nothing useful to say.
func Hint(err error) string {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return ""
	}
	var dnsErr *net.DNSError
	switch {
	case fe.StatusCode == http.StatusUnauthorized, fe.StatusCode == http.StatusForbidden:
		return "The listing endpoint refused the request. If upstream.base_url points at a proxy, make sure it forwards /api/... to the auction site."
	case fe.StatusCode == http.StatusNotFound:
		return "The listing endpoint was not found. Check upstream.auction_id and that upstream.base_url serves /api/auctions/<id>/items."
	case errors.Is(fe, ErrUnexpectedBody):
		return "The endpoint did not return JSON. upstream.base_url may point at a web page instead of the API or its proxy."
	case errors.As(fe, &dnsErr):
		return "Could not resolve the upstream host. Check upstream.base_url."
	}
	return ""
}
