//go:build !swagger

package httpapi

import "net/http"

// swaggerUI is nil without -tags swagger, which leaves /swagger/ unrouted.
func swaggerUI() http.HandlerFunc { return nil }
