package ratelimit

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/filestream/internal/common"
)

// ClientIdentity names the client a request counts against: the edge proxy's
// client address, else the first X-Forwarded-For hop, else "unknown".
func ClientIdentity(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get(common.EdgeClientIPHeader)); ip != "" {
		return ip
	}

	if fwd := r.Header.Get(common.ForwardedForHeader); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	return common.UnknownClient
}
