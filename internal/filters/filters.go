package filters

import (
	"strings"

	"github.com/hpowernl/logscope/pkg/models"
)

// Filter narrows which records reach the aggregation fold. An empty
// filter matches everything.
type Filter struct {
	methods     map[string]bool
	statusCodes map[int]bool
	pathParts   []string
	clientIPs   map[string]bool
}

// New creates a filter from the CLI-level selections. Any nil or
// empty selection leaves that dimension unrestricted.
func New(methods []string, statusCodes []int, pathParts []string, clientIPs []string) *Filter {
	f := &Filter{pathParts: pathParts}

	if len(methods) > 0 {
		f.methods = make(map[string]bool, len(methods))
		for _, m := range methods {
			f.methods[strings.ToUpper(m)] = true
		}
	}
	if len(statusCodes) > 0 {
		f.statusCodes = make(map[int]bool, len(statusCodes))
		for _, s := range statusCodes {
			f.statusCodes[s] = true
		}
	}
	if len(clientIPs) > 0 {
		f.clientIPs = make(map[string]bool, len(clientIPs))
		for _, ip := range clientIPs {
			f.clientIPs[ip] = true
		}
	}

	return f
}

// IsEmpty reports whether the filter restricts anything at all.
func (f *Filter) IsEmpty() bool {
	return f.methods == nil && f.statusCodes == nil && f.clientIPs == nil && len(f.pathParts) == 0
}

// Matches reports whether a record passes every configured dimension.
func (f *Filter) Matches(record *models.RequestRecord) bool {
	if f.methods != nil && !f.methods[record.Method] {
		return false
	}
	if f.statusCodes != nil && !f.statusCodes[record.Status] {
		return false
	}
	if f.clientIPs != nil && !f.clientIPs[record.ClientIP] {
		return false
	}
	if len(f.pathParts) > 0 {
		matched := false
		for _, part := range f.pathParts {
			if strings.Contains(record.Path, part) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
