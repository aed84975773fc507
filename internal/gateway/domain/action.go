package domain

import (
	"strings"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
)

// ParseAction maps a caller supplied action to an audit action. Only VIEW (the default
// for an empty value) and EXPORT are accepted on decrypt paths.
func ParseAction(s string) (auditDomain.Action, error) {
	switch auditDomain.Action(strings.ToUpper(strings.TrimSpace(s))) {
	case "", auditDomain.ActionView:
		return auditDomain.ActionView, nil
	case auditDomain.ActionExport:
		return auditDomain.ActionExport, nil
	default:
		return "", ErrUnsupportedAction
	}
}
