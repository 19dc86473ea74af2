package profiles

import (
	"strings"

	"github.com/sgcombinator/web/internal/utils"
)

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

// NilIfEmpty maps blank strings to SQL NULL
func NilIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return utils.Ptr(s)
}
