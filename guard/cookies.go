package guard

import (
	"net"
	"net/http"
	"strings"

	"github.com/sgcombinator/web/identity"
)

// CookieAttributes are the security attributes applied to every cookie the server writes.
type CookieAttributes struct {
	Domain   string
	Path     string
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

// CookieAttributesFor derives cookie attributes from the request host. Local
// development hosts (or localDev) get no domain and no Secure flag. Any other host,
// including ones that merely contain "localhost", gets both.
func CookieAttributesFor(host string, localDev bool) CookieAttributes {
	attrs := CookieAttributes{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	hostname := stripPort(host)
	if localDev || IsLocalHost(hostname) {
		return attrs
	}

	attrs.Secure = true
	attrs.Domain = hostname
	return attrs
}

// IsLocalHost reports whether host (with or without a port) is localhost, a
// *.localhost name or a loopback IP.
func IsLocalHost(host string) bool {
	h := strings.ToLower(strings.TrimSuffix(stripPort(host), "."))
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return strings.Trim(h, "[]")
	}
	return strings.Trim(host, "[]")
}

// Cookie builds the http.Cookie for a provider-issued value. Clearing writes get an
// empty value and MaxAge -1.
func (a CookieAttributes) Cookie(write identity.CookieWrite) *http.Cookie {
	c := &http.Cookie{
		Name:     write.Name,
		Value:    write.Value,
		MaxAge:   write.MaxAge,
		Domain:   a.Domain,
		Path:     a.Path,
		Secure:   a.Secure,
		HttpOnly: a.HttpOnly,
		SameSite: a.SameSite,
	}
	if write.IsClear() {
		c.Value = ""
		c.MaxAge = -1
	}
	return c
}

// Clear builds the cookie that removes name.
func (a CookieAttributes) Clear(name string) *http.Cookie {
	return a.Cookie(identity.ClearCookie(name))
}

// WriteCookies sets every write on the response using the request's attributes.
func WriteCookies(w http.ResponseWriter, attrs CookieAttributes, writes []identity.CookieWrite) {
	for _, c := range writes {
		http.SetCookie(w, attrs.Cookie(c))
	}
}
