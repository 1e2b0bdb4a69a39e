package gemini

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	// Scheme is the only request scheme the server answers for.
	Scheme    = "gemini"
	ScopeType = "gemini"
)

// Addr is a peer host/port pair.
type Addr struct {
	Host string
	Port int
}

func (a Addr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

func addrOf(addr net.Addr) Addr {
	if addr == nil {
		return Addr{}
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return Addr{Host: tcp.IP.String(), Port: tcp.Port}
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return Addr{Host: addr.String()}
	}
	p, _ := strconv.Atoi(port)
	return Addr{Host: host, Port: p}
}

// Scope describes one accepted request. It is built once and passed by value.
type Scope struct {
	Type     string
	URL      string
	Scheme   string
	Netloc   string
	Path     string
	Query    string
	RootPath string
	Client   Addr
}

// newScope keeps the URL and path exactly as the peer sent them; only the
// authority comes from the parsed URL.
func newScope(line string, u *url.URL, rootPath string, client Addr) Scope {
	netloc := u.Host
	if u.User != nil {
		netloc = u.User.String() + "@" + u.Host
	}
	return Scope{
		Type:     ScopeType,
		URL:      line,
		Scheme:   u.Scheme,
		Netloc:   netloc,
		Path:     rawPath(line),
		Query:    u.RawQuery,
		RootPath: rootPath,
		Client:   client,
	}
}

// rawPath returns the still-escaped path component of an absolute request URL.
func rawPath(line string) string {
	_, rest, ok := strings.Cut(line, "://")
	if !ok {
		return ""
	}
	i := strings.IndexAny(rest, "/?#")
	if i < 0 || rest[i] != '/' {
		return ""
	}
	rest = rest[i:]
	if j := strings.IndexAny(rest, "?#"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}
