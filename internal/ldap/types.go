package ldap

import (
	"context"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// SearchScope determines the depth of a directory search.
type SearchScope int

const (
	ScopeBaseObject   SearchScope = iota // search the base object only
	ScopeSingleLevel                     // search immediate children
	ScopeWholeSubtree                    // search the entire subtree
)

// ldapScope converts to the go-ldap wire constant.
func (s SearchScope) ldapScope() int {
	switch s {
	case ScopeBaseObject:
		return ldap.ScopeBaseObject
	case ScopeSingleLevel:
		return ldap.ScopeSingleLevel
	default:
		return ldap.ScopeWholeSubtree
	}
}

// SearchRequest encapsulates directory search parameters.
type SearchRequest struct {
	BaseDN     string
	Scope      SearchScope
	Filter     string
	Attributes []string
	SizeLimit  int
}

// SearchResult contains the entries a search produced.
type SearchResult struct {
	Entries []*ldap.Entry
}

// AddRequest encapsulates directory add parameters.
type AddRequest struct {
	DN         string
	Attributes map[string][]string
}

// ModifyRequest encapsulates directory modify parameters.
type ModifyRequest struct {
	DN                string
	AddAttributes     map[string][]string
	ReplaceAttributes map[string][]string
	DeleteAttributes  map[string][]string
}

// Directory provides low-level operations over a pooled directory
// connection. Session managers consume this interface; tests substitute
// mocks.
type Directory interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
	SearchWithPaging(ctx context.Context, req *SearchRequest) (*SearchResult, error)
	Add(ctx context.Context, req *AddRequest) error
	Modify(ctx context.Context, req *ModifyRequest) error
	Delete(ctx context.Context, dn string) error

	// Ping verifies the directory still answers on the wire.
	Ping(ctx context.Context) error
	// CheckBind authenticates the given credentials on a dedicated
	// connection without disturbing the pool.
	CheckBind(ctx context.Context, username, password string) error
	// BaseDN resolves the server's default naming context.
	BaseDN(ctx context.Context) (string, error)

	Stats() PoolStats
	Close() error
}

// ServerInfo describes a discovered or configured directory endpoint.
type ServerInfo struct {
	Host     string
	Port     int
	UseTLS   bool
	Priority int    // SRV priority (lower is preferred)
	Weight   int    // SRV weight within a priority band
	Source   string // "srv", "config", or "fallback"
}

// PooledConnection wraps a directory connection with pool bookkeeping.
type PooledConnection struct {
	conn   *ldap.Conn
	server *ServerInfo
	id     string // correlation id for logging

	mu            sync.Mutex
	createdAt     time.Time
	lastUsed      time.Time
	authenticated bool
	authTime      time.Time
	healthy       bool
}

// PoolStats reports connection pool health.
type PoolStats struct {
	Total   int           // connections currently pooled
	Active  int64         // connections checked out
	Created int64         // total connections created
	Errors  int64         // total connection errors
	Uptime  time.Duration // pool uptime
}
