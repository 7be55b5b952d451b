package ldap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/isometry/ssoadmin/internal/logging"
)

// directoryClient implements Directory over a connection pool, retrying
// transient transport faults with exponential backoff. Semantic
// failures (bad credentials, missing entries, rejected input) surface
// immediately.
type directoryClient struct {
	pool   *connectionPool
	config Config
	log    logging.Logger
}

func newDirectoryClient(pool *connectionPool, cfg Config, log logging.Logger) *directoryClient {
	return &directoryClient{
		pool:   pool,
		config: cfg,
		log:    logging.OrNop(log),
	}
}

func (c *directoryClient) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	result := &SearchResult{}
	err := c.withRetry(ctx, "search", func(pc *PooledConnection) error {
		res, err := pc.conn.Search(c.toLDAPRequest(req, nil))
		if err != nil {
			return err
		}
		result.Entries = res.Entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SearchWithPaging runs a paged search for full listings. Pages are
// fetched over a single pooled connection so the paging cookie stays
// valid; a retry restarts the listing from the first page.
func (c *directoryClient) SearchWithPaging(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	result := &SearchResult{}
	err := c.withRetry(ctx, "paged search", func(pc *PooledConnection) error {
		result.Entries = result.Entries[:0]
		paging := ldap.NewControlPaging(uint32(c.config.PageSize))
		for {
			res, err := pc.conn.Search(c.toLDAPRequest(req, []ldap.Control{paging}))
			if err != nil {
				return err
			}
			result.Entries = append(result.Entries, res.Entries...)

			ctrl := ldap.FindControl(res.Controls, ldap.ControlTypePaging)
			if ctrl == nil {
				return nil
			}
			pagingResult, ok := ctrl.(*ldap.ControlPaging)
			if !ok || len(pagingResult.Cookie) == 0 {
				return nil
			}
			paging.SetCookie(pagingResult.Cookie)
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *directoryClient) Add(ctx context.Context, req *AddRequest) error {
	return c.withRetry(ctx, "add", func(pc *PooledConnection) error {
		addReq := ldap.NewAddRequest(req.DN, nil)
		for attr, values := range req.Attributes {
			addReq.Attribute(attr, values)
		}
		return pc.conn.Add(addReq)
	})
}

func (c *directoryClient) Modify(ctx context.Context, req *ModifyRequest) error {
	return c.withRetry(ctx, "modify", func(pc *PooledConnection) error {
		modReq := ldap.NewModifyRequest(req.DN, nil)
		for attr, values := range req.AddAttributes {
			modReq.Add(attr, values)
		}
		for attr, values := range req.ReplaceAttributes {
			modReq.Replace(attr, values)
		}
		for attr, values := range req.DeleteAttributes {
			modReq.Delete(attr, values)
		}
		return pc.conn.Modify(modReq)
	})
}

func (c *directoryClient) Delete(ctx context.Context, dn string) error {
	return c.withRetry(ctx, "delete", func(pc *PooledConnection) error {
		return pc.conn.Del(ldap.NewDelRequest(dn, nil))
	})
}

// Ping reads the root DSE to confirm the directory answers.
func (c *directoryClient) Ping(ctx context.Context) error {
	return c.withRetry(ctx, "ping", func(pc *PooledConnection) error {
		req := ldap.NewSearchRequest(
			"",
			ldap.ScopeBaseObject,
			ldap.NeverDerefAliases,
			1, 5, false,
			"(objectClass=*)",
			[]string{"supportedLDAPVersion"},
			nil,
		)
		_, err := pc.conn.Search(req)
		return err
	})
}

func (c *directoryClient) CheckBind(ctx context.Context, username, password string) error {
	return c.pool.CheckBind(ctx, username, password)
}

// BaseDN resolves the server's default naming context from the root DSE.
func (c *directoryClient) BaseDN(ctx context.Context) (string, error) {
	var baseDN string
	err := c.withRetry(ctx, "resolve base DN", func(pc *PooledConnection) error {
		req := ldap.NewSearchRequest(
			"",
			ldap.ScopeBaseObject,
			ldap.NeverDerefAliases,
			1, 0, false,
			"(objectClass=*)",
			[]string{"defaultNamingContext"},
			nil,
		)
		res, err := pc.conn.Search(req)
		if err != nil {
			return err
		}
		if len(res.Entries) == 0 {
			return fmt.Errorf("root DSE returned no entries")
		}
		baseDN = res.Entries[0].GetAttributeValue("defaultNamingContext")
		if baseDN == "" {
			return fmt.Errorf("root DSE has no defaultNamingContext")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return baseDN, nil
}

func (c *directoryClient) Stats() PoolStats {
	return c.pool.Stats()
}

func (c *directoryClient) Close() error {
	return c.pool.Close()
}

func (c *directoryClient) toLDAPRequest(req *SearchRequest, controls []ldap.Control) *ldap.SearchRequest {
	return ldap.NewSearchRequest(
		req.BaseDN,
		req.Scope.ldapScope(),
		ldap.NeverDerefAliases,
		req.SizeLimit,
		int(c.config.RequestTimeout/time.Second),
		false,
		req.Filter,
		req.Attributes,
		controls,
	)
}

// withRetry checks out a connection and runs fn, retrying transient
// faults up to MaxRetries with doubling delay. Connections that saw a
// transport fault are marked broken so the pool discards them.
func (c *directoryClient) withRetry(ctx context.Context, op string, fn func(*PooledConnection) error) error {
	var lastErr error
	delay := c.config.RetryDelay

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Debug("retrying directory operation", map[string]any{
				"operation": op,
				"attempt":   attempt,
				"delay":     delay.String(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		conn, err := c.pool.Get(ctx)
		if err != nil {
			lastErr = err
			if !isRetryableError(err) {
				return err
			}
			continue
		}

		err = fn(conn)
		if err != nil && isRetryableError(err) {
			conn.mu.Lock()
			conn.healthy = false
			conn.mu.Unlock()
		}
		c.pool.Put(conn)

		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return err
		}
	}
	return lastErr
}
