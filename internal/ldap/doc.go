/*
Package ldap implements the directory transport for SSO administration
sessions over LDAP.

The package is organized into several core components:

  - Transport: opens authenticated sessions against a directory endpoint
  - Directory: low-level pooled operations (search, add, modify, delete)
  - Session managers: typed operations for users, groups, membership,
    policies, and identity sources
  - Handlers: utility conversions (GUID, SID, DN escaping)

# Connection Management

Each session owns a connection pool with automatic failover:

  - DNS SRV-based endpoint discovery with priority/weight ordering
  - Connection pooling with background health checks
  - Re-authentication of aged connections
  - Simple bind and Kerberos GSSAPI authentication
  - Retry with exponential backoff for transient transport faults

# Schema Mapping

Typed operations map onto fixed containers below the server base DN:
person users under cn=Users, groups under cn=Groups, the three
server policies under cn=Policies, and identity sources under
cn=IdentitySources. Durations travel as integer seconds.

# Error Handling

Every directory failure is classified before it leaves this package:
invalid credentials map to authentication errors, missing entries to
not-found, constraint and syntax violations to validation, network and
certificate faults to connectivity, and everything else to remote
operation failures. Callers never see a raw *ldap.Error.

# Thread Safety

Transport, Directory, and all session managers are safe for concurrent
use. Connection pooling handles concurrent access automatically.
*/
package ldap
