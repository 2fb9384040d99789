package redis

import "strings"

const defaultNamespace = "vv"

// Keyspace builds colon separated keys under one namespace so every
// environment sharing a Redis instance stays isolated.
type Keyspace struct {
	namespace string
}

func NewKeyspace(namespace string) Keyspace {
	namespace = strings.Trim(strings.TrimSpace(namespace), ":")
	if namespace == "" {
		namespace = defaultNamespace
	}
	return Keyspace{namespace: namespace}
}

func (k Keyspace) key(kind string, parts ...string) string {
	var b strings.Builder
	ns := k.namespace
	if ns == "" {
		ns = defaultNamespace
	}
	b.WriteString(ns)
	b.WriteByte(':')
	b.WriteString(kind)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

func (k Keyspace) IdempotencyKey(scope, id string) string {
	return k.key("idempotency", scope, id)
}

func (k Keyspace) RateLimitKey(scope string) string {
	return k.key("rate_limit", scope)
}

// AccessSessionKey is the refresh session slot for one access token id.
func (k Keyspace) AccessSessionKey(accessID string) string {
	return k.key("session", "access", accessID)
}

// CacheKey skips empty parts.
func (k Keyspace) CacheKey(parts ...string) string {
	return k.key("cache", parts...)
}

// LockKey names a cross-instance lease, e.g. the embed worker's cycle lock.
func (k Keyspace) LockKey(name string) string {
	return k.key("lock", name)
}
