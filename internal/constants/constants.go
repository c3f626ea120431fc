package constants

import "time"

// Session and context keys
const (
	SessionCookieName   = "printshop_session"
	ContextKeyUserID    = "user_id"
	ContextKeyUserRole  = "user_role"
	SessionKeyAuthToken = "auth_token"
)

// Durable storage keys, named as the browser client stores them.
const (
	StorageKeyScriptURL     = "sv_script_url"
	StorageKeySecurityToken = "sv_security_token"
	StorageKeyUserData      = "sv_user_data"
	StorageKeyUserName      = "sv_user_name"
	StorageKeyUserToken     = "sv_user_token"
)

// Super-identity. Never stored in the remote Users collection.
const (
	SuperUserID       = "admin-superuser"
	SuperUserName     = "Super Admin"
	SuperUserLogin    = "admin"
	SuperUserPassword = "admin123"
)

const (
	DefaultRequestTimeout   = 20 * time.Second
	DefaultWriteLockTimeout = 15 * time.Second
	DefaultPollInterval     = 15 * time.Second
	DefaultSampleDataDelay  = 500 * time.Millisecond
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

const OrderTokenPrefix = "SDP-"
