// Package common contains shared constants, sentinel errors and tagged error
// variants used across gophauth components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Role is the enumerated authority carried in the access token.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleSuperuser Role = "SUPERUSER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleSuperuser:
		return true
	}
	return false
}
