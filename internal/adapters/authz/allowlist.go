package authz

import "github.com/mkrv/qabot/internal/ports"

// Allowlist authorizes knowledge-base mutations for a fixed set of admin
// user ids. An empty list authorizes nobody; the chat platform's own admin
// semantics can replace this behind the same port.
type Allowlist struct {
	admins map[int64]struct{}
}

var _ ports.Authorizer = (*Allowlist)(nil)

func New(adminIDs []int64) *Allowlist {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}

	return &Allowlist{admins: admins}
}

func (a *Allowlist) IsAuthorized(userID, _ int64) bool {
	_, ok := a.admins[userID]
	return ok
}
