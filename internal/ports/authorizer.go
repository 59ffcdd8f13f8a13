package ports

// Authorizer gates knowledge-base mutations. The chat platform owns the
// actual admin semantics; the core only asks.
type Authorizer interface {
	IsAuthorized(userID, chatID int64) bool
}
