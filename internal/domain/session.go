package domain

import "time"

type SessionState string

const (
	SessionIdle                 SessionState = "idle"
	SessionAwaitingQuestion     SessionState = "awaiting_question"
	SessionAwaitingAnswer       SessionState = "awaiting_answer"
	SessionAwaitingConfirmation SessionState = "awaiting_confirmation"
)

type PendingOp string

const (
	OpAdd          PendingOp = "add"
	OpEditQuestion PendingOp = "edit_question"
	OpEditAnswer   PendingOp = "edit_answer"
	OpDelete       PendingOp = "delete"
)

// SessionKey scopes one edit conversation. At most one live session exists
// per key; a new start command supersedes the previous draft.
type SessionKey struct {
	AdminID int64
	ChatID  int64
}

// EditSession is the draft state for a pending knowledge-base mutation,
// advanced by discrete events and discarded on commit, cancel, or timeout.
type EditSession struct {
	Key           SessionKey
	State         SessionState
	Op            PendingOp
	DraftQuestion string
	DraftAnswer   string
	TargetID      RecordID
	CreatedAt     time.Time
}

func (s EditSession) Expired(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(s.CreatedAt) > timeout
}
