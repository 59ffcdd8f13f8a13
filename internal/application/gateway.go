package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mkrv/qabot/internal/domain"
	"github.com/mkrv/qabot/internal/metrics"
	"github.com/mkrv/qabot/internal/ports"
)

// InboundMessage is what the chat transport delivers; the transport itself
// stays outside the core.
type InboundMessage struct {
	ChatID int64
	UserID int64
	Text   string
	SentAt time.Time
}

// AdminCommand is one parsed administrator command. Parsing the platform's
// command syntax is the transport's job; the gateway only dispatches.
type AdminCommand struct {
	Name    string
	Args    string
	AdminID int64
	ChatID  int64
}

// Gateway is the core's inbound surface: the matching path for ordinary
// messages and the session path for administrator commands. Staleness and
// allow-list checks run before any embedding call so rejected traffic costs
// no quota.
type Gateway struct {
	embed        *EmbedService
	index        *IndexService
	edits        *EditService
	clock        ports.Clock
	staleAfter   time.Duration
	allowedChats map[int64]struct{}
	metrics      *metrics.Set
}

func NewGateway(embed *EmbedService, index *IndexService, edits *EditService, clock ports.Clock, staleAfter time.Duration, allowedChats []int64, set *metrics.Set) *Gateway {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	var allowed map[int64]struct{}
	if len(allowedChats) > 0 {
		allowed = make(map[int64]struct{}, len(allowedChats))
		for _, id := range allowedChats {
			allowed[id] = struct{}{}
		}
	}

	return &Gateway{
		embed:        embed,
		index:        index,
		edits:        edits,
		clock:        clock,
		staleAfter:   staleAfter,
		allowedChats: allowed,
		metrics:      set,
	}
}

// HandleMessage answers a message from the knowledge base, or stays silent.
// A low-confidence best match is treated the same as no match, and embed
// failures degrade to silence rather than an error reply.
func (g *Gateway) HandleMessage(ctx context.Context, msg InboundMessage) (string, bool) {
	if !g.admit(msg) {
		return "", false
	}

	vector, err := g.embed.Embed(ctx, msg.Text)
	if err != nil {
		log.Printf("Dropping message in chat %d, embedding failed: %v", msg.ChatID, err)
		return "", false
	}

	match, ok := g.index.Search(vector)
	g.metrics.RecordMatch(ok)
	if !ok {
		return "", false
	}

	record, found := g.index.Record(match.RecordID)
	if !found {
		return "", false
	}

	log.Printf("Matched chat %d message to Q&A #%d (score %.4f)", msg.ChatID, match.RecordID, match.Score)
	return record.Answer, true
}

func (g *Gateway) admit(msg InboundMessage) bool {
	if strings.TrimSpace(msg.Text) == "" {
		return false
	}
	if g.staleAfter > 0 && g.clock.Now().Sub(msg.SentAt) > g.staleAfter {
		return false
	}
	if g.allowedChats != nil {
		if _, ok := g.allowedChats[msg.ChatID]; !ok {
			log.Printf("Ignoring message from unauthorized chat %d", msg.ChatID)
			return false
		}
	}
	return true
}

// HandleAdminCommand advances the edit conversation for the issuing admin.
// The returned string is always safe to send back as the reply.
func (g *Gateway) HandleAdminCommand(ctx context.Context, cmd AdminCommand) (string, error) {
	key := domain.SessionKey{AdminID: cmd.AdminID, ChatID: cmd.ChatID}
	args := strings.TrimSpace(cmd.Args)

	switch cmd.Name {
	case "add":
		return g.edits.StartAdd(ctx, key, args)

	case "editq":
		id, err := parseRecordID(args)
		if err != nil {
			return "", err
		}
		return g.edits.StartEditQuestion(ctx, key, id)

	case "edita":
		id, err := parseRecordID(args)
		if err != nil {
			return "", err
		}
		return g.edits.StartEditAnswer(ctx, key, id)

	case "delete":
		id, err := parseRecordID(args)
		if err != nil {
			return "", err
		}
		return g.edits.StartDelete(ctx, key, id)

	case "reply":
		reply, err := g.edits.Reply(ctx, key, args)
		if errors.Is(err, domain.ErrNoPendingOperation) {
			return "No pending operation.", nil
		}
		return reply, err

	case "confirm":
		reply, err := g.edits.Confirm(ctx, key)
		if errors.Is(err, domain.ErrNoPendingOperation) {
			return "No pending operation.", nil
		}
		return reply, err

	case "cancel":
		reply, err := g.edits.Cancel(ctx, key)
		if errors.Is(err, domain.ErrNoPendingOperation) {
			return "No pending operation.", nil
		}
		return reply, err

	case "list":
		return g.renderList(g.index.Records()), nil

	case "find":
		return g.renderList(g.index.Lookup(args)), nil

	default:
		return "", fmt.Errorf("unknown command %q", cmd.Name)
	}
}

func (g *Gateway) renderList(records []domain.QARecord) string {
	if len(records) == 0 {
		return "No Q&A entries."
	}

	var b strings.Builder
	for _, record := range records {
		fmt.Fprintf(&b, "#%d %s\n", record.ID, truncate(record.Question, 80))
	}
	return strings.TrimRight(b.String(), "\n")
}

func parseRecordID(arg string) (domain.RecordID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", arg)
	}
	return domain.RecordID(id), nil
}
