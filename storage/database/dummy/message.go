package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/message"
)

type messageRepository struct {
	db      *messageTable
	usersDB *userTable
}

var _ message.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db.message, usersDB: db.user}
}

func (repo *messageRepository) CreateMessage(_ context.Context, msg message.Message) (message.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	repo.db.table[msg.ID] = &msg
	return msg, nil
}

func (repo *messageRepository) QueryThread(_ context.Context, userID, peerID string, ordering ...core.DBOrdering) ([]message.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var msgs []message.Message
	for _, msg := range repo.db.table {
		if (msg.SenderID == userID && msg.RecipientID == peerID) ||
			(msg.SenderID == peerID && msg.RecipientID == userID) {
			msgs = append(msgs, *msg)
		}
	}

	ascending := true
	if len(ordering) > 0 {
		ascending = ordering[0].Ascending
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		a, b := msgs[i], msgs[j]
		if !ascending {
			a, b = b, a
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return msgs, nil
}

func (repo *messageRepository) MarkThreadRead(_ context.Context, userID, peerID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	for _, msg := range repo.db.table {
		if msg.SenderID == peerID && msg.RecipientID == userID && msg.ReadAt == nil {
			t := now
			msg.ReadAt = &t
		}
	}
	return nil
}

func (repo *messageRepository) QueryConversations(_ context.Context, userID string) ([]message.Conversation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	latest := make(map[string]message.Message)
	unread := make(map[string]int)

	for _, msg := range repo.db.table {
		var peerID string
		switch userID {
		case msg.SenderID:
			peerID = msg.RecipientID
		case msg.RecipientID:
			peerID = msg.SenderID
		default:
			continue
		}

		if last, ok := latest[peerID]; !ok || msg.CreatedAt.After(last.CreatedAt) {
			latest[peerID] = *msg
		}
		if msg.RecipientID == userID && msg.ReadAt == nil {
			unread[peerID]++
		}
	}

	convs := make([]message.Conversation, 0, len(latest))
	for peerID, last := range latest {
		conv := message.Conversation{
			PeerID:   peerID,
			LastBody: last.Body,
			LastAt:   last.CreatedAt,
			Unread:   unread[peerID],
		}
		repo.usersDB.RLock()
		if usr, ok := repo.usersDB.table[peerID]; ok {
			conv.PeerName = usr.Name
		}
		repo.usersDB.RUnlock()
		convs = append(convs, conv)
	}
	sort.SliceStable(convs, func(i, j int) bool { return convs[i].LastAt.After(convs[j].LastAt) })
	return convs, nil
}
