package message

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/user"
)

var ErrNotFound = errors.New("message not found")

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// QueryThread returns the messages exchanged between the two users,
		// oldest first.
		QueryThread(ctx context.Context, userID, peerID string, ordering ...core.DBOrdering) ([]Message, error)
		// MarkThreadRead marks all messages sent by peerID to userID as read.
		MarkThreadRead(ctx context.Context, userID, peerID string) error
		// QueryConversations returns one summary per peer the user has
		// exchanged messages with, most recent first.
		QueryConversations(ctx context.Context, userID string) ([]Conversation, error)
	}

	Service interface {
		Send(ctx context.Context, sender user.User, nm NewMessage) (Message, error)
		Thread(ctx context.Context, usr user.User, peerID string) ([]Message, error)
		Conversations(ctx context.Context, usr user.User) ([]Conversation, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository) *service {
	return &service{repo: repo, usrRepo: usrRepo}
}

func (svc *service) Send(ctx context.Context, sender user.User, nm NewMessage) (Message, error) {
	if nm.RecipientID == sender.ID {
		return Message{}, core.NewValidationError(nil, core.FieldError{Field: "recipient_id", Error: "cannot message yourself"})
	}
	if _, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: nm.RecipientID}); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Message{}, core.NewValidationError(nil, core.FieldError{Field: "recipient_id", Error: "recipient not found"})
		}
		return Message{}, errors.Wrap(err, "getting recipient")
	}

	msg := Message{
		SenderID:    sender.ID,
		RecipientID: nm.RecipientID,
		Body:        nm.Body,
	}
	msg, err := svc.repo.CreateMessage(ctx, msg)
	if err != nil {
		return Message{}, errors.Wrap(err, "creating message")
	}
	return msg, nil
}

// Thread returns the conversation with peerID and marks the messages
// received from them as read.
func (svc *service) Thread(ctx context.Context, usr user.User, peerID string) ([]Message, error) {
	msgs, err := svc.repo.QueryThread(ctx, usr.ID, peerID, core.DBOrdering{Field: "created_at", Ascending: true})
	if err != nil {
		return nil, errors.Wrap(err, "querying thread")
	}
	if err = svc.repo.MarkThreadRead(ctx, usr.ID, peerID); err != nil {
		return nil, errors.Wrap(err, "marking thread read")
	}
	return msgs, nil
}

func (svc *service) Conversations(ctx context.Context, usr user.User) ([]Conversation, error) {
	convs, err := svc.repo.QueryConversations(ctx, usr.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying conversations")
	}
	return convs, nil
}
