package user

import (
	"context"

	"github.com/kyalo/darasa/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose password reset email is sent
// synchronously so tests can inspect the outbox.
func NewServiceMock(repo Repository, mailSvc core.EmailService) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
