package contact_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexssio/storefront/internal/contact"
	"github.com/nexssio/storefront/internal/store/memory"
)

type failingRepo struct{}

func (failingRepo) CreateSubmission(context.Context, contact.Submission) (contact.Submission, error) {
	return contact.Submission{}, errors.New("disk full")
}

func (failingRepo) CreateFeedback(context.Context, contact.Feedback) (contact.Feedback, error) {
	return contact.Feedback{}, errors.New("disk full")
}

func TestSubmit_AssignsIDAndTrims(t *testing.T) {
	svc := contact.NewService(memory.New(), zerolog.Nop())

	sub, err := svc.Submit(context.Background(), contact.Submission{
		Name:    "  Ada ",
		Email:   "ada@example.com ",
		Subject: " Commission ",
		Message: "Could you paint my cat?",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sub.ID)
	assert.Equal(t, "Ada", sub.Name)
	assert.Equal(t, "ada@example.com", sub.Email)
	assert.Equal(t, "Commission", sub.Subject)
	assert.False(t, sub.CreatedAt.IsZero())

	second, err := svc.Submit(context.Background(), contact.Submission{Name: "Bob", Email: "bob@example.com", Subject: "Hi", Message: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func TestSubmitFeedback(t *testing.T) {
	svc := contact.NewService(memory.New(), zerolog.Nop())

	fb, err := svc.SubmitFeedback(context.Background(), contact.Feedback{Name: "Ada", Email: "ada@example.com", Rating: 5, Feedback: "Lovely work"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), fb.ID)
	assert.Equal(t, 5, fb.Rating)
}

func TestSubmit_RepositoryError(t *testing.T) {
	svc := contact.NewService(failingRepo{}, zerolog.Nop())

	_, err := svc.Submit(context.Background(), contact.Submission{Name: "Ada"})
	assert.Error(t, err)
	_, err = svc.SubmitFeedback(context.Background(), contact.Feedback{Name: "Ada"})
	assert.Error(t, err)
}
