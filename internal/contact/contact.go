// Package contact records contact-form and feedback submissions. Records are
// append-only and unrelated to carts or orders.
package contact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Submission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Feedback struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository assigns ids and stores submissions.
type Repository interface {
	CreateSubmission(ctx context.Context, s Submission) (Submission, error)
	CreateFeedback(ctx context.Context, f Feedback) (Feedback, error)
}

type Service struct {
	repo    Repository
	log     zerolog.Logger
	nowFunc func() time.Time
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		log:     log.With().Str("component", "contact").Logger(),
		nowFunc: time.Now,
	}
}

// Submit stores a contact-form message. Input is expected to be validated.
func (s *Service) Submit(ctx context.Context, sub Submission) (Submission, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Subject = strings.TrimSpace(sub.Subject)
	sub.CreatedAt = s.nowFunc().UTC()

	out, err := s.repo.CreateSubmission(ctx, sub)
	if err != nil {
		return Submission{}, fmt.Errorf("create contact submission: %w", err)
	}
	s.log.Info().Int64("id", out.ID).Str("subject", out.Subject).Msg("contact submission received")
	return out, nil
}

// SubmitFeedback stores a rated feedback entry. Input is expected to be validated.
func (s *Service) SubmitFeedback(ctx context.Context, fb Feedback) (Feedback, error) {
	fb.Name = strings.TrimSpace(fb.Name)
	fb.Email = strings.TrimSpace(fb.Email)
	fb.CreatedAt = s.nowFunc().UTC()

	out, err := s.repo.CreateFeedback(ctx, fb)
	if err != nil {
		return Feedback{}, fmt.Errorf("create feedback: %w", err)
	}
	s.log.Info().Int64("id", out.ID).Int("rating", out.Rating).Msg("feedback received")
	return out, nil
}
