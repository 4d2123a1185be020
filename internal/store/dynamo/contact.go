package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/nexssio/storefront/internal/contact"
)

const (
	kindContact  = "contact"
	kindFeedback = "feedback"
)

type submissionRecord struct {
	Kind      string    `dynamodbav:"kind"`
	ID        int64     `dynamodbav:"id"`
	Name      string    `dynamodbav:"name"`
	Email     string    `dynamodbav:"email"`
	Subject   string    `dynamodbav:"subject,omitempty"`
	Message   string    `dynamodbav:"message,omitempty"`
	Rating    int       `dynamodbav:"rating,omitempty"`
	Feedback  string    `dynamodbav:"feedback,omitempty"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

func (s *Store) CreateSubmission(ctx context.Context, sub contact.Submission) (contact.Submission, error) {
	id, err := s.nextID(ctx, counterContact)
	if err != nil {
		return contact.Submission{}, err
	}
	sub.ID = id
	err = s.putSubmission(ctx, submissionRecord{
		Kind:      kindContact,
		ID:        sub.ID,
		Name:      sub.Name,
		Email:     sub.Email,
		Subject:   sub.Subject,
		Message:   sub.Message,
		CreatedAt: sub.CreatedAt,
	})
	if err != nil {
		return contact.Submission{}, err
	}
	return sub, nil
}

func (s *Store) CreateFeedback(ctx context.Context, fb contact.Feedback) (contact.Feedback, error) {
	id, err := s.nextID(ctx, counterFeedback)
	if err != nil {
		return contact.Feedback{}, err
	}
	fb.ID = id
	err = s.putSubmission(ctx, submissionRecord{
		Kind:      kindFeedback,
		ID:        fb.ID,
		Name:      fb.Name,
		Email:     fb.Email,
		Rating:    fb.Rating,
		Feedback:  fb.Feedback,
		CreatedAt: fb.CreatedAt,
	})
	if err != nil {
		return contact.Feedback{}, err
	}
	return fb, nil
}

func (s *Store) putSubmission(ctx context.Context, rec submissionRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal %s submission: %w", rec.Kind, err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tables.Submissions,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put %s submission: %w", rec.Kind, err)
	}
	return nil
}
