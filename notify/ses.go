package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
)

// SESSender delivers messages through Amazon SES.
type SESSender struct {
	API  sesiface.SESAPI
	From string
}

// NewSESSender builds a sender over a fresh AWS session using the default
// credential chain.
func NewSESSender(region, from string) (*SESSender, error) {
	sess, err := session.NewSession(aws.NewConfig().WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &SESSender{API: ses.New(sess), From: from}, nil
}

func (s *SESSender) Send(ctx context.Context, to string, msg Message) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.From),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(to)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Data: aws.String(msg.Subject)},
			Body: &ses.Body{
				Text: &ses.Content{Data: aws.String(msg.PlainText)},
				Html: &ses.Content{Data: aws.String(msg.HTML)},
			},
		},
	}
	if _, err := s.API.SendEmailWithContext(ctx, input); err != nil {
		return fmt.Errorf("ses send to %s failed: %w", to, err)
	}
	return nil
}
