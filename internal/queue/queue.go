// Package queue wraps the SQS transport. Retry, backoff and single-consumer
// leasing are the transport's contract; this wrapper only receives, sends and
// deletes.
package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Message is one leased queue message. The ReceiptHandle must be presented
// back to delete it; an undeleted message is redelivered after the
// visibility timeout.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Client talks to one SQS queue.
type Client struct {
	sqs      *sqs.Client
	queueURL string
}

// New wraps an injected SQS handle.
func New(client *sqs.Client, queueURL string) *Client {
	return &Client{sqs: client, queueURL: queueURL}
}

// Connect loads the ambient AWS config for the region and binds to queueURL.
func Connect(ctx context.Context, region, queueURL string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(sqs.NewFromConfig(cfg), queueURL), nil
}

// ReceiveOne long-polls for a single message. Returns nil when the queue is
// empty within the wait window.
func (c *Client) ReceiveOne(ctx context.Context, waitSeconds int32) (*Message, error) {
	out, err := c.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     waitSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("receive message: %w", err)
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}

	msg := out.Messages[0]
	return &Message{
		ID:            aws.ToString(msg.MessageId),
		Body:          aws.ToString(msg.Body),
		ReceiptHandle: aws.ToString(msg.ReceiptHandle),
	}, nil
}

// Delete acknowledges a message so it will not be redelivered. Only called
// after the whole batch succeeded.
func (c *Client) Delete(ctx context.Context, receiptHandle string) error {
	_, err := c.sqs.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// Send enqueues a message body and returns the assigned message id.
func (c *Client) Send(ctx context.Context, body string) (string, error) {
	out, err := c.sqs.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
