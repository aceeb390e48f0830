package msgqueue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"vodsmith/internal/services"
)

// SQSAPI is the subset of the SQS client the queue calls.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue adapts one SQS queue URL to the Queue interface.
type SQSQueue struct {
	client SQSAPI
	url    string
}

// sqsBatchLimit is the SendMessageBatch entry cap imposed by the service.
const sqsBatchLimit = 10

// NewSQSQueue builds a queue client for the given URL using the default AWS
// credential chain.
func NewSQSQueue(ctx context.Context, region, url string) (*SQSQueue, error) {
	if strings.TrimSpace(url) == "" {
		return nil, services.Wrap(services.ErrValidation, "msgqueue", "new", "queue url is required", nil)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "msgqueue", "new", "load aws config", err)
	}
	return &SQSQueue{client: sqs.NewFromConfig(cfg), url: url}, nil
}

// NewSQSQueueWithClient wires an existing client, mostly for tests.
func NewSQSQueueWithClient(client SQSAPI, url string) *SQSQueue {
	return &SQSQueue{client: client, url: url}
}

func (q *SQSQueue) Send(ctx context.Context, body []byte) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.url),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "msgqueue", "send", q.url, err)
	}
	return nil
}

func (q *SQSQueue) SendBatch(ctx context.Context, bodies [][]byte) error {
	for start := 0; start < len(bodies); start += sqsBatchLimit {
		end := start + sqsBatchLimit
		if end > len(bodies) {
			end = len(bodies)
		}
		entries := make([]types.SendMessageBatchRequestEntry, 0, end-start)
		for i, body := range bodies[start:end] {
			entries = append(entries, types.SendMessageBatchRequestEntry{
				Id:          aws.String(strconv.Itoa(start + i)),
				MessageBody: aws.String(string(body)),
			})
		}
		out, err := q.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(q.url),
			Entries:  entries,
		})
		if err != nil {
			return services.Wrap(services.ErrTransient, "msgqueue", "send_batch", q.url, err)
		}
		if len(out.Failed) > 0 {
			first := out.Failed[0]
			return services.Wrap(services.ErrTransient, "msgqueue", "send_batch",
				fmt.Sprintf("%d entries failed, first: %s", len(out.Failed), aws.ToString(first.Message)), nil)
		}
	}
	return nil
}

func (q *SQSQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	if max > sqsBatchLimit {
		max = sqsBatchLimit
	}
	waitSeconds := int32(wait / time.Second)
	if waitSeconds > 20 {
		waitSeconds = 20
	}
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.url),
		MaxNumberOfMessages: int32(max),
		WaitTimeSeconds:     waitSeconds,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "msgqueue", "receive", q.url, err)
	}
	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, Message{
			Receipt: aws.ToString(m.ReceiptHandle),
			Body:    []byte(aws.ToString(m.Body)),
		})
	}
	return msgs, nil
}

func (q *SQSQueue) Delete(ctx context.Context, receipt string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(receipt),
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "msgqueue", "delete", q.url, err)
	}
	return nil
}

var _ Queue = (*SQSQueue)(nil)
