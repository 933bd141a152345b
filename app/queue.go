package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"example/chessdebrief/app/models"
)

// Enqueuer hands an analysis job to the worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, job models.AnalysisJobMessage) error
}

// SQSAPI is the subset of the SQS client the queue and the worker use.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQSEnqueuer struct {
	client   SQSAPI
	queueURL string
}

func NewSQSEnqueuer(client SQSAPI, queueURL string) *SQSEnqueuer {
	return &SQSEnqueuer{client: client, queueURL: queueURL}
}

// NewSQSClient builds a client from the default AWS credential chain.
func NewSQSClient(ctx context.Context) (*sqs.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return sqs.NewFromConfig(awsCfg), nil
}

func (q *SQSEnqueuer) Enqueue(ctx context.Context, job models.AnalysisJobMessage) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("send analysis job %s: %w", job.ReportID, err)
	}
	return nil
}

// InlineEnqueuer runs jobs in a background goroutine of the API process. It
// serves local setups without a queue.
type InlineEnqueuer struct {
	Run func(ctx context.Context, job models.AnalysisJobMessage) error
}

// Enqueue starts job detached from ctx's cancellation, bounded by jobTimeout
// like a queued job.
func (q InlineEnqueuer) Enqueue(ctx context.Context, job models.AnalysisJobMessage) error {
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobTimeout)
	go func() {
		defer cancel()
		if err := q.Run(jobCtx, job); err != nil {
			logJobError(job, err)
		}
	}()
	return nil
}
