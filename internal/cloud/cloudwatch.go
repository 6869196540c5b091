package cloud

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"cwmon/internal/metrics"
)

const (
	// PutMetricData accepts at most 20 datums per call.
	putChunkSize = 20

	submitTimeout     = 30 * time.Second
	submitMaxAttempts = 3
)

type metricPutter interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, opts ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Submitter sends a metric batch to CloudWatch under a fixed namespace.
type Submitter struct {
	client    metricPutter
	namespace string
	now       func() time.Time
}

// NewSubmitter builds a CloudWatch client for the region.
func NewSubmitter(ctx context.Context, region, namespace string) (*Submitter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(submitMaxAttempts),
	)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	return &Submitter{
		client:    cloudwatch.NewFromConfig(cfg),
		namespace: namespace,
		now:       time.Now,
	}, nil
}

// Submit sends every point in the batch, all stamped with the same
// submission time, chunked to the PutMetricData size limit. The first
// failed chunk aborts the run; nothing is retried beyond the client's own
// bounded attempts.
func (s *Submitter) Submit(ctx context.Context, batch *metrics.Batch) error {
	points := batch.Points()
	if len(points) == 0 {
		return nil
	}

	timestamp := aws.Time(s.now().UTC())
	data := make([]types.MetricDatum, 0, len(points))
	for _, p := range points {
		dims := make([]types.Dimension, 0, len(p.Dimensions))
		for _, d := range p.Dimensions {
			dims = append(dims, types.Dimension{
				Name:  aws.String(d.Name),
				Value: aws.String(d.Value),
			})
		}
		data = append(data, types.MetricDatum{
			MetricName: aws.String(p.Name),
			Unit:       types.StandardUnit(p.Unit),
			Value:      aws.Float64(p.Value),
			Timestamp:  timestamp,
			Dimensions: dims,
		})
	}

	for start := 0; start < len(data); start += putChunkSize {
		end := min(start+putChunkSize, len(data))

		tctx, cancel := context.WithTimeout(ctx, submitTimeout)
		_, err := s.client.PutMetricData(tctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(s.namespace),
			MetricData: data[start:end],
		})
		cancel()
		if err != nil {
			return &SubmissionError{Err: err}
		}
	}
	return nil
}
