// Package cloud talks to the EC2 metadata service, the Auto Scaling API,
// and CloudWatch. The two lookups are memoized through the TTL cache; the
// submission never is.
package cloud

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"

	"cwmon/internal/cache"
)

const (
	metadataProducer = "instance-metadata"

	metadataTimeout     = 5 * time.Second
	metadataMaxAttempts = 3
)

// InstanceContext identifies the instance a run reports for. Produced once
// per run and read-only afterward.
type InstanceContext struct {
	InstanceID       string `json:"instanceId"`
	InstanceType     string `json:"instanceType"`
	ImageID          string `json:"imageId"`
	AvailabilityZone string `json:"availabilityZone"`
	Region           string `json:"region"`

	// AutoScalingGroup is filled in separately, only when auto-scaling
	// metrics were requested. It is not part of the cached metadata.
	AutoScalingGroup string `json:"-"`
}

// FetchInstanceContext returns the instance identity, from cache when
// fresh, otherwise from the instance metadata service.
func FetchInstanceContext(ctx context.Context, c *cache.Cache) (InstanceContext, error) {
	return cache.Fetch(c, metadataProducer, nil, func() (InstanceContext, error) {
		client := imds.New(imds.Options{
			Retryer: retry.AddWithMaxAttempts(retry.NewStandard(), metadataMaxAttempts),
		})

		tctx, cancel := context.WithTimeout(ctx, metadataTimeout)
		defer cancel()

		doc, err := client.GetInstanceIdentityDocument(tctx, &imds.GetInstanceIdentityDocumentInput{})
		if err != nil {
			return InstanceContext{}, &LookupError{Op: "EC2 instance metadata", Err: err}
		}

		return InstanceContext{
			InstanceID:       doc.InstanceID,
			InstanceType:     doc.InstanceType,
			ImageID:          doc.ImageID,
			AvailabilityZone: doc.AvailabilityZone,
			Region:           doc.Region,
		}, nil
	})
}
