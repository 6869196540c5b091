package cloud

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"

	"cwmon/internal/cache"
)

const (
	groupProducer = "auto-scaling-group"

	lookupTimeout     = 10 * time.Second
	lookupMaxAttempts = 3
)

// FetchAutoScalingGroup resolves the Auto Scaling group owning the
// instance, from cache when fresh. An instance that belongs to no group is
// a NotFound lookup error; the caller only asks when auto-scaling metrics
// were explicitly requested, so that is fatal.
func FetchAutoScalingGroup(ctx context.Context, c *cache.Cache, region, instanceID string) (string, error) {
	return cache.Fetch(c, groupProducer, []string{region, instanceID}, func() (string, error) {
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithRetryMaxAttempts(lookupMaxAttempts),
		)
		if err != nil {
			return "", &LookupError{Op: "Auto Scaling service", Err: err}
		}

		client := autoscaling.NewFromConfig(cfg)

		tctx, cancel := context.WithTimeout(ctx, lookupTimeout)
		defer cancel()

		out, err := client.DescribeAutoScalingInstances(tctx, &autoscaling.DescribeAutoScalingInstancesInput{
			InstanceIds: []string{instanceID},
		})
		if err != nil {
			return "", &LookupError{Op: "Auto Scaling service", Err: err}
		}
		if len(out.AutoScalingInstances) == 0 {
			return "", &LookupError{Op: "auto-scaling information for instance " + instanceID, NotFound: true}
		}

		return aws.ToString(out.AutoScalingInstances[0].AutoScalingGroupName), nil
	})
}
