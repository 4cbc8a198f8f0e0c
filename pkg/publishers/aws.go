package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// loadAWSConfig resolves the SDK config for a region, preferring static keys
// when both are present.
func loadAWSConfig(ctx context.Context, region string, creds AWSCredentials) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(region)}
	if creds.static() {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
