package mirror

import (
	"fmt"
	"strings"
)

// Regional AWS S3 endpoints. Unknown regions fall back to the global
// endpoint.
var awsEndpoints = map[string]string{
	"us-east-1":      "s3.amazonaws.com",
	"us-east-2":      "s3.us-east-2.amazonaws.com",
	"us-west-1":      "s3.us-west-1.amazonaws.com",
	"us-west-2":      "s3.us-west-2.amazonaws.com",
	"eu-west-1":      "s3.eu-west-1.amazonaws.com",
	"eu-west-2":      "s3.eu-west-2.amazonaws.com",
	"eu-central-1":   "s3.eu-central-1.amazonaws.com",
	"eu-north-1":     "s3.eu-north-1.amazonaws.com",
	"ap-northeast-1": "s3.ap-northeast-1.amazonaws.com",
	"ap-southeast-1": "s3.ap-southeast-1.amazonaws.com",
	"ap-southeast-2": "s3.ap-southeast-2.amazonaws.com",
	"ap-south-1":     "s3.ap-south-1.amazonaws.com",
	"ca-central-1":   "s3.ca-central-1.amazonaws.com",
	"sa-east-1":      "s3.sa-east-1.amazonaws.com",
}

// AWSConfig configures the mirror for AWS S3.
type AWSConfig struct {
	BucketName string
	AccessKey  string
	SecretKey  string
	Region     string
}

// AWSSettings resolves AWS provider settings: virtual-host style URLs
// and the regional endpoint.
func AWSSettings(config *AWSConfig) *S3Config {
	region := config.Region
	if region == "" {
		region = "us-east-1"
	}
	endpoint, ok := awsEndpoints[region]
	if !ok {
		endpoint = "s3.amazonaws.com"
	}
	return &S3Config{
		Endpoint:   endpoint,
		BucketName: config.BucketName,
		AccessKey:  config.AccessKey,
		SecretKey:  config.SecretKey,
		Region:     region,
	}
}

// NewAWSClient creates an S3 client for AWS.
func NewAWSClient(config *AWSConfig) *S3Client {
	return NewS3Client(AWSSettings(config))
}

// MinIOConfig configures the mirror for a self-hosted MinIO server.
type MinIOConfig struct {
	Endpoint   string
	BucketName string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
}

// MinIOSettings resolves MinIO provider settings. MinIO requires
// path-style URLs.
func MinIOSettings(config *MinIOConfig) *S3Config {
	endpoint := config.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if config.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	return &S3Config{
		Endpoint:       endpoint,
		BucketName:     config.BucketName,
		AccessKey:      config.AccessKey,
		SecretKey:      config.SecretKey,
		Region:         "us-east-1",
		ForcePathStyle: true,
	}
}

// NewMinIOClient creates an S3 client for MinIO.
func NewMinIOClient(config *MinIOConfig) *S3Client {
	return NewS3Client(MinIOSettings(config))
}

// R2Config configures the mirror for Cloudflare R2.
type R2Config struct {
	AccountID  string
	BucketName string
	AccessKey  string
	SecretKey  string
}

// R2Settings resolves Cloudflare R2 provider settings using the
// account-specific endpoint.
func R2Settings(config *R2Config) (*S3Config, error) {
	if config.AccountID == "" {
		return nil, fmt.Errorf("R2 account id is required")
	}
	return &S3Config{
		Endpoint:   fmt.Sprintf("%s.r2.cloudflarestorage.com", config.AccountID),
		BucketName: config.BucketName,
		AccessKey:  config.AccessKey,
		SecretKey:  config.SecretKey,
		Region:     "auto",
	}, nil
}

// NewR2Client creates an S3 client for R2.
func NewR2Client(config *R2Config) (*S3Client, error) {
	cfg, err := R2Settings(config)
	if err != nil {
		return nil, err
	}
	return NewS3Client(cfg), nil
}
