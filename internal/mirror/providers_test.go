package mirror

import "testing"

func TestNewAWSClientRegions(t *testing.T) {
	client := NewAWSClient(&AWSConfig{BucketName: "b", AccessKey: "a", SecretKey: "s", Region: "eu-central-1"})
	if client.config.Endpoint != "s3.eu-central-1.amazonaws.com" {
		t.Errorf("endpoint = %q", client.config.Endpoint)
	}
	if client.config.ForcePathStyle {
		t.Error("AWS uses virtual-host style")
	}

	// empty and unknown regions fall back
	client = NewAWSClient(&AWSConfig{BucketName: "b"})
	if client.config.Region != "us-east-1" || client.config.Endpoint != "s3.amazonaws.com" {
		t.Errorf("defaults = %q / %q", client.config.Region, client.config.Endpoint)
	}
	client = NewAWSClient(&AWSConfig{BucketName: "b", Region: "mars-north-1"})
	if client.config.Endpoint != "s3.amazonaws.com" {
		t.Errorf("unknown region endpoint = %q", client.config.Endpoint)
	}
}

func TestNewMinIOClientNormalizesEndpoint(t *testing.T) {
	client := NewMinIOClient(&MinIOConfig{Endpoint: "localhost:9000", BucketName: "b"})
	if client.config.Endpoint != "http://localhost:9000" {
		t.Errorf("endpoint = %q", client.config.Endpoint)
	}
	if !client.config.ForcePathStyle {
		t.Error("MinIO requires path-style URLs")
	}

	client = NewMinIOClient(&MinIOConfig{Endpoint: "minio.example.com/", BucketName: "b", UseSSL: true})
	if client.config.Endpoint != "https://minio.example.com" {
		t.Errorf("endpoint = %q", client.config.Endpoint)
	}
}

func TestNewR2Client(t *testing.T) {
	client, err := NewR2Client(&R2Config{AccountID: "abc123", BucketName: "b", AccessKey: "a", SecretKey: "s"})
	if err != nil {
		t.Fatalf("NewR2Client: %v", err)
	}
	if client.config.Endpoint != "abc123.r2.cloudflarestorage.com" {
		t.Errorf("endpoint = %q", client.config.Endpoint)
	}
	if client.config.Region != "auto" {
		t.Errorf("region = %q", client.config.Region)
	}

	if _, err := NewR2Client(&R2Config{BucketName: "b"}); err == nil {
		t.Error("missing account id should fail")
	}
}
