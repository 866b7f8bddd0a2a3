package mirror

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/yctsai/readnest/internal/errors"
)

// S3Config holds connection settings for an S3-compatible endpoint.
type S3Config struct {
	Endpoint   string
	BucketName string
	AccessKey  string
	SecretKey  string
	Region     string
	// ForcePathStyle selects path-style URLs (MinIO, localstack)
	// instead of virtual-host style.
	ForcePathStyle bool
}

// S3Client implements ObjectStore against any S3-compatible API using
// AWS Signature V4 with unsigned payloads.
type S3Client struct {
	config     *S3Config
	httpClient *http.Client
}

// NewS3Client creates a client for the given endpoint.
func NewS3Client(config *S3Config) *S3Client {
	return &S3Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
	}
}

// listBucketResult is the ListObjectsV2 response envelope.
type listBucketResult struct {
	XMLName  xml.Name `xml:"ListBucketResult"`
	Name     string   `xml:"Name"`
	Prefix   string   `xml:"Prefix"`
	Contents []struct {
		Key          string `xml:"Key"`
		LastModified string `xml:"LastModified"`
		Size         int64  `xml:"Size"`
	} `xml:"Contents"`
}

// Upload writes data under key, overwriting any existing object.
func (c *S3Client) Upload(ctx context.Context, key string, data []byte) error {
	req, err := c.newRequest(ctx, http.MethodPut, key, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransportUnavailable, "object upload failed", err)
	}
	defer resp.Body.Close()

	return c.checkStatus(resp, http.StatusOK)
}

// Download reads the object at key.
func (c *S3Client) Download(ctx context.Context, key string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransportUnavailable, "object download failed", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMirrorFailed, "reading object body", err)
	}
	return data, nil
}

// Delete removes the object at key. Deleting a missing object is not
// an error on S3.
func (c *S3Client) Delete(ctx context.Context, key string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, key, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransportUnavailable, "object delete failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return c.checkStatus(resp, http.StatusOK)
}

// List returns all keys under prefix via ListObjectsV2.
func (c *S3Client) List(ctx context.Context, prefix string) ([]string, error) {
	listPath := "?list-type=2&prefix=" + url.QueryEscape(prefix)
	req, err := c.newRequest(ctx, http.MethodGet, listPath, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransportUnavailable, "bucket list failed", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var result listBucketResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMirrorFailed, "parsing list response", err)
	}

	keys := make([]string, 0, len(result.Contents))
	for _, content := range result.Contents {
		keys = append(keys, content.Key)
	}
	return keys, nil
}

// checkStatus maps S3 failure statuses onto the mirror error
// vocabulary.
func (c *S3Client) checkStatus(resp *http.Response, want int) error {
	switch {
	case resp.StatusCode == want:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.New(apperrors.ErrNotFound, "object not found")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.New(apperrors.ErrMirrorAuthFailed,
			fmt.Sprintf("bucket %q rejected the credentials (status %d)", c.config.BucketName, resp.StatusCode))
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.New(apperrors.ErrMirrorFailed,
			fmt.Sprintf("object store returned status %d: %s", resp.StatusCode, string(body)))
	}
}

// newRequest builds a signed request for key. A key starting with "?"
// addresses the bucket itself with a query string.
func (c *S3Client) newRequest(ctx context.Context, method, key string, body io.Reader) (*http.Request, error) {
	var urlStr string
	if c.config.ForcePathStyle {
		urlStr = fmt.Sprintf("%s/%s/%s", c.config.Endpoint, c.config.BucketName, key)
	} else {
		urlStr = fmt.Sprintf("https://%s.%s/%s", c.config.BucketName, c.config.Endpoint, key)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMirrorFailed, "building request", err)
	}
	if !c.config.ForcePathStyle {
		req.Host = fmt.Sprintf("%s.%s", c.config.BucketName, c.config.Endpoint)
	}

	amzDate := time.Now().UTC().Format("20060102T150405Z")
	req.Header.Set("Host", req.Host)
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", "UNSIGNED-PAYLOAD")
	req.Header.Set("Authorization", c.authorization(method, key, amzDate))

	return req, nil
}

// authorization computes the AWS V4 signature header with unsigned
// payload hashing.
func (c *S3Client) authorization(method, key, amzDate string) string {
	dateStamp := amzDate[:8]
	scope := fmt.Sprintf("%s/%s/s3/aws4_request", dateStamp, c.config.Region)

	canonicalURI := "/" + c.config.BucketName + "/" + key
	canonicalHeaders := fmt.Sprintf("host:%s\nx-amz-date:%s\n",
		c.config.BucketName+"."+c.config.Endpoint, amzDate)
	signedHeaders := "host;x-amz-date"
	canonicalRequest := fmt.Sprintf("%s\n%s\n\n%s\n%s UNSIGNED-PAYLOAD",
		method, canonicalURI, canonicalHeaders, signedHeaders)

	stringToSign := fmt.Sprintf("AWS4-HMAC-SHA256\n%s\n%s\n%s",
		amzDate, scope, hex.EncodeToString(hashSHA256([]byte(canonicalRequest))))

	kDate := hmacSHA256([]byte("AWS4"+c.config.SecretKey), dateStamp)
	kRegion := hmacSHA256(kDate, c.config.Region)
	kService := hmacSHA256(kRegion, "s3")
	kSigning := hmacSHA256(kService, "aws4_request")
	signature := hex.EncodeToString(hmacSHA256(kSigning, stringToSign))

	return fmt.Sprintf("AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		c.config.AccessKey, scope, signedHeaders, signature)
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func hashSHA256(data []byte) []byte {
	h := sha256.New()
	h.Write(data)
	return h.Sum(nil)
}
