package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type AWSServiceProvider interface {
	InitPresignClient(ctx context.Context) error
	PresignLink(ctx context.Context, bucketName string, fileName string) (string, error)
	UploadToPresignedURL(ctx context.Context, bucketName, url string, fileContent []byte) (string, int, error)
	UploadBytes(ctx context.Context, bucketName, fileKey string, fileContent []byte) error
	GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error)
}

type AWSService struct {
	S3PresignClient *s3.PresignClient
}

func (awsService *AWSService) InitPresignClient(ctx context.Context) error {
	var accountId = GetEnv("R2_ACCOUNT_ID", "")
	var accessKeyId = GetEnv("R2_ACCESS_KEY_ID", "")
	var accessKeySecret = GetEnv("R2_ACCESS_KEY_SECRET", "")
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountId),
		}, nil
	})
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyId, accessKeySecret, "")),
	)
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	s3Client := s3.NewFromConfig(cfg)

	presignClient := s3.NewPresignClient(s3Client)

	awsService.S3PresignClient = presignClient
	return err
}

func (awsService *AWSService) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {
	request, err := awsService.S3PresignClient.PresignPutObject(context.TODO(), &s3.PutObjectInput{Bucket: &bucketName, Key: &fileName},
		s3.WithPresignExpires(presignedURLExpiration))
	return request.URL, err
}

func (awsService *AWSService) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	presignedGetRequest, err := awsService.S3PresignClient.PresignGetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(fileKey),
	}, s3.WithPresignExpires(presignedURLExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign request: %v", err)
	}
	return presignedGetRequest.URL, nil
}

// UploadBytes puts an object into the bucket through a fresh presigned PUT
// URL. The pipeline stores user photos, product images and generated frames
// this way before any of them are referenced by URL.
func (awsService *AWSService) UploadBytes(ctx context.Context, bucketName, fileKey string, fileContent []byte) error {
	presignedURL, err := awsService.PresignLink(ctx, bucketName, fileKey)
	if err != nil {
		return fmt.Errorf("failed to presign upload for %s: %v", fileKey, err)
	}
	_, statusCode, err := awsService.UploadToPresignedURL(ctx, bucketName, presignedURL, fileContent)
	if err != nil {
		return err
	}
	if statusCode < 200 || statusCode > 299 {
		return fmt.Errorf("upload of %s failed with status %d", fileKey, statusCode)
	}
	return nil
}

var allowedUploadMIMETypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/heic": true,
	"image/heif": true,
	"image/webp": true,
}

// DetectUploadMIME sniffs the payload's content type. The stdlib sniffer has
// no HEIC/HEIF entry and reports those containers as application/octet-stream,
// so the ISO-BMFF major brand is read directly.
func DetectUploadMIME(fileContent []byte) (string, error) {
	mimeType := http.DetectContentType(fileContent)
	if mimeType == "application/octet-stream" && len(fileContent) >= 12 && string(fileContent[4:8]) == "ftyp" {
		switch string(fileContent[8:12]) {
		case "heic", "heix":
			mimeType = "image/heic"
		case "heif", "mif1", "msf1":
			mimeType = "image/heif"
		}
	}
	if !allowedUploadMIMETypes[mimeType] {
		return "", fmt.Errorf("unsupported file type: %s", mimeType)
	}
	return mimeType, nil
}

func (awsService *AWSService) UploadToPresignedURL(ctx context.Context, bucketName, url string, fileContent []byte) (string, int, error) {
	mimeType, err := DetectUploadMIME(fileContent)
	if err != nil {
		return "", 0, err
	}

	body := bytes.NewReader(fileContent)

	req, err := http.NewRequestWithContext(ctx, "PUT", url, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return "", 0, err
	}
	req.Header.Set("Content-Type", mimeType)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error uploading file: %v\n", err)
		return "", 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Error reading response: %v\n", err)
		return "", resp.StatusCode, err
	}

	return string(respBody), resp.StatusCode, nil
}
