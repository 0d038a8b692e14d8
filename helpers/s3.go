package helpers

import (
	"bytes"
	"fmt"

	"bitbucket.org/skilr/backend/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

// AddFileToS3 uploads a generated receipt and returns its public URL.
func AddFileToS3(ctx *config.AppContext, buffer *bytes.Buffer, path string) (string, error) {
	uploader := s3.New(ctx.AwsS3)

	_, err := uploader.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(ctx.Config.AwsS3.S3Bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(buffer.Bytes()),
		ContentType:   aws.String("application/pdf"),
		ContentLength: aws.Int64(int64(buffer.Len())),
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s", ctx.Config.AwsS3.S3Url, path), nil
}
