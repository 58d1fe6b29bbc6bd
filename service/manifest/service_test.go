package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirukguru/image-release/model"
)

type mockS3Client struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (m *mockS3Client) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.in = in
	m.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, m.err
}

func TestKey(t *testing.T) {
	assert.Equal(t, "releases/api/20240102_abc123.json", Key("/releases/", "api", "20240102_abc123"))
	assert.Equal(t, "api/x.json", Key("", "api", "x"))
}

func TestPublish(t *testing.T) {
	client := &mockS3Client{}
	svc := NewServiceWithClient(client, "release-bucket", "releases")

	uri, err := svc.Publish(context.Background(), model.ReleaseResult{
		CommitID:  "20240102_abc123",
		Image:     "dashboard-api",
		RemoteRef: "registry.example.com/dashboard-api:20240102_abc123",
		Status:    model.StatusSucceeded,
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://release-bucket/releases/dashboard-api/20240102_abc123.json", uri)
	assert.Equal(t, "release-bucket", aws.ToString(client.in.Bucket))
	assert.Equal(t, "20240102_abc123", client.in.Metadata["commit-id"])

	var decoded model.ReleaseResult
	require.NoError(t, json.Unmarshal(client.body, &decoded))
	assert.Equal(t, model.StatusSucceeded, decoded.Status)
}

func TestPublishErrors(t *testing.T) {
	_, err := NewServiceWithClient(&mockS3Client{}, "", "").Publish(context.Background(), model.ReleaseResult{})
	assert.ErrorContains(t, err, "not configured")

	_, err = NewServiceWithClient(&mockS3Client{err: errors.New("AccessDenied")}, "b", "").Publish(context.Background(), model.ReleaseResult{Image: "api", CommitID: "x"})
	assert.ErrorContains(t, err, "s3://b/api/x.json")
}
