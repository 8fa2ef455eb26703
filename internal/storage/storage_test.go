package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"contact/1728000000000.json", true},
		{"request/1.json", true},
		{"", false},
		{"/contact/1.json", false},
		{"contact/../secrets", false},
		{"contact//1.json", false},
		{"contact\\1.json", false},
		{"./1.json", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := validateKey(tt.key)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidKey)
			}
		})
	}
}

func TestNewS3StoreRequiresBucketAndRegion(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{Region: "auto"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewS3Store(context.Background(), S3Config{Bucket: "forms"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewS3StoreWithEndpoint(t *testing.T) {
	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:      "forms",
		Region:      "auto",
		Endpoint:    "http://localhost:9000",
		AccessKeyID: "key",
		SecretKey:   "secret",
	})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestS3StorePut(t *testing.T) {
	client := &mockS3Client{}
	store, err := NewS3Store(context.Background(), S3Config{Bucket: "forms", Region: "auto"}, WithS3Client(client))
	require.NoError(t, err)

	body := []byte(`{"name":"Taro"}`)
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		if aws.ToString(in.Bucket) != "forms" || aws.ToString(in.Key) != "contact/1.json" {
			return false
		}
		if aws.ToString(in.ContentType) != "application/json" || aws.ToInt64(in.ContentLength) != int64(len(body)) {
			return false
		}
		got, err := io.ReadAll(in.Body)
		return err == nil && string(got) == string(body)
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(context.Background(), "contact/1.json", body, "application/json"))
	client.AssertExpectations(t)
}

func TestS3StorePutErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		client := &mockS3Client{}
		store, _ := NewS3Store(context.Background(), S3Config{Bucket: "forms", Region: "auto"}, WithS3Client(client))
		client.On("PutObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"})

		err := store.Put(context.Background(), "contact/1.json", []byte("{}"), "application/json")
		assert.ErrorIs(t, err, ErrPutFailed)
		assert.Contains(t, err.Error(), "AccessDenied")
	})

	t.Run("transport error", func(t *testing.T) {
		client := &mockS3Client{}
		store, _ := NewS3Store(context.Background(), S3Config{Bucket: "forms", Region: "auto"}, WithS3Client(client))
		client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: timeout"))

		err := store.Put(context.Background(), "contact/1.json", []byte("{}"), "application/json")
		assert.ErrorIs(t, err, ErrPutFailed)
	})

	t.Run("invalid key never reaches the client", func(t *testing.T) {
		client := &mockS3Client{}
		store, _ := NewS3Store(context.Background(), S3Config{Bucket: "forms", Region: "auto"}, WithS3Client(client))

		err := store.Put(context.Background(), "../x", []byte("{}"), "application/json")
		assert.ErrorIs(t, err, ErrInvalidKey)
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	})
}

func TestLocalStorePut(t *testing.T) {
	root := filepath.Join(t.TempDir(), "forms")
	store, err := NewLocalStore(root)
	require.NoError(t, err)
	assert.Equal(t, root, store.Root())

	require.NoError(t, store.Put(context.Background(), "request/42.json", []byte(`{"a":1}`), "application/json"))

	got, err := os.ReadFile(filepath.Join(root, "request", "42.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))

	entries, err := os.ReadDir(filepath.Join(root, "request"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, store.Put(context.Background(), "../escape.json", []byte("{}"), ""), ErrInvalidKey)
}

func TestLocalStoreCanceledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Put(ctx, "contact/1.json", []byte("{}"), ""), context.Canceled)
}

func TestNewLocalStoreRequiresRoot(t *testing.T) {
	_, err := NewLocalStore("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
