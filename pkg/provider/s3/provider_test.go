package s3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"github.com/XRay205/tarkov-data/pkg/provider"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		field   string
	}{
		{
			name:    "valid minimal",
			cfg:     Config{Bucket: "assets"},
			wantErr: false,
		},
		{
			name:    "missing bucket",
			cfg:     Config{},
			wantErr: true,
			field:   "Bucket",
		},
		{
			name:    "access key without secret",
			cfg:     Config{Bucket: "assets", AccessKeyID: "AKIA..."},
			wantErr: true,
			field:   "AccessKeyID/SecretAccessKey",
		},
		{
			name:    "secret without access key",
			cfg:     Config{Bucket: "assets", SecretAccessKey: "secret"},
			wantErr: true,
			field:   "AccessKeyID/SecretAccessKey",
		},
		{
			name: "explicit credentials together",
			cfg: Config{
				Bucket:          "assets",
				AccessKeyID:     "AKIA...",
				SecretAccessKey: "secret",
			},
			wantErr: false,
		},
		{
			name: "s3 compatible endpoint",
			cfg: Config{
				Bucket:         "assets",
				Endpoint:       "http://localhost:9000",
				ForcePathStyle: true,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "Bucket", Message: "bucket name is required"}
	assert.Equal(t, "s3 config: Bucket: bucket name is required", err.Error())
}

func TestCleanETag(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", cleanETag(`"d41d8cd98f00b204e9800998ecf8427e"`))
	assert.Equal(t, "abc", cleanETag("abc"))
	assert.Equal(t, "", cleanETag(`""`))
}

func TestResolveRegion(t *testing.T) {
	tests := []struct {
		name      string
		cfgRegion string
		endpoint  string
		sdkRegion string
		want      string
	}{
		{"sdk resolved wins", "eu-west-1", "", "eu-west-1", "eu-west-1"},
		{"aws default when nothing resolved", "", "", "", DefaultAWSRegion},
		{"no default for compatible stores", "", "http://localhost:9000", "", ""},
		{"compatible store with explicit region", "us-east-2", "http://localhost:9000", "us-east-2", "us-east-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveRegion(tt.cfgRegion, tt.endpoint, tt.sdkRegion)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrapError(t *testing.T) {
	s := &Store{bucket: "assets"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "smithy NoSuchKey",
			err:  &smithy.GenericAPIError{Code: "NoSuchKey", Message: "no such key"},
			want: provider.ErrNotFound,
		},
		{
			name: "smithy NoSuchBucket",
			err:  &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "no such bucket"},
			want: provider.ErrBucketNotFound,
		},
		{
			name: "smithy AccessDenied",
			err:  &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"},
			want: provider.ErrAccessDenied,
		},
		{
			name: "smithy InvalidAccessKeyId",
			err:  &smithy.GenericAPIError{Code: "InvalidAccessKeyId", Message: "bad key"},
			want: provider.ErrInvalidCredentials,
		},
		{
			name: "smithy SlowDown",
			err:  &smithy.GenericAPIError{Code: "SlowDown", Message: "slow down"},
			want: provider.ErrThrottled,
		},
		{
			name: "smithy ServiceUnavailable",
			err:  &smithy.GenericAPIError{Code: "ServiceUnavailable", Message: "unavailable"},
			want: provider.ErrStoreUnavailable,
		},
		{
			name: "message fallback 404",
			err:  fmt.Errorf("operation error S3: HeadObject, http response error StatusCode: 404"),
			want: provider.ErrNotFound,
		},
		{
			name: "message fallback 403",
			err:  fmt.Errorf("http response error StatusCode: 403, Forbidden"),
			want: provider.ErrAccessDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := s.wrapError("Head", "c/items.json", tt.err)
			assert.ErrorIs(t, wrapped, tt.want)

			var storeErr *provider.StoreError
			assert.ErrorAs(t, wrapped, &storeErr)
			assert.Equal(t, "Head", storeErr.Op)
			assert.Equal(t, provider.StoreS3, storeErr.Store)
			assert.Equal(t, "assets", storeErr.Bucket)
			assert.Equal(t, "c/items.json", storeErr.Key)
		})
	}

	t.Run("unknown error passes through", func(t *testing.T) {
		underlying := errors.New("something odd")
		wrapped := s.wrapError("PutObject", "k", underlying)
		assert.ErrorIs(t, wrapped, underlying)
	})
}

func TestStoreError_Messages(t *testing.T) {
	withKey := &provider.StoreError{Op: "Head", Store: provider.StoreS3, Bucket: "b", Key: "k", Err: provider.ErrNotFound}
	assert.Equal(t, "s3 Head: b/k: object not found", withKey.Error())

	bucketOnly := &provider.StoreError{Op: "New", Store: provider.StoreS3, Bucket: "b", Err: provider.ErrAccessDenied}
	assert.Equal(t, "s3 New: b: access denied", bucketOnly.Error())
}
