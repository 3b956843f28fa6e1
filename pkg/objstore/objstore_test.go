package objstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloud-shuttle/ogimage/pkg/objstore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects missing required fields", func(t *testing.T) {
		t.Parallel()

		_, err := objstore.New(objstore.Config{Bucket: "images"})
		require.ErrorIs(t, err, objstore.ErrInvalidConfig)
		require.Contains(t, err.Error(), "access key")
	})

	t.Run("accepts a minimal config", func(t *testing.T) {
		t.Parallel()

		s, err := objstore.New(objstore.Config{
			Bucket:    "images",
			AccessKey: "key",
			SecretKey: "secret",
		})
		require.NoError(t, err)
		require.NotNil(t, s)
	})
}

func TestStore_URL(t *testing.T) {
	t.Parallel()

	t.Run("virtual-hosted form for AWS", func(t *testing.T) {
		t.Parallel()

		s, err := objstore.New(objstore.Config{
			Bucket:    "images",
			Region:    "eu-west-1",
			AccessKey: "key",
			SecretKey: "secret",
		})
		require.NoError(t, err)
		require.Equal(t, "https://images.s3.eu-west-1.amazonaws.com/og/abc.png", s.URL("og/abc.png"))
	})

	t.Run("path-style form for custom endpoints", func(t *testing.T) {
		t.Parallel()

		s, err := objstore.New(objstore.Config{
			Bucket:    "images",
			AccessKey: "key",
			SecretKey: "secret",
			Endpoint:  "https://minio.local:9000/",
			PathStyle: true,
		})
		require.NoError(t, err)
		require.Equal(t, "https://minio.local:9000/images/og/abc.png", s.URL("og/abc.png"))
	})
}
