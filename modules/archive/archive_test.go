package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/capitalone/Stratum-Observability/internal/codec"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type object struct {
	bucket, key, contentType string
	data                     []byte
}

type memStore struct {
	buckets map[string]bool
	err     error
	objects []object
}

func (s *memStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	return s.buckets[bucket], s.err
}

func (s *memStore) PutObject(_ context.Context, bucket, key string, data []byte, contentType string) error {
	if s.err != nil {
		return s.err
	}
	s.objects = append(s.objects, object{bucket: bucket, key: key, contentType: contentType, data: data})
	return nil
}

func testSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Event:            snapshot.Event{EventType: "base", ID: "checkout/start"},
		Data:             map[string]any{},
		Catalog:          snapshot.CatalogInfo{ID: "P:1.0"},
		StratumSessionID: "sess",
		AbTestSchemas:    []snapshot.AbTestSchema{},
	}
}

func fixedID() string { return "0001" }

func TestPublish(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		wantKey    string
		wantType   string
		decompress bool
		wantFormat codec.Format
	}{
		{
			name:       "json",
			cfg:        Config{Bucket: "events", Prefix: "/stratum/"},
			wantKey:    "stratum/P:1.0/checkout_start/sess-0001.json",
			wantType:   "application/json",
			wantFormat: codec.JSON,
		},
		{
			name:       "cbor compressed",
			cfg:        Config{Bucket: "events", Format: codec.CBOR, Compress: true},
			wantKey:    "P:1.0/checkout_start/sess-0001.cbor.zst",
			wantType:   "application/zstd",
			decompress: true,
			wantFormat: codec.CBOR,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			store := &memStore{buckets: map[string]bool{"events": true}}
			p := NewPublisher(tc.cfg, store)
			p.newID = fixedID
			m := model.NewBase("start", model.Entry{EventType: "base", ID: "checkout/start"}, "P:1.0")
			snap := testSnapshot()

			// --- Act ---
			ok, err := p.IsAvailable(context.Background(), m, snap)
			require.NoError(t, err)
			require.True(t, ok)
			err = p.Publish(context.Background(), p.GetEventOutput(m, snap), snap)

			// --- Assert ---
			require.NoError(t, err)
			require.Len(t, store.objects, 1)
			obj := store.objects[0]
			assert.Equal(t, "events", obj.bucket)
			assert.Equal(t, tc.wantKey, obj.key)
			assert.Equal(t, tc.wantType, obj.contentType)

			body := obj.data
			if tc.decompress {
				body, err = Decompress(body)
				require.NoError(t, err)
			}
			var rec map[string]any
			require.NoError(t, tc.wantFormat.Unmarshal(body, &rec))
			assert.Equal(t, "P:1.0:start", rec["content"].(map[string]any)["tagId"])
			assert.Equal(t, "sess", rec["snapshot"].(map[string]any)["stratumSessionId"])
		})
	}
}

func TestUnavailableWithoutBucket(t *testing.T) {
	p := NewPublisher(Config{Bucket: "missing"}, &memStore{})

	ok, err := p.IsAvailable(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreErrors(t *testing.T) {
	store := &memStore{err: errors.New("access denied")}
	p := NewPublisher(Config{Bucket: "b"}, store)

	_, availErr := p.IsAvailable(context.Background(), nil, nil)
	pubErr := p.Publish(context.Background(), nil, testSnapshot())

	assert.ErrorContains(t, availErr, `check bucket "b": access denied`)
	assert.ErrorContains(t, pubErr, "access denied")
}

func TestNewMinioStoreValidates(t *testing.T) {
	_, err := NewMinioStore(StoreConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewMinioStore(StoreConfig{EndpointURL: "http://localhost:9000"})
	assert.ErrorContains(t, err, "credentials")

	s, err := NewMinioStore(StoreConfig{EndpointURL: "http://localhost:9000", AccessKeyID: "k", SecretAccessKey: "s"})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
