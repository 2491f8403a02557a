package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civireport/internal/capture"
	"civireport/internal/storage"
)

// Policy is the per-destination upload policy: where blobs land, how large
// they may be, and which media types are admitted.
type Policy struct {
	Bucket    string
	KeyPrefix string
	MaxBytes  int64
	// Whitelist maps a bare media type to the file extension used in the
	// destination key.
	Whitelist map[string]string
}

// DefaultAudioPolicy returns the audio destination policy (10 MiB ceiling,
// common container/codec types).
func DefaultAudioPolicy(bucket string) Policy {
	return Policy{
		Bucket:    bucket,
		KeyPrefix: "audio",
		MaxBytes:  10 << 20,
		Whitelist: map[string]string{
			"audio/webm": "webm",
			"audio/ogg":  "ogg",
			"audio/mp4":  "m4a",
			"audio/mpeg": "mp3",
			"audio/wav":  "wav",
		},
	}
}

// DefaultImagePolicy returns the image destination policy (5 MiB ceiling,
// common raster types).
func DefaultImagePolicy(bucket string) Policy {
	return Policy{
		Bucket:    bucket,
		KeyPrefix: "images",
		MaxBytes:  5 << 20,
		Whitelist: map[string]string{
			"image/jpeg": "jpg",
			"image/png":  "png",
			"image/webp": "webp",
		},
	}
}

// fallbackAudioType is substituted when an audio blob declares a type the
// whitelist does not recognize but the blob is otherwise acceptable;
// recorder front-ends report inconsistent container names across devices.
const fallbackAudioType = "audio/webm"

// Gateway uploads one blob to one named destination, enforcing that
// destination's media-type whitelist and size ceiling, and returns a durable
// retrieval URL.
type Gateway struct {
	store     storage.Storage
	policies  map[string]Policy
	publicURL string
	now       func() time.Time
}

// NewGateway builds a gateway over the given destinations. publicURL is the
// externally reachable base (scheme+host) under which objects resolve as
// {publicURL}/{bucket}/{key}.
func NewGateway(store storage.Storage, publicURL string, audio, image Policy) *Gateway {
	return &Gateway{
		store:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
		policies: map[string]Policy{
			capture.KindAudio: audio,
			capture.KindImage: image,
		},
		now: time.Now,
	}
}

// NormalizeMediaType strips any transport parameters after the type/subtype
// (e.g. "audio/webm;codecs=opus" -> "audio/webm") and lowercases the result.
func NormalizeMediaType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// Upload validates and transmits one blob. ownerID may be empty for
// unauthenticated submissions; the destination key then carries a temp
// marker instead.
func (g *Gateway) Upload(ctx context.Context, data []byte, mediaType, kind, ownerID string) (string, error) {
	policy, ok := g.policies[kind]
	if !ok {
		return "", capture.NewError(capture.CodeUnexpected, fmt.Sprintf("unknown upload kind %q", kind))
	}

	normalized := NormalizeMediaType(mediaType)
	ext, recognized := policy.Whitelist[normalized]
	if !recognized {
		if kind == capture.KindAudio && strings.HasPrefix(normalized, "audio/") {
			normalized = fallbackAudioType
			ext = policy.Whitelist[fallbackAudioType]
		} else {
			return "", capture.NewError(capture.CodeInvalidMediaType,
				fmt.Sprintf("media type %q is not allowed for %s uploads", normalized, kind))
		}
	}

	if int64(len(data)) > policy.MaxBytes {
		return "", capture.NewError(capture.CodeFileTooLarge,
			fmt.Sprintf("%s blob exceeds the %d byte limit", kind, policy.MaxBytes))
	}

	ts := g.now().UTC().UnixMilli()
	owner := ownerID
	if owner == "" {
		owner = fmt.Sprintf("temp-%d", ts)
	}
	key := fmt.Sprintf("%s/%s-%d.%s", policy.KeyPrefix, owner, ts, ext)

	_, err := g.store.Put(ctx, policy.Bucket, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: normalized,
	})
	if err != nil {
		if errors.Is(err, storage.ErrBucketNotFound) {
			return "", capture.WrapError(capture.CodeDestinationMissing,
				fmt.Sprintf("storage destination %q does not exist", policy.Bucket), err)
		}
		return "", capture.WrapError(capture.CodeTransportFailure, "upload failed", err)
	}

	return fmt.Sprintf("%s/%s/%s", g.publicURL, policy.Bucket, key), nil
}

// Discard removes a previously uploaded blob by the URL Upload returned.
// Submission rollback uses it so failed submits do not orphan media.
func (g *Gateway) Discard(ctx context.Context, url string) error {
	rest := strings.TrimPrefix(url, g.publicURL+"/")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || rest == url {
		return capture.NewError(capture.CodeUnexpected, fmt.Sprintf("url %q is not served by this gateway", url))
	}
	if err := g.store.Delete(ctx, bucket, key); err != nil {
		return capture.WrapError(capture.CodeTransportFailure, "discard upload", err)
	}
	return nil
}
