package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/tencentyun/cos-go-sdk-v5"

	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/model"
	"dwellwatch/internal/repository"
)

const (
	putRetries    = 3
	retryInterval = 200 * time.Millisecond
)

// COSStore keeps evidence in a Tencent Cloud Object Storage bucket: the frame
// under <prefix>/<ref>.jpg and its metadata under <prefix>/<ref>.json.
type COSStore struct {
	client *cos.Client
	prefix string
	logger *logger.Logger
}

// NewCOSStore creates a COS client for the configured bucket.
func NewCOSStore(config *config.Config, logger *logger.Logger) (*COSStore, error) {
	u, err := url.Parse(config.COS.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bucket url: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Timeout: 30 * time.Second,
		Transport: &cos.AuthorizationTransport{
			SecretID:  config.COS.SecretID,
			SecretKey: config.COS.SecretKey,
		},
	})

	return &COSStore{
		client: client,
		prefix: config.COS.Prefix,
		logger: logger,
	}, nil
}

func (s *COSStore) key(ref, ext string) string {
	return path.Join(s.prefix, ref+ext)
}

// Put uploads the frame and its metadata sidecar and returns the reference.
func (s *COSStore) Put(ctx context.Context, in model.EvidenceInput) (string, error) {
	if len(in.Frame.Image) == 0 {
		return "", repository.Wrap("save evidence", repository.ErrConstraintViolation, errors.New("empty frame"))
	}

	ref := newRef(in.IdentityID)
	meta, err := json.Marshal(model.Evidence{
		Ref:            ref,
		Source:         in.Source,
		IdentityID:     in.IdentityID,
		FrameIndex:     in.Frame.Index,
		FrameTimestamp: in.Frame.Timestamp,
		Detections:     in.Detections,
		ContentType:    contentTypeJPEG,
		Size:           int64(len(in.Frame.Image)),
		CreatedAt:      time.Now(),
	})
	if err != nil {
		return "", repository.Wrap("encode evidence metadata", repository.ErrConstraintViolation, err)
	}

	if err := s.put(ctx, s.key(ref, ".jpg"), in.Frame.Image, contentTypeJPEG); err != nil {
		return "", err
	}
	if err := s.put(ctx, s.key(ref, ".json"), meta, "application/json"); err != nil {
		if _, delErr := s.client.Object.Delete(context.WithoutCancel(ctx), s.key(ref, ".jpg")); delErr != nil {
			s.logger.Warning("Failed to remove orphaned evidence image %s: %v", ref, delErr)
		}
		return "", err
	}

	s.logger.Info("Uploaded evidence %s for identity %d from %s", ref, in.IdentityID, in.Source)
	return ref, nil
}

// put uploads one object, retrying transient failures with a fresh reader per attempt.
func (s *COSStore) put(ctx context.Context, key string, data []byte, contentType string) error {
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: contentType,
		},
	}

	var err error
	for retryTime := 0; retryTime < putRetries; retryTime++ {
		_, err = s.client.Object.Put(ctx, key, bytes.NewReader(data), opt)
		if err == nil {
			return nil
		}

		err = classifyCOS("put "+key, err)
		if !errors.Is(err, repository.ErrStorageUnavailable) || ctx.Err() != nil {
			return err
		}
		s.logger.Warning("Upload of %s failed (attempt %d/%d): %v", key, retryTime+1, putRetries, err)

		select {
		case <-ctx.Done():
			return repository.Wrap("put "+key, repository.ErrStorageUnavailable, ctx.Err())
		case <-time.After(retryInterval * time.Duration(retryTime+1)):
		}
	}
	return err
}

// Get downloads the metadata sidecar and the frame for a reference.
func (s *COSStore) Get(ctx context.Context, ref string) (*model.Evidence, error) {
	if !validRef(ref) {
		return nil, repository.Wrap("get evidence", repository.ErrNotFound, fmt.Errorf("invalid ref %q", ref))
	}

	meta, err := s.get(ctx, s.key(ref, ".json"))
	if err != nil {
		return nil, err
	}

	var ev model.Evidence
	if err := json.Unmarshal(meta, &ev); err != nil {
		return nil, repository.Wrap("decode evidence metadata", repository.ErrStorageIO, err)
	}

	ev.Image, err = s.get(ctx, s.key(ref, ".jpg"))
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *COSStore) get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		return nil, classifyCOS("get "+key, err)
	}
	defer resp.Body.Close()

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, repository.Wrap("read "+key, repository.ErrStorageIO, err)
	}
	return bs, nil
}

// classifyCOS maps SDK and transport errors onto the storage taxonomy.
func classifyCOS(op string, err error) error {
	var cosErr *cos.ErrorResponse
	if errors.As(err, &cosErr) && cosErr.Response != nil {
		status := cosErr.Response.StatusCode
		switch {
		case status == http.StatusNotFound:
			return repository.Wrap(op, repository.ErrNotFound, err)
		case status == http.StatusTooManyRequests || status >= 500:
			return repository.Wrap(op, repository.ErrStorageUnavailable, err)
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return repository.Wrap(op, repository.ErrStorageUnavailable, err)
		case status >= 400:
			return repository.Wrap(op, repository.ErrConstraintViolation, err)
		}
		return repository.Wrap(op, repository.ErrStorageIO, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || repository.IsContextError(err) {
		return repository.Wrap(op, repository.ErrStorageUnavailable, err)
	}
	return repository.Wrap(op, repository.ErrStorageIO, err)
}
