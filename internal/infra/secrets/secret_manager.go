package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

type accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Secret Manager から最新版のシークレットを読む
type SecretManagerSource struct {
	client    accessor
	closer    func() error
	projectID string
}

func NewSecretManagerSource(ctx context.Context, projectID string) (*SecretManagerSource, error) {
	prj := strings.TrimSpace(projectID)
	if prj == "" {
		return nil, errors.New("secrets: projectID is empty")
	}
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets: new client: %w", err)
	}
	return &SecretManagerSource{client: c, closer: c.Close, projectID: prj}, nil
}

// key は環境変数名。STRIPE_SECRET_KEY -> stripe-secret-key
func (s *SecretManagerSource) Lookup(ctx context.Context, key string) (string, error) {
	name := "projects/" + s.projectID + "/secrets/" + SecretName(key) + "/versions/latest"
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("secrets: access %s: %w", name, err)
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("secrets: empty payload (%s)", name)
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}

func (s *SecretManagerSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func SecretName(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "_", "-")
}
