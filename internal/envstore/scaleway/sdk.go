// Package scaleway stores project environments as Scaleway Secret Manager
// secrets, one secret per environment and one per branch override.
package scaleway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secret "github.com/scaleway/scaleway-sdk-go/api/secret/v1beta1"
	"github.com/scaleway/scaleway-sdk-go/scw"

	"github.com/bsmartlabs/supa/internal/config"
)

const revisionLatestEnabled = "latest_enabled"

var errNoVersion = errors.New("secret has no enabled version")

// Open builds a Store from the env_store section of config.json. Credentials
// come from SCW_* variables, overridden by the named Scaleway profile.
func Open(cfg config.EnvStoreConfig, profileOverride string) (*Store, error) {
	profileName := strings.TrimSpace(profileOverride)
	if profileName == "" {
		profileName = strings.TrimSpace(cfg.Profile)
	}

	region, err := scw.ParseRegion(cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("invalid region %q: %w", cfg.Region, err)
	}

	opts := []scw.ClientOption{scw.WithEnv()}
	if profileName != "" {
		scwCfg, err := scw.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("load scaleway config: %w", err)
		}
		prof, err := scwCfg.GetProfile(profileName)
		if err != nil {
			return nil, fmt.Errorf("get scaleway profile %q: %w", profileName, err)
		}
		opts = append(opts, scw.WithProfile(prof))
	}

	if cfg.OrganizationID != "" {
		opts = append(opts, scw.WithDefaultOrganizationID(cfg.OrganizationID))
	}
	opts = append(opts,
		scw.WithDefaultProjectID(cfg.ProjectID),
		scw.WithDefaultRegion(region),
	)

	client, err := scw.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scaleway client: %w", err)
	}

	return New(&sdkAPI{api: secret.NewAPI(client), region: region, projectID: cfg.ProjectID}), nil
}

type scalewaySecretSDK interface {
	ListSecrets(req *secret.ListSecretsRequest, opts ...scw.RequestOption) (*secret.ListSecretsResponse, error)
	AccessSecretVersion(req *secret.AccessSecretVersionRequest, opts ...scw.RequestOption) (*secret.AccessSecretVersionResponse, error)
	CreateSecret(req *secret.CreateSecretRequest, opts ...scw.RequestOption) (*secret.Secret, error)
	CreateSecretVersion(req *secret.CreateSecretVersionRequest, opts ...scw.RequestOption) (*secret.SecretVersion, error)
	DeleteSecret(req *secret.DeleteSecretRequest, opts ...scw.RequestOption) error
}

type secretRecord struct {
	ID   string
	Name string
	Path string
}

// secretAPI is the slice of Secret Manager the store needs, already scoped to
// one region and Scaleway project.
type secretAPI interface {
	ListSecrets(ctx context.Context, path, name string) ([]secretRecord, error)
	AccessLatest(ctx context.Context, secretID string) ([]byte, error)
	CreateSecret(ctx context.Context, name, path string) (secretRecord, error)
	CreateSecretVersion(ctx context.Context, secretID string, data []byte) error
	DeleteSecret(ctx context.Context, secretID string) error
}

type sdkAPI struct {
	api       scalewaySecretSDK
	region    scw.Region
	projectID string
}

func (s *sdkAPI) ListSecrets(ctx context.Context, path, name string) ([]secretRecord, error) {
	req := &secret.ListSecretsRequest{
		Region:               s.region,
		ProjectID:            scw.StringPtr(s.projectID),
		Type:                 secret.SecretTypeOpaque,
		ScheduledForDeletion: false,
	}
	if path != "" {
		req.Path = scw.StringPtr(path)
	}
	if name != "" {
		req.Name = scw.StringPtr(name)
	}
	resp, err := s.api.ListSecrets(req, scw.WithAllPages(), scw.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	out := make([]secretRecord, 0, len(resp.Secrets))
	for _, item := range resp.Secrets {
		if item == nil {
			continue
		}
		out = append(out, secretRecord{ID: item.ID, Name: item.Name, Path: item.Path})
	}
	return out, nil
}

func (s *sdkAPI) AccessLatest(ctx context.Context, secretID string) ([]byte, error) {
	resp, err := s.api.AccessSecretVersion(&secret.AccessSecretVersionRequest{
		Region:   s.region,
		SecretID: secretID,
		Revision: revisionLatestEnabled,
	}, scw.WithContext(ctx))
	if err != nil {
		var notFound *scw.ResourceNotFoundError
		if errors.As(err, &notFound) {
			return nil, errNoVersion
		}
		return nil, fmt.Errorf("access secret version: %w", err)
	}
	return resp.Data, nil
}

func (s *sdkAPI) CreateSecret(ctx context.Context, name, path string) (secretRecord, error) {
	resp, err := s.api.CreateSecret(&secret.CreateSecretRequest{
		Region:    s.region,
		ProjectID: s.projectID,
		Name:      name,
		Tags:      []string{"supa"},
		Type:      secret.SecretTypeOpaque,
		Path:      scw.StringPtr(path),
	}, scw.WithContext(ctx))
	if err != nil {
		return secretRecord{}, fmt.Errorf("create secret: %w", err)
	}
	return secretRecord{ID: resp.ID, Name: resp.Name, Path: resp.Path}, nil
}

func (s *sdkAPI) CreateSecretVersion(ctx context.Context, secretID string, data []byte) error {
	_, err := s.api.CreateSecretVersion(&secret.CreateSecretVersionRequest{
		Region:          s.region,
		SecretID:        secretID,
		Data:            data,
		DisablePrevious: scw.BoolPtr(true),
	}, scw.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create secret version: %w", err)
	}
	return nil
}

func (s *sdkAPI) DeleteSecret(ctx context.Context, secretID string) error {
	if err := s.api.DeleteSecret(&secret.DeleteSecretRequest{Region: s.region, SecretID: secretID}, scw.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete secret: %w", err)
	}
	return nil
}
