package scaleway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	secret "github.com/scaleway/scaleway-sdk-go/api/secret/v1beta1"
	"github.com/scaleway/scaleway-sdk-go/scw"

	"github.com/bsmartlabs/supa/internal/config"
)

type fakeScalewaySDK struct {
	listFn          func(*secret.ListSecretsRequest, ...scw.RequestOption) (*secret.ListSecretsResponse, error)
	accessFn        func(*secret.AccessSecretVersionRequest, ...scw.RequestOption) (*secret.AccessSecretVersionResponse, error)
	createSecretFn  func(*secret.CreateSecretRequest, ...scw.RequestOption) (*secret.Secret, error)
	createVersionFn func(*secret.CreateSecretVersionRequest, ...scw.RequestOption) (*secret.SecretVersion, error)
	deleteFn        func(*secret.DeleteSecretRequest, ...scw.RequestOption) error
}

func (f *fakeScalewaySDK) ListSecrets(req *secret.ListSecretsRequest, opts ...scw.RequestOption) (*secret.ListSecretsResponse, error) {
	return f.listFn(req, opts...)
}

func (f *fakeScalewaySDK) AccessSecretVersion(req *secret.AccessSecretVersionRequest, opts ...scw.RequestOption) (*secret.AccessSecretVersionResponse, error) {
	return f.accessFn(req, opts...)
}

func (f *fakeScalewaySDK) CreateSecret(req *secret.CreateSecretRequest, opts ...scw.RequestOption) (*secret.Secret, error) {
	return f.createSecretFn(req, opts...)
}

func (f *fakeScalewaySDK) CreateSecretVersion(req *secret.CreateSecretVersionRequest, opts ...scw.RequestOption) (*secret.SecretVersion, error) {
	return f.createVersionFn(req, opts...)
}

func (f *fakeScalewaySDK) DeleteSecret(req *secret.DeleteSecretRequest, opts ...scw.RequestOption) error {
	return f.deleteFn(req, opts...)
}

func newSDKAPI(f *fakeScalewaySDK) *sdkAPI {
	return &sdkAPI{api: f, region: scw.RegionFrPar, projectID: "p"}
}

func TestSDKAPI_ListSecrets(t *testing.T) {
	t.Run("APIError", func(t *testing.T) {
		api := newSDKAPI(&fakeScalewaySDK{
			listFn: func(*secret.ListSecretsRequest, ...scw.RequestOption) (*secret.ListSecretsResponse, error) {
				return nil, errors.New("boom")
			},
		})
		if _, err := api.ListSecrets(context.Background(), "/supabase/ref", ""); err == nil || !strings.Contains(err.Error(), "list secrets") {
			t.Fatalf("expected wrapped error, got %v", err)
		}
	})

	t.Run("Success", func(t *testing.T) {
		api := newSDKAPI(&fakeScalewaySDK{
			listFn: func(req *secret.ListSecretsRequest, _ ...scw.RequestOption) (*secret.ListSecretsResponse, error) {
				if req.ProjectID == nil || *req.ProjectID != "p" {
					t.Fatalf("unexpected project id: %#v", req.ProjectID)
				}
				if req.Path == nil || *req.Path != "/supabase/ref" {
					t.Fatalf("unexpected path: %#v", req.Path)
				}
				if req.Name == nil || *req.Name != "preview" {
					t.Fatalf("unexpected name: %#v", req.Name)
				}
				if req.Type != secret.SecretTypeOpaque || req.Region != scw.RegionFrPar {
					t.Fatalf("unexpected request: %#v", req)
				}
				return &secret.ListSecretsResponse{Secrets: []*secret.Secret{
					nil,
					{ID: "s1", Name: "preview", Path: "/supabase/ref"},
				}}, nil
			},
		})
		got, err := api.ListSecrets(context.Background(), "/supabase/ref", "preview")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0] != (secretRecord{ID: "s1", Name: "preview", Path: "/supabase/ref"}) {
			t.Fatalf("unexpected records: %#v", got)
		}
	})

	t.Run("NoFilters", func(t *testing.T) {
		api := newSDKAPI(&fakeScalewaySDK{
			listFn: func(req *secret.ListSecretsRequest, _ ...scw.RequestOption) (*secret.ListSecretsResponse, error) {
				if req.Path != nil || req.Name != nil {
					t.Fatalf("expected no filters, got %#v", req)
				}
				return &secret.ListSecretsResponse{}, nil
			},
		})
		if _, err := api.ListSecrets(context.Background(), "", ""); err != nil {
			t.Fatalf("list: %v", err)
		}
	})
}

func TestSDKAPI_AccessLatest(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		api := newSDKAPI(&fakeScalewaySDK{
			accessFn: func(*secret.AccessSecretVersionRequest, ...scw.RequestOption) (*secret.AccessSecretVersionResponse, error) {
				return nil, &scw.ResourceNotFoundError{Resource: "secret_version", ResourceID: "latest_enabled"}
			},
		})
		if _, err := api.AccessLatest(context.Background(), "s1"); !errors.Is(err, errNoVersion) {
			t.Fatalf("expected errNoVersion, got %v", err)
		}
	})

	t.Run("APIError", func(t *testing.T) {
		api := newSDKAPI(&fakeScalewaySDK{
			accessFn: func(*secret.AccessSecretVersionRequest, ...scw.RequestOption) (*secret.AccessSecretVersionResponse, error) {
				return nil, errors.New("boom")
			},
		})
		_, err := api.AccessLatest(context.Background(), "s1")
		if err == nil || errors.Is(err, errNoVersion) {
			t.Fatalf("expected plain error, got %v", err)
		}
	})

	t.Run("Success", func(t *testing.T) {
		api := newSDKAPI(&fakeScalewaySDK{
			accessFn: func(req *secret.AccessSecretVersionRequest, _ ...scw.RequestOption) (*secret.AccessSecretVersionResponse, error) {
				if req.SecretID != "s1" || req.Revision != revisionLatestEnabled {
					t.Fatalf("unexpected request: %#v", req)
				}
				return &secret.AccessSecretVersionResponse{Data: []byte(`{"variables":[]}`)}, nil
			},
		})
		data, err := api.AccessLatest(context.Background(), "s1")
		if err != nil || string(data) != `{"variables":[]}` {
			t.Fatalf("unexpected result: %q %v", data, err)
		}
	})
}

func TestSDKAPI_Writes(t *testing.T) {
	var created *secret.CreateSecretRequest
	var version *secret.CreateSecretVersionRequest
	var deleted *secret.DeleteSecretRequest
	api := newSDKAPI(&fakeScalewaySDK{
		createSecretFn: func(req *secret.CreateSecretRequest, _ ...scw.RequestOption) (*secret.Secret, error) {
			created = req
			return &secret.Secret{ID: "new", Name: req.Name, Path: *req.Path}, nil
		},
		createVersionFn: func(req *secret.CreateSecretVersionRequest, _ ...scw.RequestOption) (*secret.SecretVersion, error) {
			version = req
			return &secret.SecretVersion{}, nil
		},
		deleteFn: func(req *secret.DeleteSecretRequest, _ ...scw.RequestOption) error {
			deleted = req
			return nil
		},
	})

	rec, err := api.CreateSecret(context.Background(), "staging", "/supabase/ref")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID != "new" || created.ProjectID != "p" || created.Type != secret.SecretTypeOpaque {
		t.Fatalf("unexpected create: %#v %#v", rec, created)
	}

	if err := api.CreateSecretVersion(context.Background(), "new", []byte("x")); err != nil {
		t.Fatalf("version: %v", err)
	}
	if version.DisablePrevious == nil || !*version.DisablePrevious || string(version.Data) != "x" {
		t.Fatalf("unexpected version request: %#v", version)
	}

	if err := api.DeleteSecret(context.Background(), "new"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.SecretID != "new" || deleted.Region != scw.RegionFrPar {
		t.Fatalf("unexpected delete request: %#v", deleted)
	}
}

func TestSDKAPI_PassesRequestOptions(t *testing.T) {
	ctx := context.Background()
	check := func(name string, opts []scw.RequestOption, want int) {
		t.Helper()
		if len(opts) != want {
			t.Fatalf("%s: expected %d request options, got %d", name, want, len(opts))
		}
	}
	api := newSDKAPI(&fakeScalewaySDK{
		listFn: func(_ *secret.ListSecretsRequest, opts ...scw.RequestOption) (*secret.ListSecretsResponse, error) {
			check("list", opts, 2)
			return &secret.ListSecretsResponse{}, nil
		},
		accessFn: func(_ *secret.AccessSecretVersionRequest, opts ...scw.RequestOption) (*secret.AccessSecretVersionResponse, error) {
			check("access", opts, 1)
			return &secret.AccessSecretVersionResponse{}, nil
		},
		createSecretFn: func(req *secret.CreateSecretRequest, opts ...scw.RequestOption) (*secret.Secret, error) {
			check("create", opts, 1)
			return &secret.Secret{ID: "s1"}, nil
		},
		createVersionFn: func(_ *secret.CreateSecretVersionRequest, opts ...scw.RequestOption) (*secret.SecretVersion, error) {
			check("version", opts, 1)
			return &secret.SecretVersion{}, nil
		},
		deleteFn: func(_ *secret.DeleteSecretRequest, opts ...scw.RequestOption) error {
			check("delete", opts, 1)
			return nil
		},
	})
	if _, err := api.ListSecrets(ctx, "/supabase/ref", ""); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := api.AccessLatest(ctx, "s1"); err != nil {
		t.Fatalf("access: %v", err)
	}
	if _, err := api.CreateSecret(ctx, "a", "/supabase/ref"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := api.CreateSecretVersion(ctx, "s1", nil); err != nil {
		t.Fatalf("version: %v", err)
	}
	if err := api.DeleteSecret(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSDKAPI_WriteErrors(t *testing.T) {
	boom := errors.New("boom")
	api := newSDKAPI(&fakeScalewaySDK{
		createSecretFn: func(*secret.CreateSecretRequest, ...scw.RequestOption) (*secret.Secret, error) {
			return nil, boom
		},
		createVersionFn: func(*secret.CreateSecretVersionRequest, ...scw.RequestOption) (*secret.SecretVersion, error) {
			return nil, boom
		},
		deleteFn: func(*secret.DeleteSecretRequest, ...scw.RequestOption) error {
			return boom
		},
	})
	if _, err := api.CreateSecret(context.Background(), "a", "/p"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := api.CreateSecretVersion(context.Background(), "a", nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := api.DeleteSecret(context.Background(), "a"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	base := config.EnvStoreConfig{
		Provider:  config.EnvStoreScaleway,
		ProjectID: "00000000-0000-0000-0000-000000000000",
		Region:    "fr-par",
	}

	t.Run("InvalidRegion", func(t *testing.T) {
		cfg := base
		cfg.Region = "nope"
		if _, err := Open(cfg, ""); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("Env", func(t *testing.T) {
		t.Setenv("SCW_ACCESS_KEY", "SCW1234567890ABCDEFG")                 // gitleaks:allow
		t.Setenv("SCW_SECRET_KEY", "00000000-0000-0000-0000-000000000000") // gitleaks:allow
		store, err := Open(base, "")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if store == nil {
			t.Fatalf("expected store")
		}
	})

	t.Run("NewClientError", func(t *testing.T) {
		t.Setenv("SCW_ACCESS_KEY", "SCW1234567890ABCDEFG")                 // gitleaks:allow
		t.Setenv("SCW_SECRET_KEY", "00000000-0000-0000-0000-000000000000") // gitleaks:allow
		cfg := base
		cfg.OrganizationID = "not-a-uuid"
		_, err := Open(cfg, "")
		if err == nil || !strings.Contains(err.Error(), "create scaleway client") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ProfileMissingConfig", func(t *testing.T) {
		t.Setenv("SCW_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
		cfg := base
		cfg.Profile = "p1"
		if _, err := Open(cfg, ""); err == nil {
			t.Fatalf("expected error")
		}
	})

	writeSCWConfig := func(t *testing.T, profile string) {
		t.Helper()
		cfgPath := filepath.Join(t.TempDir(), "config.yaml")
		yaml := strings.TrimSpace(`
access_key: SCW1234567890ABCDEFG # gitleaks:allow
secret_key: 00000000-0000-0000-0000-000000000000 # gitleaks:allow
default_organization_id: 00000000-0000-0000-0000-000000000000
default_project_id: 00000000-0000-0000-0000-000000000000
default_region: fr-par
profiles:
  `+profile+`:
    access_key: SCW234567890ABCDEFGH # gitleaks:allow
    secret_key: 22222222-2222-2222-2222-222222222222 # gitleaks:allow
    default_region: fr-par
`) + "\n"
		if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
			t.Fatalf("write scw config: %v", err)
		}
		t.Setenv("SCW_CONFIG_PATH", cfgPath)
	}

	t.Run("GetProfileError", func(t *testing.T) {
		writeSCWConfig(t, "p1")
		cfg := base
		cfg.Profile = "missing"
		_, err := Open(cfg, "")
		if err == nil || !strings.Contains(err.Error(), "get scaleway profile") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ProfileOverrideWins", func(t *testing.T) {
		writeSCWConfig(t, "p2")
		cfg := base
		cfg.Profile = "missing"
		if _, err := Open(cfg, "p2"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	})
}
