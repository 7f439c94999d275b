// Package envsync moves environment variables between the local
// supabase/.env file and a remote env store.
package envsync

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bsmartlabs/supa/internal/config"
	"github.com/bsmartlabs/supa/internal/dotenv"
	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/fsx"
)

var (
	readFileFn  = os.ReadFile
	writeFileFn = fsx.AtomicWriteFile
)

// ErrNoLocalFile is returned by push when supabase/.env does not exist.
var ErrNoLocalFile = errors.New("no local env file")

type Service struct {
	store envstore.ProjectStore
	root  string
	log   *slog.Logger
}

// New returns a Service for the project rooted at root.
func New(store envstore.ProjectStore, root string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, root: root, log: log}
}

// LocalPath is the absolute path of the project's .env file.
func (s *Service) LocalPath() (string, error) {
	path, err := config.ResolveFile(s.root, filepath.Join(config.DirName, dotenv.DefaultFileName))
	if err != nil {
		return "", fmt.Errorf("resolve local env file: %w", err)
	}
	return path, nil
}

func (s *Service) readLocal() (string, []byte, bool, error) {
	path, err := s.LocalPath()
	if err != nil {
		return "", nil, false, err
	}
	raw, err := readFileFn(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return path, nil, false, nil
		}
		return path, nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return path, raw, true, nil
}
