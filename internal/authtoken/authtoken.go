// Package authtoken locates the management API access token.
package authtoken

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/bsmartlabs/supa/internal/fsx"
)

const (
	EnvVar        = "SUPABASE_ACCESS_TOKEN"
	LocalEnvFile  = "supabase/.env.local"
	TokenDirName  = ".supabase"
	TokenFileName = "access-token"
)

var ErrNotAuthenticated = errors.New("not logged in: run `supa login` or set " + EnvVar)

type Source string

const (
	SourceEnv      Source = "environment"
	SourceDotenv   Source = LocalEnvFile
	SourceTokenDir Source = "token file"
)

type Token struct {
	Value  string
	Source Source
}

var (
	getenvFn      = os.Getenv
	userHomeDirFn = os.UserHomeDir
	readDotenvFn  = godotenv.Read
	readFileFn    = os.ReadFile
	removeFn      = os.Remove
	writeFileFn   = fsx.AtomicWriteFile
)

// Resolve returns the first token found in the process environment, the
// project's supabase/.env.local, then ~/.supabase/access-token. projectRoot
// may be empty when no project is in scope.
func Resolve(projectRoot string) (Token, error) {
	if v := strings.TrimSpace(getenvFn(EnvVar)); v != "" {
		return Token{Value: v, Source: SourceEnv}, nil
	}

	if projectRoot != "" {
		vals, err := readDotenvFn(filepath.Join(projectRoot, LocalEnvFile))
		switch {
		case err == nil:
			if v := strings.TrimSpace(vals[EnvVar]); v != "" {
				return Token{Value: v, Source: SourceDotenv}, nil
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Token{}, fmt.Errorf("read %s: %w", LocalEnvFile, err)
		}
	}

	path, err := TokenPath()
	if err != nil {
		return Token{}, ErrNotAuthenticated
	}
	raw, err := readFileFn(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Token{}, ErrNotAuthenticated
		}
		return Token{}, fmt.Errorf("read token file: %w", err)
	}
	if v := strings.TrimSpace(string(raw)); v != "" {
		return Token{Value: v, Source: SourceTokenDir}, nil
	}
	return Token{}, ErrNotAuthenticated
}

func TokenPath() (string, error) {
	home, err := userHomeDirFn()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, TokenDirName, TokenFileName), nil
}

// Save stores token in the token file with owner-only permissions.
func Save(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("token is empty")
	}
	path, err := TokenPath()
	if err != nil {
		return "", err
	}
	if err := writeFileFn(path, []byte(token+"\n"), 0o600, true); err != nil {
		return "", fmt.Errorf("write token file: %w", err)
	}
	return path, nil
}

// Delete removes the token file. It reports whether a file was removed.
func Delete() (bool, error) {
	path, err := TokenPath()
	if err != nil {
		return false, err
	}
	if err := removeFn(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove token file: %w", err)
	}
	return true, nil
}
