// Package wallet loads account descriptors from JSON files. Accounts with
// no usable secret are passive: they can be watched and reconciled but not
// used to submit transactions.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrAccountNotFound is returned when no account file matches the requested
// name.
var ErrAccountNotFound = errors.New("wallet: account not found")

// placeholderSecret marks an account file deliberately stripped of its
// secret.
const placeholderSecret = "bogus"

// Account describes one ledger account.
type Account struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
	Secret  string `json:"secret,omitempty"`
}

// Passive reports whether the account carries no usable secret and can only
// be observed.
func (a Account) Passive() bool {
	return a.Secret == "" || a.Secret == placeholderSecret
}

func (a Account) validate() error {
	if a.Address == "" {
		return errors.New("wallet: account file missing address")
	}
	if !strings.HasPrefix(a.Address, "r") {
		return fmt.Errorf("wallet: %q is not a ledger address", a.Address)
	}
	return nil
}

// FileFactory resolves account names to JSON files under a base directory.
type FileFactory struct {
	dir string
}

// NewFileFactory returns a factory rooted at dir. An empty dir resolves
// names relative to the working directory only.
func NewFileFactory(dir string) *FileFactory {
	return &FileFactory{dir: dir}
}

// Load resolves name to an account file and decodes it. The name is tried
// as given, with a .json suffix, and under the factory's base directory in
// the same two forms, in that order.
func (f *FileFactory) Load(name string) (Account, error) {
	for _, path := range f.candidates(name) {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Account{}, fmt.Errorf("wallet: read %s: %w", path, err)
		}
		var acct Account
		if err := json.Unmarshal(data, &acct); err != nil {
			return Account{}, fmt.Errorf("wallet: decode %s: %w", path, err)
		}
		if acct.Name == "" {
			acct.Name = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		if err := acct.validate(); err != nil {
			return Account{}, err
		}
		return acct, nil
	}
	return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
}

// LoadAll loads every name in order, failing on the first miss.
func (f *FileFactory) LoadAll(names []string) ([]Account, error) {
	out := make([]Account, 0, len(names))
	for _, name := range names {
		acct, err := f.Load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}

// Save writes the account to <dir>/<name>.json, creating the directory when
// missing. The file is written private since it may carry a secret.
func (f *FileFactory) Save(acct Account) error {
	if err := acct.validate(); err != nil {
		return err
	}
	if acct.Name == "" {
		return errors.New("wallet: cannot save an unnamed account")
	}
	dir := f.dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("wallet: create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(acct, "", "  ")
	if err != nil {
		return fmt.Errorf("wallet: encode %s: %w", acct.Name, err)
	}
	path := filepath.Join(dir, acct.Name+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("wallet: write %s: %w", path, err)
	}
	return nil
}

func (f *FileFactory) candidates(name string) []string {
	paths := []string{name, name + ".json"}
	if f.dir != "" {
		paths = append(paths, filepath.Join(f.dir, name), filepath.Join(f.dir, name+".json"))
	}
	return paths
}

// Addresses extracts the address of each account, preserving order.
func Addresses(accounts []Account) []string {
	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = a.Address
	}
	return out
}
