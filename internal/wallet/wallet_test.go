package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeAccount(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadByBaseName(t *testing.T) {
	dir := t.TempDir()
	writeAccount(t, dir, "trader.json",
		`{"address":"rAliceXoKpH4LEB7WzJqPGRt5Ds5WjS9nx","secret":"sEd7rBGm5kxzauRTAV2hbsNz7N45X91"}`)

	f := NewFileFactory(dir)
	acct, err := f.Load("trader")
	require.NoError(t, err)
	require.Equal(t, "trader", acct.Name)
	require.Equal(t, "rAliceXoKpH4LEB7WzJqPGRt5Ds5WjS9nx", acct.Address)
	require.False(t, acct.Passive())
}

func TestLoadFullPathWinsOverDirectory(t *testing.T) {
	dir := t.TempDir()
	writeAccount(t, dir, "trader.json", `{"address":"rBobzpDdRTxoCgiTFmNDHkzQBMAEMTx9qG"}`)
	direct := writeAccount(t, t.TempDir(), "trader.json", `{"address":"rAliceXoKpH4LEB7WzJqPGRt5Ds5WjS9nx"}`)

	f := NewFileFactory(dir)
	acct, err := f.Load(direct)
	require.NoError(t, err)
	require.Equal(t, "rAliceXoKpH4LEB7WzJqPGRt5Ds5WjS9nx", acct.Address)
}

func TestPassiveAccounts(t *testing.T) {
	dir := t.TempDir()
	writeAccount(t, dir, "watch.json", `{"address":"rBobzpDdRTxoCgiTFmNDHkzQBMAEMTx9qG","secret":"bogus"}`)
	writeAccount(t, dir, "bare.json", `{"address":"rCaro1m9cPSE8jV46QSpsoBqgTxKJrqCmA"}`)

	f := NewFileFactory(dir)
	for _, name := range []string{"watch", "bare"} {
		acct, err := f.Load(name)
		require.NoError(t, err)
		require.True(t, acct.Passive(), name)
	}
}

func TestLoadMissing(t *testing.T) {
	f := NewFileFactory(t.TempDir())
	_, err := f.Load("nobody")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeAccount(t, dir, "garbled.json", `{"address":`)
	writeAccount(t, dir, "noaddr.json", `{"secret":"sEd7rBGm5kxzauRTAV2hbsNz7N45X91"}`)
	writeAccount(t, dir, "notledger.json", `{"address":"0x52908400098527886E0F7030069857D2E4169EE7"}`)

	f := NewFileFactory(dir)
	for _, name := range []string{"garbled", "noaddr", "notledger"} {
		_, err := f.Load(name)
		require.Error(t, err, name)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "accounts")
	f := NewFileFactory(dir)

	want := Account{
		Name:    "trader",
		Address: "rAliceXoKpH4LEB7WzJqPGRt5Ds5WjS9nx",
		Secret:  "sEd7rBGm5kxzauRTAV2hbsNz7N45X91",
	}
	require.NoError(t, f.Save(want))

	info, err := os.Stat(filepath.Join(dir, "trader.json"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := f.Load("trader")
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.Error(t, f.Save(Account{Address: "rAliceXoKpH4LEB7WzJqPGRt5Ds5WjS9nx"}))
}

func TestLoadAllAndAddresses(t *testing.T) {
	dir := t.TempDir()
	writeAccount(t, dir, "a.json", `{"address":"rAliceXoKpH4LEB7WzJqPGRt5Ds5WjS9nx"}`)
	writeAccount(t, dir, "b.json", `{"address":"rBobzpDdRTxoCgiTFmNDHkzQBMAEMTx9qG"}`)

	f := NewFileFactory(dir)
	accounts, err := f.LoadAll([]string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t,
		[]string{"rAliceXoKpH4LEB7WzJqPGRt5Ds5WjS9nx", "rBobzpDdRTxoCgiTFmNDHkzQBMAEMTx9qG"},
		Addresses(accounts))

	_, err = f.LoadAll([]string{"a", "missing"})
	require.ErrorIs(t, err, ErrAccountNotFound)
}
