package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"

	"minview/internal/datadir"
)

// authorizedKeyLine returns a fresh ed25519 key in authorized_keys format
func authorizedKeyLine(t *testing.T, comment string) (string, gossh.PublicKey) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := gossh.NewPublicKey(pub)
	require.NoError(t, err)
	line := strings.TrimSpace(string(gossh.MarshalAuthorizedKey(sshPub))) + " " + comment
	return line, sshPub
}

func TestAddListRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssh", "authorized_keys")
	line1, pub1 := authorizedKeyLine(t, "alice@lab")
	line2, _ := authorizedKeyLine(t, "bob@lab")

	fp1, err := AddAuthorizedKey(path, line1)
	require.NoError(t, err)
	assert.Equal(t, gossh.FingerprintSHA256(pub1), fp1)
	_, err = AddAuthorizedKey(path, line2+"\n")
	require.NoError(t, err)

	_, err = AddAuthorizedKey(path, line1)
	assert.Error(t, err, "duplicate key")

	entries, err := ListAuthorizedKeys(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice@lab", entries[0].Comment)
	assert.Equal(t, fp1, entries[0].Fingerprint)

	keys, err := LoadAuthorizedKeys(path)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	require.NoError(t, RemoveAuthorizedKey(path, fp1))
	entries, err = ListAuthorizedKeys(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob@lab", entries[0].Comment)

	assert.ErrorIs(t, RemoveAuthorizedKey(path, fp1), ErrKeyNotFound)
}

func TestAddAuthorizedKey_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	_, err := AddAuthorizedKey(path, "ssh-ed25519 not-base64")
	assert.Error(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveAuthorizedKey_KeepsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	line, pub := authorizedKeyLine(t, "carol")
	content := "# lab keys\n" + line + "\nnot a key\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	require.NoError(t, RemoveAuthorizedKey(path, gossh.FingerprintSHA256(pub)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# lab keys\nnot a key\n", string(data))
}

func TestInitSSHKeys(t *testing.T) {
	root := t.TempDir()
	t.Setenv(datadir.EnvVar, root)

	hostKey, authKeys, err := InitSSHKeys("", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "ssh", "ssh_host_key"), hostKey)
	assert.Equal(t, filepath.Join(root, "ssh", "authorized_keys"), authKeys)

	data, err := os.ReadFile(authKeys)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#"))

	entries, err := ListAuthorizedKeys("")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadAuthorizedKeys_Missing(t *testing.T) {
	_, err := LoadAuthorizedKeys(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
