package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func writeKeyPair(t *testing.T, dir string, priv *rsa.PrivateKey, pub *rsa.PublicKey) (string, string) {
	t.Helper()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		t.Fatalf("write private key: %v", err)
	}
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		t.Fatalf("write public key: %v", err)
	}
	return privPath, pubPath
}

func TestLoadRSAKeys(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	privPath, pubPath := writeKeyPair(t, t.TempDir(), priv, &priv.PublicKey)

	gotPriv, gotPub, err := LoadRSAKeys(privPath, pubPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if gotPriv.N.Cmp(priv.N) != 0 || gotPub.N.Cmp(priv.N) != 0 {
		t.Fatal("loaded keys do not match generated pair")
	}
}

func TestLoadRSAKeysFailures(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate other key: %v", err)
	}
	dir := t.TempDir()
	privPath, mismatchedPub := writeKeyPair(t, dir, priv, &other.PublicKey)

	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	cases := map[string][2]string{
		"missing private": {filepath.Join(dir, "absent.pem"), mismatchedPub},
		"malformed":       {garbage, mismatchedPub},
		"mismatched pair": {privPath, mismatchedPub},
	}
	for name, paths := range cases {
		if _, _, err := LoadRSAKeys(paths[0], paths[1]); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
