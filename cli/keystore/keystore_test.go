package keystore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileKeystoreSetAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")

	ks, err := NewFileKeystore(path)
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}

	if err := ks.Set("promptql", "pql-test-key-12345"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := ks.Get("promptql")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if value != "pql-test-key-12345" {
		t.Errorf("Get() = %q, want pql-test-key-12345", value)
	}
}

func TestFileKeystoreGetNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")

	ks, err := NewFileKeystore(path)
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}

	_, err = ks.Get("nonexistent")
	if err == nil {
		t.Fatal("Get() should return error for nonexistent key")
	}

	if _, ok := err.(*ErrKeyNotFound); !ok {
		t.Errorf("Get() error type = %T, want *ErrKeyNotFound", err)
	}
}

func TestFileKeystoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")

	ks, err := NewFileKeystore(path)
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}

	if err := ks.Set("anthropic", "sk-ant-test"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := ks.Delete("anthropic"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err = ks.Get("anthropic")
	if _, ok := err.(*ErrKeyNotFound); !ok {
		t.Error("Get() should return ErrKeyNotFound after Delete()")
	}
}

func TestFileKeystoreDeleteNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")

	ks, err := NewFileKeystore(path)
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}

	err = ks.Delete("nonexistent")
	if _, ok := err.(*ErrKeyNotFound); !ok {
		t.Errorf("Delete() error type = %T, want *ErrKeyNotFound", err)
	}
}

func TestFileKeystoreList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")

	ks, err := NewFileKeystore(path)
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("empty keystore List() = %v, want none", names)
	}

	for _, name := range []string{"promptql", "anthropic", "openai"} {
		if err := ks.Set(name, "key-"+name); err != nil {
			t.Fatalf("Set(%s) error = %v", name, err)
		}
	}

	names, err = ks.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	// Sorted order
	want := []string{"anthropic", "openai", "promptql"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFileKeystorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")

	ks, err := NewFileKeystore(path)
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}
	if err := ks.Set("promptql", "pql-persisted"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// A fresh keystore on the same path sees the value.
	ks2, err := NewFileKeystore(path)
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}
	value, err := ks2.Get("promptql")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "pql-persisted" {
		t.Errorf("Get() = %q, want pql-persisted", value)
	}
}

func TestFileKeystoreEncryptedOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")

	ks, err := NewFileKeystore(path)
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}
	if err := ks.Set("promptql", "pql-plaintext-check"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading keystore file: %v", err)
	}

	if string(raw[:len(magicHeader)]) != magicHeader {
		t.Errorf("file header = %q, want %q", raw[:len(magicHeader)], magicHeader)
	}
	if bytes.Contains(raw, []byte("pql-plaintext-check")) {
		t.Error("key value stored in plaintext")
	}
}

func TestFileKeystoreWrongMasterKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")

	ks := NewFileKeystoreWithKey(path, []byte("master-key-one"))
	if err := ks.Set("promptql", "secret"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	wrong := NewFileKeystoreWithKey(path, []byte("master-key-two"))
	if _, err := wrong.Get("promptql"); err == nil {
		t.Error("Get() with the wrong master key should fail")
	}
}

func TestFileKeystoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")
	if err := os.WriteFile(path, []byte("not a keystore"), 0600); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	ks, err := NewFileKeystore(path)
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}
	if _, err := ks.Get("promptql"); err == nil {
		t.Error("Get() on a corrupt file should fail")
	}
}
