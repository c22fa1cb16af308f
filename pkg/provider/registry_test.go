// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"context"
	"testing"
)

type fakeBackend struct{ dir string }

func newFake(_ context.Context, params map[string]string) (*fakeBackend, error) {
	return &fakeBackend{dir: params["base_dir"]}, nil
}

func TestRegistry_RegisterAndNew(t *testing.T) {
	r := NewRegistry[*fakeBackend]("staging")
	r.Register("filesystem", newFake)

	b, err := r.New(context.Background(), "filesystem", map[string]string{"base_dir": "/tmp/x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.dir != "/tmp/x" {
		t.Errorf("expected dir '/tmp/x', got %q", b.dir)
	}
}

func TestRegistry_NamesAreCaseInsensitive(t *testing.T) {
	r := NewRegistry[*fakeBackend]("records")
	r.Register("SQLite", newFake)

	if _, err := r.New(context.Background(), " sqlite ", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Available(); len(got) != 1 || got[0] != "sqlite" {
		t.Errorf("Available() = %v, want [sqlite]", got)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry[*fakeBackend]("staging")
	r.Register("memory", newFake)

	_, err := r.New(context.Background(), "ftp", nil)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	want := `unknown staging provider: "ftp" (available: [memory])`
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestRegistry_Available(t *testing.T) {
	r := NewRegistry[*fakeBackend]("staging")
	r.Register("s3", newFake)
	r.Register("memory", newFake)
	r.Register("filesystem", newFake)

	avail := r.Available()
	if len(avail) != 3 || avail[0] != "filesystem" || avail[1] != "memory" || avail[2] != "s3" {
		t.Errorf("Available() = %v, want [filesystem memory s3]", avail)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry[*fakeBackend]("staging")
	r.Register("dup", newFake)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.Register("DUP", newFake)
}
