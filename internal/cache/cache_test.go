package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestKeyOfLengthPrefixed(t *testing.T) {
	if KeyOf([]byte("ab"), []byte("c")) == KeyOf([]byte("a"), []byte("bc")) {
		t.Fatal("keys collide across part boundaries")
	}
	if KeyOf([]byte("x")) != KeyOf([]byte("x")) {
		t.Fatal("KeyOf is not deterministic")
	}
}

func TestDiskPutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	key := KeyOf([]byte("Main.mq5"))

	var miss Entry
	if ok, err := c.Get(key, &miss); ok || err != nil {
		t.Fatalf("Get on empty cache = %v, %v", ok, err)
	}

	in := &Entry{RunID: "01J", Source: "Main.mq5", Log: "Result: 0 errors, 0 warnings", Created: time.Unix(1700000000, 0).UTC()}
	if err := c.Put(key, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var out Entry
	ok, err := c.Get(key, &out)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if out.Log != in.Log || out.RunID != "01J" || !out.Created.Equal(in.Created) {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}

	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if ok, _ := c.Get(key, &out); ok {
		t.Fatal("entry survived DropAll")
	}
}

func TestEntryFresh(t *testing.T) {
	dir := t.TempDir()
	dep := filepath.Join(dir, "Trade.mqh")
	if err := os.WriteFile(dep, []byte("int x;"), 0o600); err != nil {
		t.Fatal(err)
	}
	h, err := HashFile(dep)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	e := Entry{Deps: []Dep{{Path: dep, Hash: h}}}
	if !e.Fresh() {
		t.Fatal("unchanged dep reported stale")
	}
	if err := os.WriteFile(dep, []byte("int y;"), 0o600); err != nil {
		t.Fatal(err)
	}
	if e.Fresh() {
		t.Fatal("changed dep reported fresh")
	}
	e.Deps[0].Path = filepath.Join(dir, "missing.mqh")
	if e.Fresh() {
		t.Fatal("missing dep reported fresh")
	}
}

func TestNilDisk(t *testing.T) {
	var c *Disk
	if err := c.Put(Digest{}, &Entry{}); err != nil {
		t.Fatalf("nil Put: %v", err)
	}
	if ok, err := c.Get(Digest{}, &Entry{}); ok || err != nil {
		t.Fatalf("nil Get = %v, %v", ok, err)
	}
}
