package bot

import (
	"testing"
	"time"
)

func TestPendingPutAndTake(t *testing.T) {
	p := newPendingStore()

	p.Put(1, "code1", "file1")
	if p.Len() != 1 {
		t.Fatalf("Len = %d, want 1", p.Len())
	}

	rec, ok := p.Take(1)
	if !ok {
		t.Fatal("Take returned no record")
	}
	if rec.Code != "code1" || rec.FileID != "file1" || rec.Mode != "" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, ok := p.Take(1); ok {
		t.Fatal("Take must consume the record")
	}
}

func TestPendingPutReplacesPrevious(t *testing.T) {
	p := newPendingStore()

	p.Put(1, "old", "file-old")
	p.Put(1, "new", "file-new")

	rec, _ := p.Take(1)
	if rec.Code != "new" || rec.FileID != "file-new" {
		t.Fatalf("unexpected record after replace: %+v", rec)
	}
}

func TestPendingSetMode(t *testing.T) {
	p := newPendingStore()
	p.Put(1, "code1", "file1")

	if p.SetMode(1, "wrong-code", "single") {
		t.Fatal("SetMode must reject a mismatched code")
	}
	if p.SetMode(2, "code1", "single") {
		t.Fatal("SetMode must reject an unknown user")
	}
	if !p.SetMode(1, "code1", "series") {
		t.Fatal("SetMode rejected a valid update")
	}

	rec, _ := p.Take(1)
	if rec.Mode != "series" {
		t.Fatalf("Mode = %q, want series", rec.Mode)
	}
}

func TestPendingSweepExpired(t *testing.T) {
	p := newPendingStore()

	p.Put(1, "stale", "f1")
	p.m[1].CreatedAt = time.Now().Add(-time.Hour)
	p.Put(2, "fresh", "f2")

	if got := p.SweepExpired(30 * time.Minute); got != 1 {
		t.Fatalf("SweepExpired = %d, want 1", got)
	}
	if _, ok := p.Take(2); !ok {
		t.Fatal("fresh record must survive the sweep")
	}
}
