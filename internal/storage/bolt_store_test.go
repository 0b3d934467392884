package storage

import (
	"testing"
	"time"
)

func TestBoltStoreMarksAndExpiresPackets(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		PacketTTL:       1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	storeRaw, err := openBolt(dir+"/dedup.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	seen, err := store.SeenPacket("70b3d5e75e00491c", 1)
	if err != nil || seen {
		t.Fatalf("expected unseen packet, seen=%v err=%v", seen, err)
	}

	if err := store.MarkPacket("70b3d5e75e00491c", 1); err != nil {
		t.Fatalf("MarkPacket: %v", err)
	}

	seen, err = store.SeenPacket("70b3d5e75e00491c", 1)
	if err != nil || !seen {
		t.Fatalf("expected packet marked as seen, got seen=%v err=%v", seen, err)
	}

	// Same packet id from another device must not collide.
	seen, err = store.SeenPacket("70b3d5e75e004aaa", 1)
	if err != nil || seen {
		t.Fatalf("packet ids should be scoped per device, seen=%v err=%v", seen, err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	seen, err = store.SeenPacket("70b3d5e75e00491c", 1)
	if err != nil {
		t.Fatalf("SeenPacket after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkPacket("dev", 3); err != nil {
		t.Fatalf("noop store MarkPacket: %v", err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported storage type")
	}
}

func TestNewStoreRequiresPathForBbolt(t *testing.T) {
	if _, err := NewStore("bbolt", "  ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
}
