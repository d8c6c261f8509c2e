package types

import (
	"encoding/base64"
	"testing"
)

func TestUidGeneratorInit(t *testing.T) {
	ug := &UidGenerator{}
	key := []byte("testkey1testkey2") // 16 bytes for XTEA

	err := ug.Init(1, key)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if ug.seq == nil {
		t.Error("Snowflake generator should be initialized")
	}
	if ug.cipher == nil {
		t.Error("Cipher should be initialized")
	}

	// Already initialized generator must not reinitialize.
	oldSeq := ug.seq
	oldCipher := ug.cipher
	err = ug.Init(3, key)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ug.seq != oldSeq {
		t.Error("Snowflake generator should not be reinitialized")
	}
	if ug.cipher != oldCipher {
		t.Error("Cipher should not be reinitialized")
	}
}

func TestUidGeneratorInitWithInvalidKey(t *testing.T) {
	ug := &UidGenerator{}

	// XTEA requires a 16 byte key.
	if err := ug.Init(1, []byte("short")); err == nil {
		t.Error("Expected error with short key")
	}

	ug2 := &UidGenerator{}
	if err := ug2.Init(1, nil); err == nil {
		t.Error("Expected error with nil key")
	}
}

func TestUidGeneratorGet(t *testing.T) {
	ug := &UidGenerator{}
	key := []byte("testkey1testkey2")
	if err := ug.Init(1, key); err != nil {
		t.Fatalf("Failed to initialize generator: %v", err)
	}

	uids := make(map[Uid]bool)
	for i := 0; i < 1000; i++ {
		uid := ug.Get()
		if uid == ZeroUid {
			t.Errorf("UID %d should not be zero", i)
		}
		if uids[uid] {
			t.Errorf("Duplicate UID generated: %v", uid)
		}
		uids[uid] = true
	}
}

func TestUidGeneratorGetWithUninitializedGenerator(t *testing.T) {
	ug := &UidGenerator{}

	if uid := ug.Get(); uid != ZeroUid {
		t.Error("Expected ZeroUid from uninitialized generator")
	}
	if uidStr := ug.GetStr(); uidStr != "" {
		t.Error("Expected empty string from uninitialized generator")
	}
}

func TestUidGeneratorGetStr(t *testing.T) {
	ug := &UidGenerator{}
	key := []byte("testkey1testkey2")
	if err := ug.Init(1, key); err != nil {
		t.Fatalf("Failed to initialize generator: %v", err)
	}

	uidStr1 := ug.GetStr()
	if uidStr1 == "" {
		t.Error("Generated UID string should not be empty")
	}
	uidStr2 := ug.GetStr()
	if uidStr1 == uidStr2 {
		t.Error("Generated UID strings should be unique")
	}

	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(uidStr1)
	if err != nil {
		t.Errorf("Generated UID string should be valid base64: %v", err)
	}
	if len(decoded) != 8 {
		t.Errorf("Decoded UID should be 8 bytes, got %d", len(decoded))
	}

	// GetStr output must round-trip through ParseUid.
	if ParseUid(uidStr1).String() != uidStr1 {
		t.Errorf("UID string %s did not round-trip", uidStr1)
	}
}

func TestUidGeneratorConcurrency(t *testing.T) {
	ug := &UidGenerator{}
	key := []byte("testkey1testkey2")
	if err := ug.Init(1, key); err != nil {
		t.Fatalf("Failed to initialize generator: %v", err)
	}

	const numGoroutines = 10
	const uidsPerGoroutine = 100

	uidChan := make(chan Uid, numGoroutines*uidsPerGoroutine)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := 0; j < uidsPerGoroutine; j++ {
				uidChan <- ug.Get()
			}
		}()
	}

	uids := make(map[Uid]bool)
	for i := 0; i < numGoroutines*uidsPerGoroutine; i++ {
		uid := <-uidChan
		if uid == ZeroUid {
			t.Error("Generated UID should not be zero")
		}
		if uids[uid] {
			t.Errorf("Duplicate UID generated in concurrent test: %v", uid)
		}
		uids[uid] = true
	}
}
