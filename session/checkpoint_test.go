package session

import "testing"

func TestCheckpointStoreSkipsIdenticalSave(t *testing.T) {
	store := NewCheckpointStore(t.TempDir())
	cp := Checkpoint{SessionID: "s1", Data: map[string]interface{}{"step": "a"}, Status: CheckpointActive, Progress: 0.2}

	written, err := store.Save(cp)
	if err != nil || !written {
		t.Fatalf("first save: written=%v err=%v", written, err)
	}

	written, err = store.Save(cp)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if written {
		t.Error("expected identical checkpoint save to be skipped")
	}

	cp.Data["step"] = "b"
	written, err = store.Save(cp)
	if err != nil || !written {
		t.Fatalf("changed save: written=%v err=%v", written, err)
	}
}

func TestCheckpointStoreRoundTrip(t *testing.T) {
	store := NewCheckpointStore(t.TempDir())
	cp := Checkpoint{SessionID: "s2", Data: map[string]interface{}{"step": "a"}, Status: CheckpointPaused, Progress: 0.5}

	if _, err := store.Save(cp); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load("s2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Status != CheckpointPaused || loaded.Progress != 0.5 {
		t.Errorf("loaded = %+v", loaded)
	}
}
