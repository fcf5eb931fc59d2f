package live

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arborui/arbor/pkg/arbor/scene"
)

func TestPatchesRoundTrip(t *testing.T) {
	patches := []scene.Patch{
		{Op: scene.OpReplaceText, NodeID: 3, Value: "hello"},
		{Op: scene.OpSetProp, NodeID: 1, Name: "class", Value: "active"},
		{Op: scene.OpRemoveProp, NodeID: 1, Name: "hidden"},
		{Op: scene.OpRemoveNode, NodeID: 7},
		{Op: scene.OpMoveNode, NodeID: 4, ParentID: 1, BeforeID: 2},
		{
			Op: scene.OpInsertNode, NodeID: 9, ParentID: 1, BeforeID: 0,
			Node: &scene.Snapshot{
				Type:  "node",
				Key:   "row-9",
				Attrs: map[string]string{"class": "row", "width": "120"},
				Kids: []scene.Snapshot{
					{Type: "text", Text: "nine"},
				},
			},
		},
	}

	frame, err := EncodePatches(patches)
	if err != nil {
		t.Fatalf("EncodePatches: %v", err)
	}
	if FrameType(frame[0]) != FramePatches {
		t.Fatalf("frame type = %#x, want patches", frame[0])
	}

	got, err := DecodePatches(frame)
	if err != nil {
		t.Fatalf("DecodePatches: %v", err)
	}
	if diff := cmp.Diff(patches, got); diff != "" {
		t.Errorf("patches mismatch (-sent +received):\n%s", diff)
	}
}

func TestEmptyPatchFrame(t *testing.T) {
	frame, err := EncodePatches(nil)
	if err != nil {
		t.Fatalf("EncodePatches: %v", err)
	}
	got, err := DecodePatches(frame)
	if err != nil {
		t.Fatalf("DecodePatches: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d patches, want 0", len(got))
	}
}

func TestEventRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		evt  Event
	}{
		{"bare event", Event{Name: "onPress", NodeID: 12}},
		{"event with payload", Event{
			Name:   "onInput",
			NodeID: 3,
			Data:   map[string]string{"value": "abc", "cursor": "3"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent(EncodeEvent(tt.evt))
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			if diff := cmp.Diff(tt.evt, got); diff != "" {
				t.Errorf("event mismatch (-sent +received):\n%s", diff)
			}
		})
	}
}

func TestControlRoundTrip(t *testing.T) {
	got, err := DecodeControl(EncodeControl(ControlReload))
	if err != nil {
		t.Fatalf("DecodeControl: %v", err)
	}
	if got != ControlReload {
		t.Fatalf("command = %q, want %q", got, ControlReload)
	}
}

func TestFrameTypeMismatch(t *testing.T) {
	if _, err := DecodeEvent(EncodeControl("reload")); err == nil {
		t.Error("decoding a control frame as an event should fail")
	}
	if _, err := DecodePatches(EncodeEvent(Event{Name: "x"})); err == nil {
		t.Error("decoding an event frame as patches should fail")
	}
}

func TestSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	st, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer st.Close()

	if err := st.SaveSession("s1", map[string]string{"count": "4"}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	state, err := st.LoadSession("s1")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if state["count"] != "4" {
		t.Fatalf("count = %q, want 4", state["count"])
	}

	if state, err = st.LoadSession("never-seen"); err != nil || state != nil {
		t.Fatalf("unknown session = (%v, %v), want (nil, nil)", state, err)
	}

	ids, err := st.SessionIDs()
	if err != nil || len(ids) != 1 || ids[0] != "s1" {
		t.Fatalf("SessionIDs = (%v, %v), want ([s1], nil)", ids, err)
	}

	if err := st.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if state, _ := st.LoadSession("s1"); state != nil {
		t.Fatalf("state after delete = %v, want nil", state)
	}
}
