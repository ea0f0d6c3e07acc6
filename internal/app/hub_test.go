package app

import (
	"encoding/json"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestHub_PublishAndLatest(t *testing.T) {
	h := NewHub()

	if jpeg, result, seq := h.Latest(); jpeg != nil || result != nil || seq != 0 {
		t.Error("empty hub should have no frame")
	}

	res := &Result{Frame: 7, Mode: ModeRoom, Width: 640, Height: 480}
	if err := h.Publish([]byte{0xff, 0xd8}, res); err != nil {
		t.Fatal(err)
	}

	jpeg, result, seq := h.Latest()
	if len(jpeg) != 2 || seq != 1 {
		t.Errorf("latest = %d bytes seq %d", len(jpeg), seq)
	}

	var decoded map[string]any
	if err := json.Unmarshal(result, &decoded); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if decoded["frame"] != float64(7) || decoded["mode"] != "room" {
		t.Errorf("decoded = %v", decoded)
	}
	if _, ok := decoded["FaceConnections"]; ok {
		t.Error("face connections should not be serialized")
	}
}

func TestHub_Subscribe(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	if h.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", h.Subscribers())
	}

	// two publishes coalesce into one pending signal
	h.Publish(nil, &Result{Frame: 0})
	h.Publish(nil, &Result{Frame: 1})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no signal after publish")
	}
	select {
	case <-ch:
		t.Error("signals should coalesce")
	default:
	}

	if _, _, seq := h.Latest(); seq != 2 {
		t.Errorf("seq = %d, want 2", seq)
	}

	cancel()
	cancel()
	if h.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after cancel", h.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
}

func TestHub_Close(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}

	late, lateCancel := h.Subscribe()
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Error("subscribing to a closed hub should yield a closed channel")
	}

	h.Publish([]byte{1}, &Result{})
	if _, _, seq := h.Latest(); seq != 0 {
		t.Error("publish after close should be dropped")
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestHub_ConsumeEncodesJPEG(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	h := NewHub()
	if err := h.Consume(&frame, &Result{}); err != nil {
		t.Fatal(err)
	}

	jpeg, _, _ := h.Latest()
	if len(jpeg) < 2 || jpeg[0] != 0xff || jpeg[1] != 0xd8 {
		t.Errorf("latest frame is not a JPEG: % x", jpeg[:min(len(jpeg), 4)])
	}
}
