package transcript

import "testing"

func TestAccumulator_FinalSegmentsAccumulate(t *testing.T) {
	a := NewAccumulator()
	a.Start()

	a.Apply(Batch{Segments: []Segment{{Text: "hello", Final: true}}})
	got := a.Apply(Batch{Resume: 1, Segments: []Segment{{Text: "world", Final: true}}})

	if got != "hello world" {
		t.Errorf("text = %q, want %q", got, "hello world")
	}
}

func TestAccumulator_InterimReplacedPerBatch(t *testing.T) {
	a := NewAccumulator()
	a.Start()

	a.Apply(Batch{Segments: []Segment{{Text: "hel", Final: false}}})
	got := a.Apply(Batch{Segments: []Segment{{Text: "hello", Final: false}}})
	if got != "hello" {
		t.Errorf("interim should be replaced, got %q", got)
	}

	// interim never survives finalization of the same speech
	got = a.Apply(Batch{Segments: []Segment{{Text: "hello there", Final: true}}})
	if got != "hello there" {
		t.Errorf("text = %q, want %q", got, "hello there")
	}
}

func TestAccumulator_MixedBatch(t *testing.T) {
	a := NewAccumulator()
	a.Start()

	got := a.Apply(Batch{Segments: []Segment{
		{Text: "first sentence", Final: true},
		{Text: "second sen", Final: false},
	}})
	if got != "first sentence second sen" {
		t.Errorf("text = %q", got)
	}

	// next batch finalizes the second sentence; interim from the previous
	// batch must not be counted twice
	got = a.Apply(Batch{Resume: 1, Segments: []Segment{
		{Text: "second sentence", Final: true},
	}})
	if got != "first sentence second sentence" {
		t.Errorf("text = %q", got)
	}
}

func TestAccumulator_ManualEditsCompose(t *testing.T) {
	a := NewAccumulator()
	a.SetText("typed by hand")
	a.Start()

	got := a.Apply(Batch{Segments: []Segment{{Text: "and dictated", Final: true}}})
	if got != "typed by hand and dictated" {
		t.Errorf("text = %q", got)
	}
}

func TestAccumulator_StartStopIdempotent(t *testing.T) {
	a := NewAccumulator()

	if !a.Start() {
		t.Error("first Start should transition")
	}
	if a.Start() {
		t.Error("Start while listening should be a no-op")
	}
	if !a.Stop() {
		t.Error("first Stop should transition")
	}
	if a.Stop() {
		t.Error("Stop while idle should be a no-op")
	}
}

func TestAccumulator_StreamEndAfterStopDoesNotRestart(t *testing.T) {
	a := NewAccumulator()
	a.Start()
	a.Stop()

	if a.StreamEnded() {
		t.Error("stream end after explicit stop must not request a restart")
	}
}

func TestAccumulator_StreamEndWhileListeningRestarts(t *testing.T) {
	a := NewAccumulator()
	a.Start()
	a.Apply(Batch{Segments: []Segment{{Text: "kept", Final: true}}})

	if !a.StreamEnded() {
		t.Fatal("stream end while listening must request a restart")
	}
	if a.State() != Listening {
		t.Error("restart must preserve the listening state")
	}
	if a.Text() != "kept" {
		t.Errorf("restart must preserve accumulated text, got %q", a.Text())
	}
}

func TestAccumulator_StreamEndAfterErrorDoesNotRestart(t *testing.T) {
	a := NewAccumulator()
	a.Start()
	a.Fail()

	if a.StreamEnded() {
		t.Error("stream end after an error must not request a restart")
	}
	if a.State() != Idle {
		t.Errorf("state = %s, want idle", a.State())
	}
}

func TestAccumulator_Clear(t *testing.T) {
	a := NewAccumulator()
	a.Start()
	a.Apply(Batch{Segments: []Segment{{Text: "submitted", Final: true}}})
	a.Stop()
	a.Clear()

	if a.Text() != "" {
		t.Errorf("text after clear = %q, want empty", a.Text())
	}
}

func TestAccumulator_EmptySegmentsIgnored(t *testing.T) {
	a := NewAccumulator()
	a.Start()

	got := a.Apply(Batch{Segments: []Segment{
		{Text: "", Final: true},
		{Text: "real", Final: true},
		{Text: "", Final: false},
	}})
	if got != "real" {
		t.Errorf("text = %q, want %q", got, "real")
	}
}
