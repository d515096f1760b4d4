package log

import "testing"

func TestNoopLoggerDiscards(t *testing.T) {
	var l NoopLogger
	l.Log(NewStateChangeEvent("att", "A", "B")) // must not panic
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) did not return NoopLogger")
	}
	m := &MemoryLogger{}
	if OrNoop(m) != Logger(m) {
		t.Error("OrNoop must pass a non-nil logger through")
	}
}

func TestTeeFansOut(t *testing.T) {
	a := &MemoryLogger{}
	b := &MemoryLogger{}

	tee := Tee(a, nil, b)
	tee.Log(NewScanEvent("att", 1, true, ""))

	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Errorf("Tee delivered %d/%d events, want 1/1", len(a.Events()), len(b.Events()))
	}
}

func TestMemoryLoggerRecords(t *testing.T) {
	var l MemoryLogger
	l.Log(NewScanEvent("att", 1, true, ""))
	l.Log(NewScanEvent("att", 2, false, "rejected"))

	events := l.Events()
	if len(events) != 2 {
		t.Fatalf("Events() = %d events, want 2", len(events))
	}
	if events[0].Scan.Index != 1 || events[1].Scan.Index != 2 {
		t.Error("events recorded out of order")
	}

	l.Reset()
	if len(l.Events()) != 0 {
		t.Error("Reset did not clear events")
	}
}

func TestEventEncodeDecode(t *testing.T) {
	ev := NewRegisterEvent("att-1", OpWrite, 0x02, 0x17)

	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if got.AttachmentID != "att-1" || got.Category != CategoryRegister {
		t.Errorf("decoded envelope mismatch: %+v", got)
	}
	if got.Register == nil || got.Register.Op != OpWrite || got.Register.Register != 0x02 || got.Register.Value != 0x17 {
		t.Errorf("decoded payload mismatch: %+v", got.Register)
	}
}
