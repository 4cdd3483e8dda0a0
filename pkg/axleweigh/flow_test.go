package axleweigh

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestConfFromConfigAndStreamBuilder(t *testing.T) {
	cfg := testConfig(t, SourceExternal)

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	col := &stubCollector{}
	rec := NewCallbackSink("cb", func(context.Context, *TestRecord) error { return nil })

	rt, err := flow.
		StreamIN(
			StreamInCollector(col),
			StreamInObservability(stubObservability{}),
		).
		StreamOUT(
			StreamOutRecordSink(rec),
			StreamOutDisplay(func(Snapshot) {}),
		)
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	defer rt.closeStorage()

	if rt.collector != col {
		t.Fatalf("expected custom collector to be wired")
	}
	if rt.sinks[len(rt.sinks)-1] != rec {
		t.Fatalf("expected custom record sink to be wired")
	}
	if len(rt.displays) != 1 {
		t.Fatalf("expected display to be wired")
	}
}

func TestConfLoadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rig.yaml")
	data := "source:\n  kind: external\nsession:\n  axle_number: 5\noutput:\n  report_dir: " + dir + "\n  journal_dir: " + filepath.Join(dir, "journal") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flow, err := Conf(path, WithFlowOptions(WithoutHTTP()))
	if err != nil {
		t.Fatalf("Conf: %v", err)
	}
	if flow.Config().Session.AxleNumber != 5 {
		t.Fatalf("expected axle 5, got %d", flow.Config().Session.AxleNumber)
	}
	rt, err := flow.StreamOUT(StreamOutCallback("cb", func(context.Context, *TestRecord) error { return nil }))
	if err != nil {
		t.Fatalf("StreamOUT: %v", err)
	}
	defer rt.closeStorage()
	if !rt.withoutHTTP || rt.External() == nil {
		t.Fatalf("expected options from Conf and the external source to apply")
	}
}

func TestNilFlow(t *testing.T) {
	var f *Flow
	if f.Config() != nil || f.StreamIN() != nil || f.Options() != nil {
		t.Fatalf("nil flow must stay nil")
	}
	if _, err := f.StreamOUT(); err == nil {
		t.Fatalf("expected error from nil flow")
	}
	if _, err := ConfFromConfig(nil); err == nil {
		t.Fatalf("expected error without config")
	}
}
