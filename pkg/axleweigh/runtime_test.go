package axleweigh

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/shubhamavl/axleweigh/internal/adapters/sink"
)

func TestNewRuntimeWithCustomAdapters(t *testing.T) {
	cfg := testConfig(t, SourceOPCUA)
	cfg.OPCUA = OPCUAConfig{Endpoint: "opc.tcp://test:4840", LeftNode: "ns=1;s=L", RightNode: "ns=1;s=R"}

	col := &stubCollector{}
	obs := stubObservability{}
	extra := NewCallbackSink("cb", func(context.Context, *TestRecord) error { return nil })

	rt, err := NewRuntime(cfg,
		WithCollector(col),
		WithObservability(obs),
		WithRecordSink(extra),
		WithoutHTTP(),
	)
	if err != nil {
		t.Fatalf("NewRuntime returned error: %v", err)
	}
	defer rt.closeStorage()

	if rt.collector != col {
		t.Fatalf("expected custom collector to be used")
	}
	if rt.obs != obs {
		t.Fatalf("expected custom observability to be used")
	}
	if len(rt.sinks) != 2 || rt.sinks[0].Name() != "json" || rt.sinks[1] != extra {
		t.Fatalf("expected JSON reports plus the custom sink, got %d sinks", len(rt.sinks))
	}
	if _, _, ok := rt.SimulatedChannels(); ok {
		t.Fatalf("no simulator expected with a custom collector")
	}
}

func TestNewRuntimeSelectsSource(t *testing.T) {
	rt, err := NewRuntime(testConfig(t, SourceSimulator), WithoutHTTP())
	if err != nil {
		t.Fatalf("simulator runtime: %v", err)
	}
	defer rt.closeStorage()
	if _, _, ok := rt.SimulatedChannels(); !ok {
		t.Fatalf("expected simulated channels")
	}

	ext, err := NewRuntime(testConfig(t, SourceExternal), WithoutHTTP())
	if err != nil {
		t.Fatalf("external runtime: %v", err)
	}
	defer ext.closeStorage()
	if ext.External() == nil {
		t.Fatalf("expected external collector handle")
	}

	if _, err := NewRuntime(nil); err == nil {
		t.Fatalf("expected nil config to fail")
	}
}

func TestRuntimeSessionEndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t, SourceExternal)
	cfg.Session.AxleNumber = 2
	recSink, records, closeRecords := NewChannelSink("records", 4)
	defer closeRecords()

	rt, err := NewRuntime(cfg, WithoutHTTP(), WithRecordSink(recSink))
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if err := rt.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer rt.Shutdown(context.Background())

	ctx := context.Background()
	if ok, err := rt.StartTest(ctx); err != nil || !ok {
		t.Fatalf("start test: %v %v", ok, err)
	}

	ext := rt.External()
	waitFor(t, "session samples", func() bool {
		_ = ext.PublishWeights(15, 45)
		snap, ok := rt.Snapshot()
		return ok && snap.State == StateReading && snap.SampleCount >= 3
	})

	snap, _ := rt.Snapshot()
	if snap.Left != 15 || snap.Right != 45 || snap.Min != 60 || snap.Max != 60 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.BalanceStatus.String() != "Warning" || !snap.Imbalance {
		t.Fatalf("15/45 must be imbalanced: %+v", snap)
	}

	if ok, err := rt.StopTest(ctx); err != nil || !ok {
		t.Fatalf("stop test: %v %v", ok, err)
	}
	rec, fut, err := rt.SaveTest(ctx)
	if err != nil || rec == nil {
		t.Fatalf("save test: %v", err)
	}
	if err := <-fut; err != nil {
		t.Fatalf("persist: %v", err)
	}
	if rec.AxleNumber != 2 || rec.EndTime == nil || rec.SampleCount < 3 {
		t.Fatalf("unexpected record %+v", rec)
	}

	select {
	case got := <-records:
		if got.ID != rec.ID {
			t.Fatalf("sink received a different record")
		}
	case <-time.After(time.Second):
		t.Fatalf("record sink was not called")
	}

	report, err := sink.ReadRecordJSON(sink.NewJSONSink(cfg.Output.ReportDir).Path(rec))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if report.ID != rec.ID || report.BalanceStatus != rec.BalanceStatus {
		t.Fatalf("report does not match record: %+v", report)
	}

	csvPath := filepath.Join(t.TempDir(), "window.csv")
	exp, err := rt.ExportCSV(ctx, csvPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := <-exp; err != nil {
		t.Fatalf("export result: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "Sample,Left Axle (kg),Right Axle (kg)\n0,15.00,45.00\n") {
		t.Fatalf("unexpected csv head: %q", data)
	}

	if _, err := rt.ClearTest(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	st, err := rt.Status(ctx)
	if err != nil || st.State != StateIdle {
		t.Fatalf("expected idle after clear: %+v %v", st, err)
	}

	if err := rt.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := ext.PublishWeights(1, 1); !errors.Is(err, ErrCollectorStopped) {
		t.Fatalf("publish after shutdown must fail, got %v", err)
	}
	if _, err := rt.StartTest(ctx); !errors.Is(err, ErrSchedulerClosed) {
		t.Fatalf("commands after shutdown must fail, got %v", err)
	}
	if err := rt.Start(); err == nil {
		t.Fatalf("a runtime cannot be restarted")
	}
}

func TestRuntimeSaveWithoutSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	rt, err := NewRuntime(testConfig(t, SourceExternal), WithoutHTTP())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if err := rt.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer rt.Shutdown(context.Background())

	if _, _, err := rt.SaveTest(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if err := rt.SetAxle(context.Background(), 0); err == nil {
		t.Fatalf("axle 0 must be rejected")
	}
}

func TestRuntimeReplaysJournalOnStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t, SourceExternal)
	failing := NewCallbackSink("flaky", func(context.Context, *TestRecord) error { return errors.New("offline") })

	first, err := NewRuntime(cfg, WithoutHTTP(), WithRecordSink(failing))
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if err := first.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx := context.Background()
	first.StartTest(ctx)
	first.StopTest(ctx)
	rec, fut, err := first.SaveTest(ctx)
	if err != nil || rec == nil {
		t.Fatalf("save: %v", err)
	}
	if err := <-fut; err == nil {
		t.Fatalf("expected the flaky sink to fail delivery")
	}
	if err := first.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	recSink, records, closeRecords := NewChannelSink("records", 4)
	defer closeRecords()
	second, err := NewRuntime(cfg, WithoutHTTP(), WithRecordSink(recSink))
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if err := second.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer second.Shutdown(ctx)

	select {
	case got := <-records:
		if got.ID != rec.ID {
			t.Fatalf("replayed a different record")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("uncommitted record was not replayed")
	}
}

func TestRuntimeRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t, SourceExternal)
	ctx, cancel := context.WithCancel(context.Background())
	display, snaps, closeDisplay := NewChannelDisplay(1)
	defer closeDisplay()

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig: %v", err)
	}
	done := make(chan error, 1)
	go func() {
		done <- flow.Options(WithoutHTTP()).Run(ctx, StreamOutDisplay(display))
	}()

	select {
	case <-snaps:
	case <-time.After(2 * time.Second):
		t.Fatalf("display never received a snapshot")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
