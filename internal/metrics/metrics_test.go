package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"dingtalk/internal/robot"
)

func TestObserveSend(t *testing.T) {
	r := New()
	r.ObserveSend(robot.DingTalk, robot.ResultSuccess, 20*time.Millisecond)
	r.ObserveSend(robot.DingTalk, robot.ResultSuccess, 30*time.Millisecond)
	r.ObserveSend(robot.WeChatWork, robot.ResultDeliveryError, time.Millisecond)

	if got := testutil.ToFloat64(r.sendTotal.WithLabelValues("dingtalk", "success")); got != 2 {
		t.Fatalf("dingtalk success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.sendTotal.WithLabelValues("wechatwork", "delivery_error")); got != 1 {
		t.Fatalf("wechatwork delivery_error = %v, want 1", got)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveSend(robot.DingTalk, robot.ResultSuccess, time.Second)
	if err := r.WriteTextfile("/nonexistent/x.prom"); err != nil {
		t.Fatalf("nil recorder should not write: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveSend(robot.DingTalk, robot.ResultTransportError, time.Millisecond)

	path := filepath.Join(t.TempDir(), "robot.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `dingtalk_robot_send_total{provider="dingtalk",result="transport_error"} 1`
	if !strings.Contains(string(data), want) {
		t.Fatalf("textfile missing %q:\n%s", want, data)
	}
}

func TestRecorderIsObserver(t *testing.T) {
	var _ robot.Observer = New()
}
