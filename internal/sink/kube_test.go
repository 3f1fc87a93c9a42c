package sink

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/kubernetes"
)

func TestKubeEvent_Deliver(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	recorder, err := kubernetes.NewEventRecorder(clientset, kubernetes.ObjectRef{Namespace: "prod", Name: "api-0"}, "")
	if err != nil {
		t.Fatalf("NewEventRecorder() error = %v", err)
	}
	k := NewKubeEvent(recorder)

	if err := k.Deliver(context.Background(), zapcore.ErrorLevel, "ERROR: disk full"); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	events, err := clientset.CoreV1().Events("prod").List(context.Background(), metav1.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events.Items) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.Items))
	}
	ev := events.Items[0]
	if ev.Type != corev1.EventTypeWarning || ev.Message != "ERROR: disk full" || ev.InvolvedObject.Name != "api-0" {
		t.Errorf("unexpected event %+v", ev)
	}
	if k.Name() != "kubernetes" {
		t.Errorf("Name() = %q", k.Name())
	}
}
