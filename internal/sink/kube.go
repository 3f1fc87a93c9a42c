package sink

import (
	"context"

	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/kubernetes"
)

// eventRecorder is satisfied by *kubernetes.EventRecorder.
type eventRecorder interface {
	Record(ctx context.Context, warning bool, message string) error
}

// KubeEvent records alerts as Events on a Kubernetes object.
type KubeEvent struct {
	recorder eventRecorder
}

func NewKubeEvent(recorder *kubernetes.EventRecorder) *KubeEvent {
	return &KubeEvent{recorder: recorder}
}

func (k *KubeEvent) Deliver(ctx context.Context, level zapcore.Level, message string) error {
	return k.recorder.Record(ctx, level >= zapcore.WarnLevel, message)
}

func (k *KubeEvent) Name() string {
	return "kubernetes"
}
