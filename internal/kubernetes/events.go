package kubernetes

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/podtrace/alertsub/internal/validation"
)

const (
	EventReason          = "Alert"
	EventSourceComponent = "alertsub"

	// The API server rejects Event messages longer than this.
	maxEventMessageLength = 1024
)

type ObjectRef struct {
	Kind      string
	Namespace string
	Name      string
}

// EventRecorder writes one Event per call against a fixed involved object.
type EventRecorder struct {
	clientset kubernetes.Interface
	object    ObjectRef
	host      string
	now       func() time.Time
}

func NewEventRecorder(clientset kubernetes.Interface, object ObjectRef, host string) (*EventRecorder, error) {
	if object.Name == "" {
		return nil, NewMissingObjectError()
	}
	if object.Kind == "" {
		object.Kind = "Pod"
	}
	if object.Namespace == "" {
		object.Namespace = metav1.NamespaceDefault
	}
	return &EventRecorder{
		clientset: clientset,
		object:    object,
		host:      host,
		now:       time.Now,
	}, nil
}

// Record creates a Warning event for warning-or-worse alerts and a Normal
// event otherwise.
func (r *EventRecorder) Record(ctx context.Context, warning bool, message string) error {
	eventType := corev1.EventTypeNormal
	if warning {
		eventType = corev1.EventTypeWarning
	}
	now := r.now()
	ts := metav1.NewTime(now)
	event := &corev1.Event{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("%v.%x", r.object.Name, now.UnixNano()),
			Namespace: r.object.Namespace,
		},
		InvolvedObject: corev1.ObjectReference{
			Kind:      r.object.Kind,
			Namespace: r.object.Namespace,
			Name:      r.object.Name,
		},
		Reason:         EventReason,
		Message:        validation.Truncate(message, maxEventMessageLength),
		Type:           eventType,
		Source:         corev1.EventSource{Component: EventSourceComponent, Host: r.host},
		FirstTimestamp: ts,
		LastTimestamp:  ts,
		Count:          1,
	}
	if _, err := r.clientset.CoreV1().Events(r.object.Namespace).Create(ctx, event, metav1.CreateOptions{}); err != nil {
		return NewEventCreateError(r.object.Namespace, r.object.Name, err)
	}
	return nil
}

func (r *EventRecorder) Object() ObjectRef {
	return r.object
}

func (o ObjectRef) String() string {
	return fmt.Sprintf("%s/%s/%s", o.Kind, o.Namespace, o.Name)
}
