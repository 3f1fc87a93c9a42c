package kubernetes

import "fmt"

type ErrorCode int

const (
	ErrCodeKubeconfigFailed ErrorCode = iota + 1
	ErrCodeClientsetFailed
	ErrCodeEventCreateFailed
	ErrCodeMissingObject
)

type KubernetesError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *KubernetesError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *KubernetesError) Unwrap() error {
	return e.Err
}

func NewKubeconfigError(err error) *KubernetesError {
	return &KubernetesError{
		Code:    ErrCodeKubeconfigFailed,
		Message: "failed to get kubeconfig",
		Err:     err,
	}
}

func NewClientsetError(err error) *KubernetesError {
	return &KubernetesError{
		Code:    ErrCodeClientsetFailed,
		Message: "failed to create Kubernetes clientset",
		Err:     err,
	}
}

func NewEventCreateError(namespace, name string, err error) *KubernetesError {
	return &KubernetesError{
		Code:    ErrCodeEventCreateFailed,
		Message: fmt.Sprintf("failed to create event for %s/%s", namespace, name),
		Err:     err,
	}
}

func NewMissingObjectError() *KubernetesError {
	return &KubernetesError{
		Code:    ErrCodeMissingObject,
		Message: "involved object name is required",
	}
}
