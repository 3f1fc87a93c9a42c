package kubernetes

import (
	"errors"
	"strings"
	"testing"
)

func TestNewKubeconfigError(t *testing.T) {
	originalErr := errors.New("kubeconfig error")
	err := NewKubeconfigError(originalErr)

	if err.Code != ErrCodeKubeconfigFailed {
		t.Errorf("Expected error code %d, got %d", ErrCodeKubeconfigFailed, err.Code)
	}
	if err.Message != "failed to get kubeconfig" {
		t.Errorf("Expected message 'failed to get kubeconfig', got %q", err.Message)
	}
	if !errors.Is(err, originalErr) {
		t.Errorf("Expected wrapped error to match original error")
	}
}

func TestNewClientsetError(t *testing.T) {
	originalErr := errors.New("clientset error")
	err := NewClientsetError(originalErr)

	if err.Code != ErrCodeClientsetFailed {
		t.Errorf("Expected error code %d, got %d", ErrCodeClientsetFailed, err.Code)
	}
	if err.Unwrap() != originalErr {
		t.Errorf("Expected unwrapped error to be original error")
	}
}

func TestNewEventCreateError(t *testing.T) {
	originalErr := errors.New("forbidden")
	err := NewEventCreateError("prod", "api-0", originalErr)

	if err.Code != ErrCodeEventCreateFailed {
		t.Errorf("Expected error code %d, got %d", ErrCodeEventCreateFailed, err.Code)
	}
	if !strings.Contains(err.Error(), "prod/api-0") || !strings.Contains(err.Error(), "forbidden") {
		t.Errorf("Unexpected error string %q", err.Error())
	}
}

func TestKubernetesError_Error_WithoutErr(t *testing.T) {
	kerr := NewMissingObjectError()
	if kerr.Error() != "involved object name is required" {
		t.Errorf("Unexpected error string %q", kerr.Error())
	}
	var target *KubernetesError
	if !errors.As(error(kerr), &target) || target.Code != ErrCodeMissingObject {
		t.Error("errors.As should find KubernetesError")
	}
}
