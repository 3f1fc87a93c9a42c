// Package kubernetes builds API clients and records alerts as core/v1
// Events on a configured object.
package kubernetes

import (
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// NewClientset prefers in-cluster credentials and falls back to a kubeconfig.
func NewClientset() (kubernetes.Interface, error) {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		loadingRules.ExplicitPath = kubeconfigPath()

		configOverrides := &clientcmd.ConfigOverrides{}
		kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)

		restConfig, err = kubeConfig.ClientConfig()
		if err != nil {
			return nil, NewKubeconfigError(err)
		}
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, NewClientsetError(err)
	}
	return clientset, nil
}

// kubeconfigPath returns KUBECONFIG, then the invoking user's config when
// running under sudo, then $HOME/.kube/config. Empty means use the client-go
// defaults.
func kubeconfigPath() string {
	if kubeconfig := os.Getenv("KUBECONFIG"); kubeconfig != "" {
		return kubeconfig
	}
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		homePath := filepath.Join("/home", sudoUser, ".kube", "config")
		if _, err := os.Stat(homePath); err == nil {
			return homePath
		}
	}
	if home := os.Getenv("HOME"); home != "" && home != "/root" {
		homePath := filepath.Join(home, ".kube", "config")
		if _, err := os.Stat(homePath); err == nil {
			return homePath
		}
	}
	return ""
}
