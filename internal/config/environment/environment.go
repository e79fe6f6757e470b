package environment

import (
	"os"
	"runtime"

	"golang.org/x/term"
)

type Platform string

const (
	PlatformLocal      Platform = "local"
	PlatformAWS        Platform = "aws"
	PlatformGCP        Platform = "gcp"
	PlatformAzure      Platform = "azure"
	PlatformKubernetes Platform = "kubernetes"
)

// DetectOperatingSystem returns the operating system name
func DetectOperatingSystem() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "darwin"
	case "linux":
		return "linux"
	default:
		return runtime.GOOS
	}
}

// DetectPlatform detects the cloud platform or environment from the
// environment alone. No metadata services are contacted.
func DetectPlatform() Platform {
	switch {
	case isKubernetes():
		return PlatformKubernetes
	case isAWS():
		return PlatformAWS
	case isGCP():
		return PlatformGCP
	case isAzure():
		return PlatformAzure
	default:
		return PlatformLocal
	}
}

// IsEphemeralEnvironment determines if we're running in an ephemeral environment
func IsEphemeralEnvironment() bool {
	// Check for AWS Lambda
	if len(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) > 0 || len(os.Getenv("LAMBDA_TASK_ROOT")) > 0 {
		return true
	}

	// Check for Google Cloud Functions
	if len(os.Getenv("FUNCTION_NAME")) > 0 || len(os.Getenv("K_SERVICE")) > 0 {
		return true
	}

	// Check for Azure Functions
	if len(os.Getenv("AZURE_FUNCTIONS_ENVIRONMENT")) > 0 || len(os.Getenv("FUNCTIONS_WORKER_RUNTIME")) > 0 {
		return true
	}

	return false
}

// IsInteractive reports whether stdin and stdout are both terminals, which
// the interactive forms require.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func isAWS() bool {
	return len(os.Getenv("AWS_REGION")) > 0 ||
		len(os.Getenv("AWS_DEFAULT_REGION")) > 0 ||
		len(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) > 0
}

func isGCP() bool {
	return len(os.Getenv("GOOGLE_CLOUD_PROJECT")) > 0 ||
		len(os.Getenv("GCLOUD_PROJECT")) > 0 ||
		len(os.Getenv("FUNCTION_NAME")) > 0 ||
		len(os.Getenv("K_SERVICE")) > 0
}

func isAzure() bool {
	return len(os.Getenv("AZURE_FUNCTIONS_ENVIRONMENT")) > 0 ||
		len(os.Getenv("WEBSITE_SITE_NAME")) > 0
}

// isKubernetes checks if we're running in a Kubernetes environment
func isKubernetes() bool {
	// Check for Kubernetes service account token
	if _, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount/token"); err == nil {
		return true
	}

	return len(os.Getenv("KUBERNETES_SERVICE_HOST")) > 0
}
