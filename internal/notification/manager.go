package notification

import (
	"fmt"
	"sync/atomic"
)

// global holds the process-wide service handle. Consumers resolve it
// lazily so package initialization order does not matter.
var global atomic.Pointer[Service]

// Initialize installs the process-wide notification service. The first
// call wins; later calls are no-ops and their configuration is ignored.
func Initialize(config *ServiceConfig) {
	if global.Load() != nil {
		return
	}
	svc := NewService(config)
	if !global.CompareAndSwap(nil, svc) {
		svc.Stop()
	}
}

// GetService returns the installed service, or nil before Initialize.
func GetService() *Service {
	return global.Load()
}

// MustGetService returns the installed service or panics.
func MustGetService() *Service {
	svc := global.Load()
	if svc == nil {
		panic("notification service not initialized")
	}
	return svc
}

// IsInitialized reports whether a service has been installed.
func IsInitialized() bool {
	return global.Load() != nil
}

// SetServiceForTesting installs a caller-built service instance. It
// fails once a real service is in place, so tests cannot swap the
// handle out from under a running process.
func SetServiceForTesting(service *Service) error {
	if !global.CompareAndSwap(nil, service) {
		return fmt.Errorf("notification service already initialized")
	}
	return nil
}
