package device

import (
	"errors"

	appErrors "waste-bin-monitor/pkg/errors"
)

var (
	ErrDeviceNotFound = appErrors.NewAppError(appErrors.CodeUnknownDevice, "device not found", appErrors.ErrUnknownDevice)
	ErrInvalidStatus  = errors.New("invalid device status")
)
