package domain

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the frame",
		StatusCode: 422,
	}

	ErrNoFaceEvidence = &AppError{
		Code:       "NO_FACE_EVIDENCE",
		Message:    "No face evidence available for submission",
		StatusCode: 422,
	}

	ErrDuplicateFace = &AppError{
		Code:       "DUPLICATE_FACE",
		Message:    "This face is already enrolled with another identity",
		StatusCode: 409,
	}

	ErrDuplicateCredential = &AppError{
		Code:       "DUPLICATE_CREDENTIAL",
		Message:    "This device credential is already enrolled",
		StatusCode: 409,
	}

	ErrDeviceAlreadyUsed = &AppError{
		Code:       "DEVICE_ALREADY_USED",
		Message:    "This device is already bound to another account",
		StatusCode: 409,
	}

	ErrNotEnrolled = &AppError{
		Code:       "NOT_ENROLLED",
		Message:    "No device credential found, enrollment required",
		StatusCode: 404,
	}

	ErrCredentialMismatch = &AppError{
		Code:       "CREDENTIAL_MISMATCH",
		Message:    "Stored device credential was rejected, re-enrollment required",
		StatusCode: 401,
	}

	ErrVerificationRejected = &AppError{
		Code:       "VERIFICATION_REJECTED",
		Message:    "Face verification was rejected",
		StatusCode: 401,
	}

	ErrSessionFinished = &AppError{
		Code:       "SESSION_FINISHED",
		Message:    "Capture session already finished",
		StatusCode: 409,
	}

	ErrCaptureFailed = &AppError{
		Code:       "CAPTURE_FAILED",
		Message:    "Camera capture failed",
		StatusCode: 500,
	}
)

// IsConflict reports whether err is one of the backend conflict
// classifications.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateFace) ||
		errors.Is(err, ErrDuplicateCredential) ||
		errors.Is(err, ErrDeviceAlreadyUsed)
}

// Classification returns the wire classification string for a conflict
// error, or "" for anything else.
func Classification(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateFace):
		return "duplicate-face"
	case errors.Is(err, ErrDuplicateCredential):
		return "duplicate-credential"
	case errors.Is(err, ErrDeviceAlreadyUsed):
		return "device-already-used"
	default:
		return ""
	}
}

// ConflictError maps a backend conflict classification string to its typed
// error. Unknown classifications collapse to ErrDuplicateCredential, which
// always takes the preserve path on the caller side.
func ConflictError(classification string) *AppError {
	switch classification {
	case "duplicate-face":
		return ErrDuplicateFace
	case "duplicate-credential":
		return ErrDuplicateCredential
	case "device-already-used":
		return ErrDeviceAlreadyUsed
	default:
		return ErrDuplicateCredential
	}
}
