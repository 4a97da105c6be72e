package requests

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrEmptySubmission    = errors.New("submission must include a prompt or at least one image")
	ErrTooManyImages      = errors.New("too many images")
	ErrImageTooLarge      = errors.New("image exceeds size limit")
	ErrUnsupportedImage   = errors.New("unsupported image type")
	ErrBadImageEncoding   = errors.New("image is not a valid base64 data URL")
	ErrRegenerateUnstable = errors.New("request is still processing")
	ErrUnknownBatchAction = errors.New("unknown batch action")
	ErrNotRetryable       = errors.New("request is not in a failed state")
)
