package publish

import "fmt"

// RejectedError reports that the destination refused the stylesheet.
type RejectedError struct {
	Destination string
	Err         error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("stylesheet rejected by r/%s: %v", e.Destination, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// AssetUploadError reports the first image upload that failed.
type AssetUploadError struct {
	Asset AssetImage
	Err   error
}

func (e *AssetUploadError) Error() string {
	return fmt.Sprintf("upload image %q (%s): %v", e.Asset.Name, e.Asset.FilePath, e.Err)
}

func (e *AssetUploadError) Unwrap() error { return e.Err }
