// Package publish uploads a finished stylesheet and the image assets it
// references to the destination community.
//
// The stylesheet is pushed first. Only after the destination accepts it are
// the images in the asset directory discovered and uploaded, all at once.
// A rejected stylesheet is reported as *RejectedError so the caller can
// notify the moderators; a failed image upload is reported as
// *AssetUploadError and does not trigger that notification.
package publish
