package services

import "strings"

// BodyVisibility is the coarse classification of how much of the user's body
// is visible in the uploaded photo.
type BodyVisibility string

const (
	VisibilityHeadOnly  BodyVisibility = "HEAD_ONLY"
	VisibilityUpperBody BodyVisibility = "UPPER_BODY"
	VisibilityFullBody  BodyVisibility = "FULL_BODY"
)

// UploadedPhoto is an in-memory uploaded image plus the metadata the pipeline
// needs for validation and classification.
type UploadedPhoto struct {
	FileName string
	MIMEType string
	Data     []byte
}

func (p UploadedPhoto) Size() int64 {
	return int64(len(p.Data))
}

// VisibilityClassifier decides how much of the person's body the photo shows.
// The pipeline only depends on this interface so the filename heuristic can be
// swapped for a real image-based classifier without touching downstream
// stages.
type VisibilityClassifier interface {
	Classify(photo UploadedPhoto) BodyVisibility
}

// FilenameVisibilityClassifier is the reference tier: a cheap keyword scan
// over the uploaded file name. Unrecognized names default to UPPER_BODY,
// which is the most common framing for shopper selfies.
type FilenameVisibilityClassifier struct{}

func (FilenameVisibilityClassifier) Classify(photo UploadedPhoto) BodyVisibility {
	name := strings.ToLower(photo.FileName)
	for _, keyword := range []string{"full", "standing"} {
		if strings.Contains(name, keyword) {
			return VisibilityFullBody
		}
	}
	for _, keyword := range []string{"upper", "torso"} {
		if strings.Contains(name, keyword) {
			return VisibilityUpperBody
		}
	}
	for _, keyword := range []string{"head", "portrait", "selfie"} {
		if strings.Contains(name, keyword) {
			return VisibilityHeadOnly
		}
	}
	return VisibilityUpperBody
}
