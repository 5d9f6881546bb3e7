package domain

// Case is one patient/scan unit: an image, its segmentation mask, and the
// directory that receives its feature maps.
type Case struct {
	// Index is the numeric case index within the batch range.
	Index int

	// ID is the zero-padded identifier, e.g. "case_00001".
	ID string

	// ImagePath is the path of the CT volume.
	ImagePath string

	// MaskPath is the path of the segmentation mask.
	MaskPath string

	// OutputDir receives the image-valued features of this case.
	OutputDir string
}
