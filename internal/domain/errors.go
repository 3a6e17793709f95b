package domain

import "errors"

var (
	// ErrInvalidRegion is returned when a bounding box is inverted or out of geographic range.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrInvalidGrid is returned for grid dimensions below 1x1.
	ErrInvalidGrid = errors.New("invalid grid dimensions")

	// ErrEmptySeries is returned when a regression is asked to fit no data.
	ErrEmptySeries = errors.New("empty series")

	// ErrMismatchedSeries is returned when paired inputs have different shapes.
	ErrMismatchedSeries = errors.New("mismatched series")

	// ErrInsufficientData is returned when calibration has fewer than two
	// historical observations to fit a line through.
	ErrInsufficientData = errors.New("insufficient historical data")

	// ErrClassificationAmbiguous is returned by a strict classifier for points
	// that lie exactly on a quadrant midline.
	ErrClassificationAmbiguous = errors.New("point lies on a quadrant boundary")
)
