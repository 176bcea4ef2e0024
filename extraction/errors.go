package extraction

import "errors"

var (
	// ErrEmptyInput means the parsed report has no usable root record.
	ErrEmptyInput = errors.New("empty or invalid report data")

	// ErrExtractionService means the text-understanding service could not produce metrics.
	ErrExtractionService = errors.New("extraction service failed")

	// ErrMalformedJSON means the structured input is not valid JSON.
	ErrMalformedJSON = errors.New("malformed JSON input")

	// ErrUnrepairableJSON means RepairJSON found no parseable JSON in the input.
	ErrUnrepairableJSON = errors.New("could not repair JSON input")
)
