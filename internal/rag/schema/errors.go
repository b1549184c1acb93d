package schema

import "errors"

var (
	// ErrEmptyContent is returned when an element is constructed with empty or
	// whitespace-only content.
	ErrEmptyContent = errors.New("element content cannot be empty")

	// ErrEmptySummary is returned when SetSummary is called with an empty or
	// whitespace-only string.
	ErrEmptySummary = errors.New("element summary cannot be empty")

	// ErrSummaryNotSet is returned when Summary is called before a summary has
	// been attached to the element.
	ErrSummaryNotSet = errors.New("summary not available")

	// ErrInvalidFormat is returned when an element is constructed with a
	// kind/format combination outside the allowed table.
	ErrInvalidFormat = errors.New("invalid format for element kind")

	// ErrUnsupportedMimeType is returned for image payloads whose MIME type is
	// neither image/jpeg nor image/png.
	ErrUnsupportedMimeType = errors.New("unsupported image mime type")

	// ErrUnsupportedSource is returned when a document carries a source tag
	// other than "content" or "summary".
	ErrUnsupportedSource = errors.New("unsupported document source")
)
