package quack

import "golang.org/x/xerrors"

// Error values reported by the digest operations. Call sites wrap them with
// context; test with xerrors.Is.
var (
	// ErrUnsupportedDigest is returned when deserializing a wire kind or
	// field width this build does not implement.
	ErrUnsupportedDigest = xerrors.New("unsupported digest kind or field width")

	// ErrThresholdMismatch is returned by MergeSubtract when the two
	// digests disagree on kind, width or threshold.
	ErrThresholdMismatch = xerrors.New("digests disagree on kind, width or threshold")

	// ErrCountExceedsThreshold is returned by Decode when the count
	// difference is larger than the digest can reconstruct.
	ErrCountExceedsThreshold = xerrors.New("count difference exceeds decoding threshold")

	// ErrNegativeCount is returned by Decode on a negative count; the
	// caller subtracted the digests in the wrong order.
	ErrNegativeCount = xerrors.New("count difference is negative")

	// ErrNotEnoughRoots is returned when the difference polynomial does
	// not fully split over the field: the two digests were not in a
	// subset relation, or one of them was corrupted.
	ErrNotEnoughRoots = xerrors.New("difference polynomial does not split over the field")

	// ErrZeroRoot is returned when a decode recovers the reserved
	// identifier 0.
	ErrZeroRoot = xerrors.New("decode recovered the reserved identifier 0")

	// ErrForbiddenIdentifier is returned by Insert/Remove for identifiers
	// that are 0 modulo the field prime, or that do not fit the digest
	// width.
	ErrForbiddenIdentifier = xerrors.New("identifier is reserved or out of range")

	// ErrInvalidInverse means an inverse of 0 was requested. Reaching it
	// is a bug in this package, not bad caller input.
	ErrInvalidInverse = xerrors.New("multiplicative inverse of 0 requested")
)
