package errors

import "errors"

var (
	// Collector errors
	ErrUnavailable      = errors.New("metric source unavailable")
	ErrPermissionDenied = errors.New("metric source access denied")
	ErrParse            = errors.New("metric source returned malformed data")
	ErrTimeout          = errors.New("collector timed out")
	ErrFirstSample      = errors.New("first sample primes state only")

	// Configuration errors
	ErrUnknownMetric = errors.New("unknown metric name")
	ErrBadInterval   = errors.New("invalid collection interval")
	ErrBadAddress    = errors.New("invalid destination address")

	// Endpoint errors
	ErrMalformedEnvelope  = errors.New("malformed envelope")
	ErrHostNotFound       = errors.New("host not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
