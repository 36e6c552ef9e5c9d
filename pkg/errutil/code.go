package errutil

const (
	codeBase = 1000
)

const OK = 0

const (
	Unknown = codeBase + iota
	illegalParameter
	invalidParameter
	notFound
	dbOperation
	serverInternal
	permissionDenied
	notImplemented
	config
	resolution
	notInitialized
	alreadyInitialized
	requestTimeout
	illegalNotation
	illegalDieState
	dieNotFound
	rollNotFound
	worldClosed
	transportClosed
)

var errs = map[error]int{
	ErrIllegalParameter:   illegalParameter,
	ErrInvalidParameter:   invalidParameter,
	ErrNotFound:           notFound,
	ErrDBOperation:        dbOperation,
	ErrServerInternal:     serverInternal,
	ErrPermissionDenied:   permissionDenied,
	ErrNotImplemented:     notImplemented,
	ErrConfig:             config,
	ErrResolution:         resolution,
	ErrNotInitialized:     notInitialized,
	ErrAlreadyInitialized: alreadyInitialized,
	ErrRequestTimeout:     requestTimeout,
	ErrIllegalNotation:    illegalNotation,
	ErrIllegalDieState:    illegalDieState,
	ErrDieNotFound:        dieNotFound,
	ErrRollNotFound:       rollNotFound,
	ErrWorldClosed:        worldClosed,
	ErrTransportClosed:    transportClosed,
}
