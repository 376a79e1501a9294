package pipeline

import "errors"

var (
	errMissingState   = errors.New("missing mandatory parameter: state")
	errInvalidYear    = errors.New("invalid parameter: year")
	errAlreadyRunning = errors.New("the pipeline is running already")
)
