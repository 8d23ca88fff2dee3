package errors

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Retryable       bool
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	CodeStorageUnavailable: {
		Code:            CodeStorageUnavailable,
		Retryable:       true,
		Description:     "The contact could not be saved",
		SuggestedAction: "Check the store: netnotes db health, then retry the capture",
	},
	CodeStorageTimeout: {
		Code:            CodeStorageTimeout,
		Retryable:       true,
		Description:     "The store did not answer in time",
		SuggestedAction: "Retry the capture; check database connectivity if it keeps failing",
	},
	CodeNoteNotSaved: {
		Code:            CodeNoteNotSaved,
		Retryable:       false,
		Description:     "The contact was saved but its note was not",
		SuggestedAction: "Add the note again: netnotes capture \"<name>, <note>\"",
	},
	CodeContextCancelled: {
		Code:            CodeContextCancelled,
		Retryable:       false,
		Description:     "Operation cancelled by user or system",
		SuggestedAction: "No action needed if the interrupt was intentional",
	},
	CodeCaptureCancelled: {
		Code:            CodeCaptureCancelled,
		Retryable:       false,
		Description:     "Capture abandoned before saving",
		SuggestedAction: "Nothing was saved; run netnotes capture again",
	},
	CodeValidation: {
		Code:            CodeValidation,
		Retryable:       false,
		Description:     "Input was rejected",
		SuggestedAction: "Provide a non-empty line describing the person",
	},
	CodeNotFound: {
		Code:            CodeNotFound,
		Retryable:       false,
		Description:     "No matching record",
		SuggestedAction: "List contacts: netnotes people list",
	},
	CodeSessionBusy: {
		Code:            CodeSessionBusy,
		Retryable:       true,
		Description:     "Another capture is still in progress",
		SuggestedAction: "Finish or cancel the open capture first",
	},
	CodeInvalidState: {
		Code:            CodeInvalidState,
		Retryable:       false,
		Description:     "The reply does not match the pending question",
		SuggestedAction: "Answer the question currently shown",
	},
	CodeLocationUnavailable: {
		Code:            CodeLocationUnavailable,
		Retryable:       false,
		Description:     "No location could be determined",
		SuggestedAction: "Type the place instead, or set location.lat and location.lng in the config",
	},
	CodeUnknown: {
		Code:            CodeUnknown,
		Retryable:       false,
		Description:     "Unclassified error",
		SuggestedAction: "Re-run with --debug for details",
	},
}

// IsRetryable returns true if the given error code represents a transient, retryable error.
func IsRetryable(code ErrorCode) bool {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Retryable
	}
	return false
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Re-run with --debug for details"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
