package include

import "errors"

var (
	ErrDuplicateIncludeName         = errors.New("duplicate include name")
	ErrIncludeNotFound              = errors.New("include not found")
	ErrInvalidIncludeName           = errors.New("invalid include name")
	ErrPlaceNotExternallyAccessible = errors.New("place not externally accessible")
	ErrInterfaceNotFound            = errors.New("interface place not found")
	ErrInvalidExport                = errors.New("export needs a home or away direction")
)
