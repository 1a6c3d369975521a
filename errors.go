package compio

import "github.com/scigolib/compio/internal/utils"

// Sentinel errors callers compare against with errors.Is. Each wraps one
// of the eight error kinds; Op and the underlying cause are whatever the
// actual failure carried, so a successful errors.Is match only pins the
// kind.
var (
	ErrInvalidArgument = utils.NewError(utils.KindInvalidArgument, "", nil)
	ErrNameTooLong     = utils.NewError(utils.KindNameTooLong, "", nil)
	ErrTooManyFiles    = utils.NewError(utils.KindTooManyFiles, "", nil)
	ErrReadOnly        = utils.NewError(utils.KindReadOnly, "", nil)
	ErrNoSuchFile      = utils.NewError(utils.KindNoSuchFile, "", nil)
	ErrIOError         = utils.NewError(utils.KindIOError, "", nil)
	ErrCorruptArchive  = utils.NewError(utils.KindCorruptArchive, "", nil)
	ErrOutOfMemory     = utils.NewError(utils.KindOutOfMemory, "", nil)
)
