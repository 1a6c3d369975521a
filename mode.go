package compio

import "github.com/scigolib/compio/internal/utils"

// Mode selects how an archive's host file is opened.
type Mode string

// The six supported modes, mapped to read/write/append bits below.
const (
	ModeRead       Mode = "r"
	ModeWrite      Mode = "w"
	ModeAppend     Mode = "a"
	ModeReadWrite  Mode = "r+"
	ModeWriteRead  Mode = "w+"
	ModeAppendRead Mode = "a+"
)

type modeBits struct {
	read, write, truncate, create, appendOnly bool
}

func (m Mode) bits() (modeBits, error) {
	switch m {
	case ModeRead:
		return modeBits{read: true}, nil
	case ModeWrite:
		return modeBits{write: true, truncate: true, create: true}, nil
	case ModeAppend:
		return modeBits{write: true, create: true, appendOnly: true}, nil
	case ModeReadWrite:
		return modeBits{read: true, write: true}, nil
	case ModeWriteRead:
		return modeBits{read: true, write: true, truncate: true, create: true}, nil
	case ModeAppendRead:
		return modeBits{read: true, write: true, create: true, appendOnly: true}, nil
	default:
		return modeBits{}, utils.NewError(utils.KindInvalidArgument, "mode.bits", nil)
	}
}

// allowsOpenForWrite reports whether open_file may create a missing
// name under this archive mode.
func (b modeBits) allowsOpenForWrite() bool {
	return b.write
}
