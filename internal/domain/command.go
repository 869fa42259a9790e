package domain

// CommandType classifies what the operator wants to do.
type CommandType int

const (
	CommandUnknown CommandType = iota
	CommandHelp
	CommandList
	CommandAdd
	CommandEdit
	CommandDelete
	CommandEnable  // set an entry active
	CommandDisable // set an entry inactive
	CommandTest    // manually trigger an entry's announcement
	CommandAutoOn  // master switch on
	CommandAutoOff // master switch off
	CommandSchool  // rename the school
	CommandVoice   // change the announcement voice
	CommandStatus
	CommandQuit
)

// String returns a human-readable command type.
func (c CommandType) String() string {
	switch c {
	case CommandHelp:
		return "help"
	case CommandList:
		return "list"
	case CommandAdd:
		return "add"
	case CommandEdit:
		return "edit"
	case CommandDelete:
		return "delete"
	case CommandEnable:
		return "enable"
	case CommandDisable:
		return "disable"
	case CommandTest:
		return "test"
	case CommandAutoOn:
		return "auto_on"
	case CommandAutoOff:
		return "auto_off"
	case CommandSchool:
		return "school"
	case CommandVoice:
		return "voice"
	case CommandStatus:
		return "status"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command represents a parsed console command.
type Command struct {
	Type    CommandType
	Payload string // remainder of the line after the verb, trimmed
}
