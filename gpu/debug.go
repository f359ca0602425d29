package gpu

import "strings"

// DebugSeverity flags match VkDebugUtilsMessageSeverityFlagBitsEXT.
type DebugSeverity uint32

const (
	SeverityVerbose DebugSeverity = 0x00000001
	SeverityInfo    DebugSeverity = 0x00000010
	SeverityWarning DebugSeverity = 0x00000100
	SeverityError   DebugSeverity = 0x00001000

	SeverityAll = SeverityVerbose | SeverityInfo | SeverityWarning | SeverityError
)

func (s DebugSeverity) String() string {
	return flagString(uint32(s), []string{"Verbose", "Info", "Warning", "Error"},
		[]uint32{uint32(SeverityVerbose), uint32(SeverityInfo), uint32(SeverityWarning), uint32(SeverityError)})
}

// DebugMessageType flags match VkDebugUtilsMessageTypeFlagBitsEXT.
type DebugMessageType uint32

const (
	MessageTypeGeneral     DebugMessageType = 0x00000001
	MessageTypeValidation  DebugMessageType = 0x00000002
	MessageTypePerformance DebugMessageType = 0x00000004

	MessageTypeAll = MessageTypeGeneral | MessageTypeValidation | MessageTypePerformance
)

func (t DebugMessageType) String() string {
	return flagString(uint32(t), []string{"General", "Validation", "Performance"},
		[]uint32{uint32(MessageTypeGeneral), uint32(MessageTypeValidation), uint32(MessageTypePerformance)})
}

func flagString(v uint32, names []string, bits []uint32) string {
	var parts []string
	for i, bit := range bits {
		if v&bit != 0 {
			parts = append(parts, names[i])
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "|")
}

type DebugMessage struct {
	Severity      DebugSeverity
	Types         DebugMessageType
	MessageIDName string
	Message       string
}

// DebugCallback receives API-originated messages. It may be invoked from
// any thread the driver chooses.
type DebugCallback func(msg DebugMessage)

type DebugMessengerCreateInfo struct {
	Severities DebugSeverity
	Types      DebugMessageType
	Callback   DebugCallback
}
