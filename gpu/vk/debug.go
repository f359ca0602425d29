package vk

import (
	"github.com/sagitario/engine/gpu"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
)

func debugUtilsCreateInfo(info gpu.DebugMessengerCreateInfo) ext_debug_utils.DebugUtilsMessengerCreateInfo {
	callback := info.Callback
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.DebugUtilsMessageSeverityFlags(info.Severities),
		MessageType:     ext_debug_utils.DebugUtilsMessageTypeFlags(info.Types),
		UserCallback: func(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			if callback == nil || data == nil {
				return false
			}
			callback(gpu.DebugMessage{
				Severity:      gpu.DebugSeverity(severity),
				Types:         gpu.DebugMessageType(msgType),
				MessageIDName: data.MessageIDName,
				Message:       data.Message,
			})
			// Returning true would abort the call that triggered the message.
			return false
		},
	}
}
