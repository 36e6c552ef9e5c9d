package game

import "github.com/lonng/dicebox/protocol"

// BroadcastSystemMessage pushes a text notice to every joined client
func BroadcastSystemMessage(message string) {
	defaultManager.push(routeBroadcast, &protocol.StringMessage{Message: message})
}

// NotifyClear tells every joined client the table was cleared by source
func NotifyClear(source string) {
	defaultManager.push(routeClear, &protocol.ClearNotify{Source: source})
}
