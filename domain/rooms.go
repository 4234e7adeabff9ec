package domain

// Room names are plain strings so the multiplexer stays agnostic of what a
// room broadcasts. All naming goes through these constructors; nothing else
// in the codebase concatenates room prefixes by hand.

func UserRoom(id string) string { return "user:" + id }

func PostRoom(id string) string { return "post:" + id }

func ConversationRoom(id string) string { return "conversation:" + id }

func StreamRoom(id string) string { return "stream:" + id }

func GroupRoom(id string) string { return "group:" + id }
