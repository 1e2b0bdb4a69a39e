package gemini

// MessageType tags one Message variant.
type MessageType string

const (
	MessageDisconnect    MessageType = "gemini.disconnect"
	MessageResponseStart MessageType = "gemini.response.start"
	MessageResponseBody  MessageType = "gemini.response.body"
)

// Message is the unit exchanged between a Conn and its application instance.
// Disconnect flows transport->application; start and body flow the other way.
type Message struct {
	Type     MessageType
	Status   int
	Header   string
	Body     []byte
	MoreBody bool
}

func Disconnect() Message {
	return Message{Type: MessageDisconnect}
}

func ResponseStart(status int, header string) Message {
	return Message{Type: MessageResponseStart, Status: status, Header: header}
}

// ResponseBody builds a body frame. more=false marks the final frame.
func ResponseBody(body []byte, more bool) Message {
	return Message{Type: MessageResponseBody, Body: body, MoreBody: more}
}
