// Package live is the preview wire protocol: binary frames carrying
// scene patches server-to-client, input events client-to-server, and
// control messages both ways, over a websocket session per open page.
package live

// FrameType is the first byte of every frame.
type FrameType uint8

const (
	// FramePatches carries an ordered scene patch list.
	FramePatches FrameType = 0x00
	// FrameEvent carries one client input event.
	FrameEvent FrameType = 0x01
	// FrameControl carries a control command string.
	FrameControl FrameType = 0x02
)

// Event is a client input event: the handler name the template bound,
// the snapshot node it fired on, and whatever payload the client
// attached (input values, coordinates).
type Event struct {
	Name   string
	NodeID uint32
	Data   map[string]string
}

// Control commands.
const (
	// ControlHello is sent by the server once the session is up.
	ControlHello = "hello"
	// ControlReload tells the client to reload the page (full rebuild).
	ControlReload = "reload"
)
