// Package bridge is the event loop that ties the media player, the buttons
// and the display together. A single goroutine consumes player signals,
// button presses and API requests in arrival order, so every reaction sees
// the state left by the previous one and no other coordination is needed.
package bridge
