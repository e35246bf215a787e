// Package bluez talks to the BlueZ daemon over the system D-Bus. It locates
// org.bluez.MediaPlayer1 objects exported for AVRCP-connected devices, sends
// playback commands to them, and translates their property-change signals
// into model events.
package bluez
