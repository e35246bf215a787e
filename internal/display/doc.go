// Package display defines the character-display abstraction the bridge
// renders to, the registry that selects a driver by name, and the text
// layout shared by every driver: now-playing frames, wrapped messages, and
// folding of arbitrary Unicode into the ASCII subset an HD44780 ROM can show.
package display
