// Package viz renders closed-loop runs in the terminal.
//
// [Model] is a Bubble Tea program that steps a [Loop] in real time and
// draws the vehicle on a braille [Canvas] next to a strip chart of the
// tracked axis. Styles come from the active [Theme].
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial state
//	G     - Apply a gust to the rate axis
//	T     - Cycle color themes
//	Tab   - Select a plant parameter
//	↑/↓   - Adjust it by 5%
//	[ ]   - Step back and forward through history
//	?     - Show help overlay
//	Q     - Quit
package viz
