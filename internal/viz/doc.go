// Package viz draws constructions in the terminal.
//
//   - [Canvas]: Braille-based pixel canvas, two by four dots per cell
//   - [Render]: rest and solved geometry of a result on a canvas
//   - [Browser]: Bubble Tea result browser with a stick/node table
//
// # Key Bindings
//
//	j/k   - Move the table cursor
//	Tab   - Switch between sticks and nodes
//	D     - Toggle rest geometry overlay
//	T     - Cycle color themes
//	Q     - Quit
package viz
