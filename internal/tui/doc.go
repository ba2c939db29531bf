// Package tui provides the interactive terminal form of supercarctl.
//
// The form is a Bubble Tea model driving a form.Controller:
//
//	ctrl := form.NewController(route.Motor, client)
//	err := tui.RunForm(ctx, ctrl, route.Motor, "steering")
//
// # Keys
//
//   - up/down, tab/shift+tab: move between fields
//   - ctrl+s: save the configuration to the device
//   - ctrl+r: reload the configuration from the device
//   - ctrl+t: switch the motor (motor form only)
//   - esc, ctrl+c: quit
//
// Invalid values are shown next to their field and never block typing; they
// only block saving.
package tui
