// Package validator decides what a click on a factor means in interactive
// mode and when a stage's selections are complete. It also orders the
// selectable factors for display.
package validator
