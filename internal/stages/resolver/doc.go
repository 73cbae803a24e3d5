// Package resolver derives what a stage looks like. Given a mode, a stage
// index and the learner's current selection it computes the visible
// entities, where each one sits on the canvas, and the text that goes with
// the stage. The resolver holds no mutable state; one instance can serve any
// number of readers.
package resolver
