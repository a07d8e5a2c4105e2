// Package synth turns loosely specified element descriptions into valid
// diagram elements, and builds connectors between existing elements.
//
// Every function here is a pure transformation over an ir.Scene: the input
// scene is never modified, and results carry the elements to upsert (or,
// for Connect, the whole next scene). Malformed input produces a
// *SynthesisError and an empty result, never a panic.
package synth
