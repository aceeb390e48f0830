// Package pipeline wires the stages of the transcoding system together and
// runs their queue consumer loops under one lifecycle.
package pipeline
