// Package videostore tracks per-video transcoding progress and lifecycle
// status. Its completion update is written to stay correct under concurrent
// workers and message redelivery.
package videostore
