// Package manifest owns the HLS playlist formats the pipeline produces and the
// object key layout under the processed bucket.
//
// The stitched and master manifest bytes are part of the player-facing
// contract; change them only with a compatible player in hand.
package manifest
